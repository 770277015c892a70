package managed

import (
	"fmt"
	"strings"
)

type constError string

const (
	// ErrUsage is the kind of a [CheckError] raised when
	// a caller misuses the API (null dereference, double release,
	// assigning a non-zero integer to a handle, ...).
	ErrUsage = constError("usage check failure")
	// ErrInternal is the kind of a [CheckError] raised when
	// an invariant of this package (or of a cache generator) is broken.
	ErrInternal = constError("internal check failure")
	// ErrFatal is the kind of a [CheckError] raised when
	// a destroyed or uninitialized [Entity] is used.
	// Fatal checks are never disabled.
	ErrFatal = constError("fatal check failure")
	// ErrInvalidLevel may be returned from [ParseLogLevel] and [ParseCheckLevel].
	ErrInvalidLevel = constError("invalid level")
)

func (errStr constError) Error() string { return string(errStr) }

// CheckError is the panic value of a failed check.
// Use [errors.Is] with [ErrUsage], [ErrInternal] or [ErrFatal]
// to classify a recovered value.
type CheckError struct {
	Kind    error
	Message string
	// Scopes names the operations entered with [Context.Enter]
	// or [EnterObject] when the check failed, outermost first.
	Scopes []string
}

func (e *CheckError) Error() string {
	msg := e.Kind.Error() + ": " + e.Message
	if len(e.Scopes) == 0 {
		return msg
	}
	return msg + " (in " + strings.Join(e.Scopes, " > ") + ")"
}

func (e *CheckError) Unwrap() error { return e.Kind }

func (c *Context) fault(kind error, format string, args ...any) {
	panic(&CheckError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Scopes:  c.Scopes(),
	})
}

func invalidLevelError(kind, name string) error {
	return fmt.Errorf(
		"%w: unknown %s level %q",
		ErrInvalidLevel, kind, name)
}
