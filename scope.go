package managed

import "strings"

// Scope names an operation in progress. While it is open, check
// failures carry its name in [CheckError.Scopes] and log records
// carry it as the "scope" attribute.
// Scopes opened by [EnterObject] also apply the object's own
// log and check levels to its [Context].
// Scopes must be exited in the reverse order they were entered:
//
//	defer managed.EnterObject(obj, "Evaluate").Exit()
type Scope struct {
	ctx   *Context
	name  string
	depth int
	log   *Guard[LogLevel]
	check *Guard[CheckLevel]
}

// Enter opens a [Scope] named name within c.
func (c *Context) Enter(name string) *Scope {
	c.scopes = append(c.scopes, name)
	return &Scope{
		ctx:   c,
		name:  name,
		depth: len(c.scopes),
	}
}

// Enter calls [Context.Enter] on the process context.
func Enter(name string) *Scope { return process.Enter(name) }

// EnterObject opens a [Scope] for operation on obj.
// For its duration, obj's local log and check levels (if set)
// become the levels of obj's [Context].
func EnterObject(obj Object, operation string) *Scope {
	e := entityOf(obj)
	if e == nil {
		process.fault(ErrUsage, "cannot enter %q on a nil object", operation)
	}
	e.validate()
	var (
		c     = e.ctx
		log   = c.NewLogLevelGuard()
		check = c.NewCheckLevelGuard()
	)
	if e.logLevel != InheritLogLevel {
		log.Set(e.logLevel)
	}
	if e.checkLevel != InheritCheckLevel {
		check.Set(e.checkLevel)
	}
	scope := c.Enter(e.name + "." + operation)
	scope.log, scope.check = log, check
	return scope
}

// Exit closes the scope and restores the levels it applied.
// Exiting a scope more than once has no further effect.
// Exiting a scope which encloses open scopes discards them
// and is an internal error.
func (s *Scope) Exit() {
	if s.ctx == nil {
		return
	}
	c := s.ctx
	s.ctx = nil
	if len(c.scopes) < s.depth {
		return // Discarded along with an enclosing scope.
	}
	innermost := len(c.scopes) == s.depth
	c.scopes = c.scopes[:s.depth-1]
	if s.check != nil {
		s.check.Reset()
	}
	if s.log != nil {
		s.log.Reset()
	}
	c.CheckInternal(innermost, "scope %q exited out of order", s.name)
}

// Scopes returns the names of the open scopes of c, outermost first.
func (c *Context) Scopes() []string {
	if len(c.scopes) == 0 {
		return nil
	}
	return append([]string(nil), c.scopes...)
}

func (c *Context) scopeAttr() string { return strings.Join(c.scopes, " > ") }
