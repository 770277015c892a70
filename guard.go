package managed

import "log/slog"

type (
	// GuardState is the position of a [Guard] in its lifecycle.
	GuardState uint8
	// Guard overrides a piece of ambient state and restores it later.
	// The previous value is read when the guard is activated,
	// so nested guards restore correctly in stack order:
	//
	//	defer managed.OverrideLogLevel(managed.Verbose).Reset()
	Guard[V any] struct {
		load  func() V
		store func(V)
		saved V
		state GuardState
	}
)

const (
	// Unset guards were constructed without a value.
	Unset GuardState = iota
	// Active guards have applied their value and saved the previous one.
	Active
	// Restored guards have written the saved value back.
	Restored
)

func (s GuardState) String() string {
	switch s {
	case Unset:
		return "unset"
	case Active:
		return "active"
	case Restored:
		return "restored"
	}
	return "invalid"
}

// NewGuard returns an [Unset] guard over the state accessed
// by load and store.
func NewGuard[V any](load func() V, store func(V)) *Guard[V] {
	return &Guard[V]{load: load, store: store}
}

// Set saves the current value and applies value.
// Setting an active guard restores it first.
func (g *Guard[V]) Set(value V) {
	g.Reset()
	g.saved = g.load()
	g.store(value)
	g.state = Active
}

// Reset writes the saved value back.
// It does nothing unless the guard is [Active].
func (g *Guard[V]) Reset() {
	if g.state != Active {
		return
	}
	g.store(g.saved)
	var zero V
	g.saved = zero
	g.state = Restored
}

func (g *Guard[V]) State() GuardState { return g.state }

func set[V any](g *Guard[V], value V) *Guard[V] {
	g.Set(value)
	return g
}

func (c *Context) NewLogLevelGuard() *Guard[LogLevel] {
	return NewGuard(c.LogLevel, c.SetLogLevel)
}

func (c *Context) NewCheckLevelGuard() *Guard[CheckLevel] {
	return NewGuard(c.CheckLevel, c.SetCheckLevel)
}

func (c *Context) NewNumberOfThreadsGuard() *Guard[int] {
	return NewGuard(c.NumberOfThreads, c.SetNumberOfThreads)
}

func (c *Context) NewShowLeaksGuard() *Guard[bool] {
	return NewGuard(c.ShowLeaks, c.SetShowLeaks)
}

func (c *Context) NewLoggerGuard() *Guard[*slog.Logger] {
	return NewGuard(c.Logger, c.SetLogger)
}

// OverrideLogLevel returns an active guard over c's log level.
func (c *Context) OverrideLogLevel(level LogLevel) *Guard[LogLevel] {
	return set(c.NewLogLevelGuard(), level)
}

// OverrideCheckLevel returns an active guard over c's check level.
func (c *Context) OverrideCheckLevel(level CheckLevel) *Guard[CheckLevel] {
	return set(c.NewCheckLevelGuard(), level)
}

// OverrideNumberOfThreads returns an active guard over c's thread count.
func (c *Context) OverrideNumberOfThreads(n int) *Guard[int] {
	return set(c.NewNumberOfThreadsGuard(), n)
}

// OverrideShowLeaks returns an active guard over c's leak reporting.
func (c *Context) OverrideShowLeaks(show bool) *Guard[bool] {
	return set(c.NewShowLeaksGuard(), show)
}

// OverrideLogger returns an active guard over c's logger.
func (c *Context) OverrideLogger(logger *slog.Logger) *Guard[*slog.Logger] {
	return set(c.NewLoggerGuard(), logger)
}

// OverrideLogLevel calls [Context.OverrideLogLevel] on the process context.
func OverrideLogLevel(level LogLevel) *Guard[LogLevel] {
	return process.OverrideLogLevel(level)
}

// OverrideCheckLevel calls [Context.OverrideCheckLevel] on the process context.
func OverrideCheckLevel(level CheckLevel) *Guard[CheckLevel] {
	return process.OverrideCheckLevel(level)
}

// OverrideNumberOfThreads calls [Context.OverrideNumberOfThreads]
// on the process context.
func OverrideNumberOfThreads(n int) *Guard[int] {
	return process.OverrideNumberOfThreads(n)
}

// OverrideShowLeaks calls [Context.OverrideShowLeaks] on the process context.
func OverrideShowLeaks(show bool) *Guard[bool] {
	return process.OverrideShowLeaks(show)
}

// OverrideLogger calls [Context.OverrideLogger] on the process context.
func OverrideLogger(logger *slog.Logger) *Guard[*slog.Logger] {
	return process.OverrideLogger(logger)
}

// NewObjectLogLevelGuard returns an [Unset] guard over obj's local
// log level. The guard observes obj through a [WeakPointer],
// so restoring it after obj was destroyed is a fatal error.
func NewObjectLogLevelGuard(obj Object) *Guard[LogLevel] {
	object := NewWeakPointer(obj)
	return NewGuard(
		func() LogLevel { return object.Get().entity().logLevel },
		func(level LogLevel) { object.Get().entity().SetLogLevel(level) },
	)
}

// NewObjectCheckLevelGuard is like [NewObjectLogLevelGuard]
// for obj's local check level.
func NewObjectCheckLevelGuard(obj Object) *Guard[CheckLevel] {
	object := NewWeakPointer(obj)
	return NewGuard(
		func() CheckLevel { return object.Get().entity().checkLevel },
		func(level CheckLevel) { object.Get().entity().SetCheckLevel(level) },
	)
}

// OverrideObjectLogLevel returns an active guard over obj's local log level.
func OverrideObjectLogLevel(obj Object, level LogLevel) *Guard[LogLevel] {
	return set(NewObjectLogLevelGuard(obj), level)
}

// OverrideObjectCheckLevel returns an active guard over obj's local check level.
func OverrideObjectCheckLevel(obj Object, level CheckLevel) *Guard[CheckLevel] {
	return set(NewObjectCheckLevelGuard(obj), level)
}
