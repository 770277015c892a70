package managed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
)

type (
	// Context holds the process-wide state shared by managed objects:
	// verbosity and check levels, the thread count hint, the logger,
	// the live-object registry, and the name counters used to expand
	// `%1%` placeholders.
	//
	// Levels and the logger are plain fields; like reference counts,
	// they must only be changed from one goroutine at a time.
	// The registry is additionally guarded so that it may be
	// inspected (e.g. scraped by a metrics collector) concurrently.
	Context struct {
		logger     *slog.Logger
		logLevel   LogLevel
		checkLevel CheckLevel
		threads    int
		showLeaks  bool
		scopes     []string

		mu                 sync.Mutex
		live               map[*Entity]struct{}
		names              map[string]int
		serial             uint64
		created, destroyed uint64
	}
	// Counts is a snapshot of a [Context]'s lifetime counters.
	Counts struct {
		Live, Created, Destroyed uint64
	}
)

var process = NewContext()

// Process returns the process-wide [Context] used by [Init]
// and the package-level functions.
func Process() *Context { return process }

// NewContext creates a [Context] with the default settings:
// [Warning] log level, [Usage] check level, GOMAXPROCS threads,
// leak reporting disabled and a text logger on stderr.
func NewContext() *Context {
	return &Context{
		logger:     NewTextLogger(os.Stderr),
		logLevel:   Warning,
		checkLevel: Usage,
		threads:    runtime.GOMAXPROCS(0),
		live:       make(map[*Entity]struct{}),
		names:      make(map[string]int),
	}
}

// NewTextLogger returns a slog text logger that passes every
// record through; filtering is done by [LogLevel].
func NewTextLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogFloor}))
}

// NewJSONLogger is like [NewTextLogger] but emits JSON records.
func NewJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogFloor}))
}

func (c *Context) LogLevel() LogLevel { return c.logLevel }

func (c *Context) SetLogLevel(level LogLevel) {
	c.CheckUsage(level.valid(),
		"context log level must be concrete, got %v", level)
	c.logLevel = level
}

func (c *Context) CheckLevel() CheckLevel { return c.checkLevel }

func (c *Context) SetCheckLevel(level CheckLevel) {
	if !level.valid() { // Checked unconditionally; the level gates checks.
		c.fault(ErrUsage, "context check level must be concrete, got %v", level)
	}
	c.checkLevel = level
}

// NumberOfThreads is a hint for how many goroutines
// computation-heavy callers may use.
func (c *Context) NumberOfThreads() int { return c.threads }

func (c *Context) SetNumberOfThreads(n int) {
	c.CheckUsage(n > 0, "number of threads must be positive, got %d", n)
	c.threads = max(n, 1)
}

// ShowLeaks reports whether [Context.Shutdown] logs live objects.
func (c *Context) ShowLeaks() bool { return c.showLeaks }

func (c *Context) SetShowLeaks(show bool) { c.showLeaks = show }

func (c *Context) Logger() *slog.Logger { return c.logger }

// SetLogger replaces the logger. A nil logger discards output.
func (c *Context) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c.logger = logger
}

// IfLog reports whether messages of level are emitted.
func (c *Context) IfLog(level LogLevel) bool {
	return enabled(level, c.logLevel)
}

// Log emits msg if level is enabled.
// Arguments are interpreted as in [slog.Logger.Log].
func (c *Context) Log(level LogLevel, msg string, args ...any) {
	if c.IfLog(level) {
		c.emit(level, msg, args...)
	}
}

func (c *Context) emit(level LogLevel, msg string, args ...any) {
	if len(c.scopes) != 0 {
		args = append(args, "scope", c.scopeAttr())
	}
	c.logger.Log(context.Background(), level.slogLevel(), msg, args...)
}

func enabled(level, threshold LogLevel) bool {
	return level > Silent && threshold >= level
}

// IfCheck reports whether checks of level run.
func (c *Context) IfCheck(level CheckLevel) bool {
	return checksCompiled && c.checkLevel >= level
}

// CheckUsage raises an [ErrUsage] fault if cond is false
// and usage checks are enabled.
func (c *Context) CheckUsage(cond bool, format string, args ...any) {
	if !cond && c.IfCheck(Usage) {
		c.fault(ErrUsage, format, args...)
	}
}

// CheckInternal raises an [ErrInternal] fault if cond is false
// and internal checks are enabled.
func (c *Context) CheckInternal(cond bool, format string, args ...any) {
	if !cond && c.IfCheck(UsageAndInternal) {
		c.fault(ErrInternal, format, args...)
	}
}

// uniqueName expands the `%1%` placeholder of template with the
// number of names previously generated from the same template.
func (c *Context) uniqueName(template string) string {
	const placeholder = "%1%"
	if !strings.Contains(template, placeholder) {
		return template
	}
	c.mu.Lock()
	n := c.names[template]
	c.names[template] = n + 1
	c.mu.Unlock()
	return strings.ReplaceAll(template, placeholder, fmt.Sprint(n))
}

func (c *Context) register(e *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serial++
	c.created++
	e.serial = c.serial
	if checksCompiled {
		c.live[e] = struct{}{}
	}
}

func (c *Context) deregister(e *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed++
	delete(c.live, e)
}

// Counts returns the lifetime counters of c.
func (c *Context) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counts{
		Live:      c.created - c.destroyed,
		Created:   c.created,
		Destroyed: c.destroyed,
	}
}

// LiveObjects returns the objects registered with c that were
// not yet destroyed, ordered by creation.
// The registry is only maintained in checked builds.
func (c *Context) LiveObjects() []Object {
	c.mu.Lock()
	entities := make([]*Entity, 0, len(c.live))
	for e := range c.live {
		entities = append(entities, e)
	}
	c.mu.Unlock()
	slices.SortFunc(entities, func(a, b *Entity) int {
		return cmp.Compare(a.serial, b.serial)
	})
	objects := make([]Object, len(entities))
	for i, e := range entities {
		objects[i] = e.self
	}
	return objects
}

// LiveObjectNames is like [Context.LiveObjects] but returns names.
func (c *Context) LiveObjectNames() []string {
	objects := c.LiveObjects()
	names := make([]string, len(objects))
	for i, object := range objects {
		names[i] = object.entity().name
	}
	return names
}

// Shutdown reports leaked objects (if [Context.ShowLeaks])
// and returns how many objects are still alive.
func (c *Context) Shutdown() int {
	objects := c.LiveObjects()
	if len(objects) == 0 || !c.showLeaks {
		return len(objects)
	}
	c.Log(Warning, "objects not deleted at shutdown", "count", len(objects))
	for _, object := range objects {
		e := object.entity()
		c.Log(Warning, "leaked object",
			"name", e.name,
			"id", e.id,
			"refs", e.refs,
		)
	}
	return len(objects)
}

// LiveObjects calls [Context.LiveObjects] on the process context.
func LiveObjects() []Object { return process.LiveObjects() }

// LiveObjectNames calls [Context.LiveObjectNames] on the process context.
func LiveObjectNames() []string { return process.LiveObjectNames() }

// Shutdown calls [Context.Shutdown] on the process context.
func Shutdown() int { return process.Shutdown() }

// IfCheck calls [Context.IfCheck] on the process context.
func IfCheck(level CheckLevel) bool { return process.IfCheck(level) }

// IfLog calls [Context.IfLog] on the process context.
func IfLog(level LogLevel) bool { return process.IfLog(level) }

// CheckUsage calls [Context.CheckUsage] on the process context.
func CheckUsage(cond bool, format string, args ...any) {
	process.CheckUsage(cond, format, args...)
}

// CheckInternal calls [Context.CheckInternal] on the process context.
func CheckInternal(cond bool, format string, args ...any) {
	process.CheckInternal(cond, format, args...)
}
