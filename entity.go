package managed

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

type (
	// Object is implemented by every type that embeds an [Entity].
	// Application code holds objects through [Handle]s.
	Object interface {
		entity() *Entity
		// ClearCaches resets internal caches to their just-constructed state.
		// [Entity] provides a no-op; embedding types may override it.
		ClearCaches()
	}
	// Destroyer is implemented by objects that must release resources
	// (typically member handles) when they are destroyed.
	// Errors and panics from Destroy are logged, never propagated.
	Destroyer interface {
		Destroy() error
	}
	// Entity is the reference-counted base of managed objects.
	// It must be embedded by value and initialized with [Init]
	// by the embedding type's constructor.
	// Entities must not be copied.
	//
	// Reference counts are plain integers; concurrent access
	// must be guarded by the caller.
	Entity struct {
		_          noCopy
		ctx        *Context
		self       Object
		id         uuid.UUID
		serial     uint64
		name       string
		refs       int
		sentinel   sentinel
		owned      bool
		wasUsed    bool
		logLevel   LogLevel
		checkLevel CheckLevel
	}
	sentinel uint32
	// noCopy may be embedded into structs which must not be copied
	// after first use. See go vet's copylocks check.
	noCopy struct{}
)

const (
	uninitialized sentinel = 0
	alive         sentinel = 0x0b1ec7ed
	destroyed     sentinel = 0xdeadbeef
)

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Init initializes the [Entity] embedded in obj within the process
// [Context]. See [Context.Init].
func Init(obj Object, name string) { process.Init(obj, name) }

// Init initializes the [Entity] embedded in obj.
// The first occurrence of `%1%` in name is replaced by a counter
// which is distinct for every object created from the same name.
// The object starts unowned, with a reference count of 0.
func (c *Context) Init(obj Object, name string) {
	e := entityOf(obj)
	if e == nil {
		c.fault(ErrUsage, "cannot initialize a nil object")
	}
	if e.sentinel != uninitialized {
		c.fault(ErrUsage, "object %q is already initialized", e.name)
	}
	*e = Entity{
		ctx:        c,
		self:       obj,
		id:         uuid.New(),
		name:       c.uniqueName(name),
		sentinel:   alive,
		logLevel:   InheritLogLevel,
		checkLevel: InheritCheckLevel,
	}
	c.register(e)
	e.Log(Memory, "created")
}

// entityOf returns nil for nil interfaces and nil pointers.
func entityOf[T Object](obj T) *Entity {
	if any(obj) == nil {
		return nil
	}
	if value := reflect.ValueOf(obj); value.Kind() == reflect.Pointer &&
		value.IsNil() {
		return nil
	}
	return obj.entity()
}

func (e *Entity) entity() *Entity { return e }

// ClearCaches is a no-op.
func (e *Entity) ClearCaches() { e.validate() }

// ClearCaches calls obj's ClearCaches method,
// which may be overridden by the embedding type.
func ClearCaches(obj Object) {
	obj.entity().validate()
	obj.ClearCaches()
}

// validate panics with [ErrFatal] unless e is alive.
func (e *Entity) validate() {
	switch e.sentinel {
	case alive:
		return
	case destroyed:
		e.ctx.fault(ErrFatal, "object %q was used after it was destroyed", e.name)
	default:
		process.fault(ErrFatal, "object was used before Init")
	}
}

// IsValid reports whether the entity is initialized and not destroyed.
// Unlike other methods it may be called at any time.
func (e *Entity) IsValid() bool { return e.sentinel == alive }

// Ref takes a reference, making the object owned.
func (e *Entity) Ref() {
	e.validate()
	e.refs++
	e.owned = true
	e.Log(Memory, "ref", "refs", e.refs)
}

// Unref drops a reference; the object is destroyed when
// the count reaches zero.
func (e *Entity) Unref() {
	e.validate()
	e.checkInternal(e.refs > 0,
		"unref of %q whose reference count is already zero", e.name)
	if e.refs <= 0 {
		return
	}
	e.refs--
	e.Log(Memory, "unref", "refs", e.refs)
	if e.refs == 0 {
		e.destroy()
	}
}

// Release drops a reference without destroying the object,
// even if the count reaches zero. The caller is expected to hand
// the object to a new owner immediately.
func (e *Entity) Release() {
	e.validate()
	e.checkInternal(e.refs > 0,
		"release of %q whose reference count is already zero", e.name)
	if e.refs <= 0 {
		return
	}
	e.refs--
	e.Log(Memory, "release", "refs", e.refs)
}

// RefCount returns the number of owning references.
func (e *Entity) RefCount() int {
	e.validate()
	return e.refs
}

// IsOwned reports whether a reference was ever taken.
func (e *Entity) IsOwned() bool {
	e.validate()
	return e.owned
}

func (e *Entity) Name() string {
	e.validate()
	return e.name
}

func (e *Entity) SetName(name string) {
	e.validate()
	e.name = name
}

// ID is a random identifier, distinct across processes.
func (e *Entity) ID() uuid.UUID {
	e.validate()
	return e.id
}

// Serial is the creation order of the object within its [Context].
func (e *Entity) Serial() uint64 {
	e.validate()
	return e.serial
}

func (e *Entity) String() string {
	if !e.IsValid() {
		return fmt.Sprintf("<invalid object %q>", e.name)
	}
	return fmt.Sprintf("%q(refs=%d)", e.name, e.refs)
}

// SetWasUsed marks whether the object was consumed;
// objects destroyed unused are reported at [Terse] level.
func (e *Entity) SetWasUsed(used bool) {
	e.validate()
	e.wasUsed = used
}

func (e *Entity) WasUsed() bool {
	e.validate()
	return e.wasUsed
}

// LogLevel returns the effective log level of the object.
func (e *Entity) LogLevel() LogLevel {
	e.validate()
	if e.logLevel == InheritLogLevel {
		return e.ctx.logLevel
	}
	return e.logLevel
}

// SetLogLevel overrides the log level for this object only;
// [InheritLogLevel] removes the override.
func (e *Entity) SetLogLevel(level LogLevel) {
	e.validate()
	e.ctx.CheckUsage(level == InheritLogLevel || level.valid(),
		"invalid log level %d", level)
	e.logLevel = level
}

// CheckLevel returns the effective check level of the object.
func (e *Entity) CheckLevel() CheckLevel {
	e.validate()
	if e.checkLevel == InheritCheckLevel {
		return e.ctx.checkLevel
	}
	return e.checkLevel
}

// SetCheckLevel overrides the check level for this object only;
// [InheritCheckLevel] removes the override.
func (e *Entity) SetCheckLevel(level CheckLevel) {
	e.validate()
	if level != InheritCheckLevel && !level.valid() {
		e.ctx.fault(ErrUsage, "invalid check level %d", level)
	}
	e.checkLevel = level
}

// IfCheck reports whether checks of level run for this object.
func (e *Entity) IfCheck(level CheckLevel) bool {
	return checksCompiled && e.CheckLevel() >= level
}

// IfLog reports whether messages of level are emitted for this object.
func (e *Entity) IfLog(level LogLevel) bool {
	return enabled(level, e.LogLevel())
}

// Log emits msg, tagged with the object's name, if level
// is enabled for the object.
func (e *Entity) Log(level LogLevel, msg string, args ...any) {
	if e.IfLog(level) {
		e.ctx.emit(level, msg, append([]any{"object", e.name}, args...)...)
	}
}

func (e *Entity) checkUsage(cond bool, format string, args ...any) {
	if !cond && e.IfCheck(Usage) {
		e.ctx.fault(ErrUsage, format, args...)
	}
}

func (e *Entity) checkInternal(cond bool, format string, args ...any) {
	if !cond && e.IfCheck(UsageAndInternal) {
		e.ctx.fault(ErrInternal, format, args...)
	}
}

// Destroy destroys an object which is not owned by any handle,
// such as one that was never wrapped or whose last handle was released.
func Destroy(obj Object) {
	e := entityOf(obj)
	if e == nil {
		process.fault(ErrUsage, "cannot destroy a nil object")
	}
	e.validate()
	e.checkUsage(e.refs == 0,
		"object %q still has %d references", e.name, e.refs)
	if e.refs != 0 {
		return
	}
	e.destroy()
}

func (e *Entity) destroy() {
	if !e.wasUsed {
		e.Log(Terse, "destroyed without being used")
	}
	e.Log(Memory, "destroying")
	if destroyer, ok := e.self.(Destroyer); ok {
		e.runDestroy(destroyer)
	}
	e.sentinel = destroyed
	e.ctx.deregister(e)
}

func (e *Entity) runDestroy(destroyer Destroyer) {
	defer func() {
		if recovered := recover(); recovered != nil {
			e.ctx.Log(Warning, "panic while destroying object",
				"object", e.name,
				"panic", recovered,
			)
		}
	}()
	if err := destroyer.Destroy(); err != nil {
		e.ctx.Log(Warning, "error while destroying object",
			"object", e.name,
			"error", err,
		)
	}
}
