package managed

import (
	"cmp"
	"fmt"
	"unsafe"
)

type (
	// Handle refers to an object of type T according to [Policy] P.
	// The zero value is a null handle.
	//
	// Handles must not be copied; use [Handle.Clone] or [Rebind].
	// Go has no destructors: a handle is "destroyed" by
	// [Handle.Close], typically deferred.
	Handle[P Policy, T Object] struct {
		_      noCopy
		object T
		target *Entity
	}
	// Pointer owns its object.
	Pointer[T Object] = Handle[Owning, T]
	// PointerMember owns its object and marks it as used.
	// Prefer it for handles stored inside other objects.
	PointerMember[T Object] = Handle[OwningUsed, T]
	// WeakPointer observes its object and validates it on use.
	WeakPointer[T Object] = Handle[CheckedWeak, T]
	// UncheckedWeakPointer observes its object without validation.
	UncheckedWeakPointer[T Object] = Handle[Weak, T]
)

// NewHandle returns a handle attached to obj.
// A nil obj yields a null handle.
func NewHandle[P Policy, T Object](obj T) *Handle[P, T] {
	handle := new(Handle[P, T])
	handle.Set(obj)
	return handle
}

// NewPointer returns an owning handle attached to obj.
func NewPointer[T Object](obj T) *Pointer[T] { return NewHandle[Owning](obj) }

// NewPointerMember returns an owning handle which marks obj as used.
func NewPointerMember[T Object](obj T) *PointerMember[T] { return NewHandle[OwningUsed](obj) }

// NewWeakPointer returns a validating, non-owning handle to obj.
func NewWeakPointer[T Object](obj T) *WeakPointer[T] { return NewHandle[CheckedWeak](obj) }

// NewUncheckedWeakPointer returns a non-owning handle to obj.
func NewUncheckedWeakPointer[T Object](obj T) *UncheckedWeakPointer[T] {
	return NewHandle[Weak](obj)
}

// Rebind returns a new handle of policy To which refers to
// the same object as from.
func Rebind[To, From Policy, T Object](from *Handle[From, T]) *Handle[To, T] {
	return NewHandle[To](from.object)
}

// Clone returns a new handle to the same object.
func (h *Handle[P, T]) Clone() *Handle[P, T] { return NewHandle[P](h.object) }

// Set attaches h to obj. The new object is attached before
// the previous one is detached, so h.Set(h.Get()) is safe.
// A nil obj detaches only.
func (h *Handle[P, T]) Set(obj T) {
	var (
		policy P
		target = entityOf(obj)
	)
	if target == nil {
		var zero T
		obj = zero
	} else {
		policy.attach(target)
	}
	previous := h.target
	h.object, h.target = obj, target
	if previous != nil {
		policy.detach(previous)
	}
}

// Assign attaches h to other's object. Self-assignment is safe.
func (h *Handle[P, T]) Assign(other *Handle[P, T]) { h.Set(other.object) }

// AssignInt exists for callers which model null as the integer 0:
// 0 detaches the handle; any other value is a usage error.
func (h *Handle[P, T]) AssignInt(value int) {
	CheckUsage(value == 0,
		"only 0 may be assigned to a handle as an integer, got %d", value)
	if value == 0 {
		h.Reset()
	}
}

// Reset detaches h, leaving it null.
func (h *Handle[P, T]) Reset() {
	var zero T
	h.Set(zero)
}

// Close resets h; it is meant to be deferred.
func (h *Handle[P, T]) Close() { h.Reset() }

// Get returns the object. Dereferencing a null handle is a usage error.
func (h *Handle[P, T]) Get() T {
	CheckUsage(h.target != nil, "dereference of a null %s", h.kind())
	if h.target != nil {
		var policy P
		policy.check(h.target)
	}
	return h.object
}

// Value returns the object (or the zero value)
// without checking anything.
func (h *Handle[P, T]) Value() T { return h.object }

// IsNil reports whether h is null.
func (h *Handle[P, T]) IsNil() bool { return h.target == nil }

// Release detaches h without destroying the object, even if
// h held the last reference, and returns the object.
// Only owning handles may be released.
func (h *Handle[P, T]) Release() T {
	var policy P
	CheckUsage(policy.owning(), "release of a non-owning %s", h.kind())
	CheckUsage(h.target != nil, "release of a null %s", h.kind())
	object, target := h.object, h.target
	var zero T
	h.object, h.target = zero, nil
	if target != nil && policy.owning() {
		target.Release()
	}
	return object
}

// Addr returns the address of the referenced entity, 0 if null.
func (h *Handle[P, T]) Addr() uintptr { return uintptr(unsafe.Pointer(h.target)) }

// Equal reports whether h and other refer to the same object.
func (h *Handle[P, T]) Equal(other *Handle[P, T]) bool { return h.target == other.target }

// Compare orders handles by the address of their objects;
// null handles sort first.
func (h *Handle[P, T]) Compare(other *Handle[P, T]) int {
	return cmp.Compare(h.Addr(), other.Addr())
}

// Less reports whether h orders before other.
func (h *Handle[P, T]) Less(other *Handle[P, T]) bool { return h.Compare(other) < 0 }

func (h *Handle[P, T]) String() string {
	if h.target == nil {
		return "null"
	}
	return h.target.String()
}

func (h *Handle[P, T]) kind() string {
	var policy P
	return fmt.Sprintf("%T handle", policy)
}
