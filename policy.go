package managed

type (
	// Policy selects what a [Handle] does when it attaches to,
	// detaches from, or dereferences an object.
	// The implementations are [Owning], [OwningUsed], [Weak]
	// and [CheckedWeak].
	Policy interface {
		attach(*Entity)
		detach(*Entity)
		check(*Entity)
		owning() bool
	}
	// Owning handles take a reference on attach and drop it on detach.
	Owning struct{}
	// OwningUsed is like [Owning] but also marks the object as used.
	// It is meant for handles stored as members of other objects.
	OwningUsed struct{}
	// Weak handles observe an object without affecting its lifetime
	// and without validating it. Use them to break reference cycles.
	Weak struct{}
	// CheckedWeak is like [Weak] but validates the object
	// on attach and on dereference.
	CheckedWeak struct{}
)

func (Owning) attach(e *Entity) { e.Ref() }
func (Owning) detach(e *Entity) { e.Unref() }
func (Owning) check(e *Entity)  { e.validate() }
func (Owning) owning() bool     { return true }

func (OwningUsed) attach(e *Entity) {
	e.Ref()
	e.wasUsed = true
}
func (OwningUsed) detach(e *Entity) { e.Unref() }
func (OwningUsed) check(e *Entity)  { e.validate() }
func (OwningUsed) owning() bool     { return true }

func (Weak) attach(*Entity) {}
func (Weak) detach(*Entity) {}
func (Weak) check(*Entity)  {}
func (Weak) owning() bool   { return false }

func (CheckedWeak) attach(e *Entity) { e.validate() }
func (CheckedWeak) detach(*Entity)   {}
func (CheckedWeak) check(e *Entity)  { e.validate() }
func (CheckedWeak) owning() bool     { return false }
