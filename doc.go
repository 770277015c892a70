// Package managed implements deterministic, reference-counted object
// lifetimes with leak detection, validity checking and scoped
// overrides of process-wide state.
//
// Managed types embed an [Entity] and initialize it with [Init].
// Application code holds them exclusively through [Handle]s;
// the handle's [Policy] decides what attaching and detaching do.
// When the last owning handle detaches, the object is destroyed:
// its [Destroyer] hook runs, it is removed from the live registry
// and any further use of it is a fatal error.
//
// Glossary and invariants:
//
//   - Entity
//
//     The reference-counted base. The count starts at 0 ("unowned").
//     It never goes negative; once owned, reaching 0 destroys the object.
//
//   - Owning handle ([Pointer], [PointerMember])
//
//     Takes a reference on attach and drops it on detach.
//     [Handle.Release] hands the object back without destroying it.
//
//   - Weak handle ([WeakPointer], [UncheckedWeakPointer])
//
//     Observes without affecting lifetime. Back-references between
//     objects must be weak, otherwise the objects form a cycle
//     that is never destroyed.
//
//   - Guard
//
//     Overrides a piece of ambient state (log level, check level,
//     thread count, leak reporting, logger; or an object's local
//     levels) and restores the previous value on [Guard.Reset].
//
//   - Live registry
//
//     Every initialized object of a [Context] until it is destroyed.
//     [Context.Shutdown] reports the survivors as leaks.
//
// Checks:
//
//   - Usage
//
//     Caller errors: dereferencing or releasing a null handle,
//     releasing a weak handle, assigning a non-zero integer to a handle.
//
//   - Internal
//
//     Broken invariants: reference count underflow, memoized values
//     which no longer match their generator.
//
//   - Fatal
//
//     Use of an object after it was destroyed (or before [Init]).
//
// Usage and internal checks are enabled at runtime by [CheckLevel]
// and removed entirely by building with the managed_fast tag.
// Fatal checks are always active. Failed checks panic with a [*CheckError].
//
// Nothing here is safe for concurrent use: reference counts,
// handles and levels must be accessed from one goroutine at a time.
package managed
