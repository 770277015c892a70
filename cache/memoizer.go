package cache

import "github.com/djdv/go-managed"

// Memoizer caches the single result of a generator.
// Concurrent access must be guarded by the caller.
// Constructed by [NewMemoizer].
type Memoizer[Value any] struct {
	generate func() Value
	equal    func(a, b Value) bool
	value    Value
	held     retained
	has      bool
	stats    Stats
}

// NewMemoizer creates a [Memoizer] for generate.
//
// When internal checks are enabled ([managed.UsageAndInternal]),
// every access regenerates the value and compares it with the
// cached one using equal; a mismatch is an internal error.
// A nil equal disables that validation.
func NewMemoizer[Value any](generate func() Value, equal func(a, b Value) bool) *Memoizer[Value] {
	managed.CheckUsage(generate != nil, "memoizer requires a generator")
	return &Memoizer[Value]{
		generate: generate,
		equal:    equal,
	}
}

// Get returns the cached value, generating it on first use
// or after [Memoizer.Reset].
func (m *Memoizer[Value]) Get() Value {
	if !m.has {
		m.stats.Misses++
		m.stats.Generations++
		m.store(m.generate())
		return m.value
	}
	m.stats.Hits++
	m.validate("cached")
	return m.value
}

// Set installs value as the cached result.
func (m *Memoizer[Value]) Set(value Value) {
	m.store(value)
	m.validate("installed")
}

// Reset drops the cached value.
func (m *Memoizer[Value]) Reset() {
	m.held.release()
	var zero Value
	m.value, m.held, m.has = zero, nil, false
}

// Close releases the cached value; it is equivalent to [Memoizer.Reset].
func (m *Memoizer[Value]) Close() { m.Reset() }

// HasResult reports whether a value is cached.
func (m *Memoizer[Value]) HasResult() bool { return m.has }

func (m *Memoizer[Value]) Stats() Stats {
	stats := m.stats
	if m.has {
		stats.Entries = 1
	}
	return stats
}

func (m *Memoizer[Value]) store(value Value) {
	held := retain(value) // value may be the one already cached.
	m.held.release()
	m.value, m.held, m.has = value, held, true
}

func (m *Memoizer[Value]) validate(what string) {
	if m.equal == nil ||
		!managed.IfCheck(managed.UsageAndInternal) {
		return
	}
	m.stats.Generations++
	fresh := m.generate()
	defer discard(fresh)
	managed.CheckInternal(m.equal(m.value, fresh),
		"%s memoized value %v does not match the generator's %v",
		what, m.value, fresh)
}
