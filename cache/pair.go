package cache

import (
	"iter"
	"slices"

	"github.com/djdv/go-managed"
)

type (
	// Pair is an entry of a [PairMemoizer]: a value
	// for the unordered pair of keys {A, B}.
	Pair[Key comparable, Value any] struct {
		A, B  Key
		Value Value
	}
	// PairGenerator produces the entries involving any of the
	// cleared keys. Each unordered pair must be produced once,
	// in either orientation.
	PairGenerator[Key comparable, Value any] func(
		cleared []Key, memoizer *PairMemoizer[Key, Value],
	) []Pair[Key, Value]
	// PairMemoizer lazily maintains a sparse, symmetric relation
	// over a domain of keys. Removing a key drops every entry which
	// mentions it; the next access regenerates exactly those entries.
	// Concurrent access must be guarded by the caller.
	// Constructed by [NewPairMemoizer].
	PairMemoizer[Key comparable, Value any] struct {
		entries           map[pairKey[Key]]*pairEntry[Key, Value]
		byFirst, bySecond map[Key]map[pairKey[Key]]struct{}
		domain            []Key
		inDomain          map[Key]struct{}
		cleared           []Key
		isCleared         map[Key]struct{}
		generate          PairGenerator[Key, Value]
		equal             func(a, b Value) bool
		stats             Stats
	}
	pairKey[Key comparable] struct {
		a, b Key
	}
	pairEntry[Key comparable, Value any] struct {
		pair Pair[Key, Value]
		held retained
	}
)

// NewPairMemoizer creates a [PairMemoizer] over domain.
// Every key starts cleared, so the first access generates
// the whole relation.
//
// With internal checks enabled, each fill rejects entries whose
// flipped orientation is already present, and the cached relation
// is compared with a full regeneration using equal (which may be nil).
func NewPairMemoizer[Key comparable, Value any](
	domain []Key, generate PairGenerator[Key, Value], equal func(a, b Value) bool,
) *PairMemoizer[Key, Value] {
	managed.CheckUsage(generate != nil, "pair memoizer requires a generator")
	m := &PairMemoizer[Key, Value]{
		entries:  make(map[pairKey[Key]]*pairEntry[Key, Value]),
		byFirst:  make(map[Key]map[pairKey[Key]]struct{}),
		bySecond: make(map[Key]map[pairKey[Key]]struct{}),
		domain:   slices.Clone(domain),
		inDomain: make(map[Key]struct{}, len(domain)),
		generate: generate,
		equal:    equal,
	}
	for _, key := range domain {
		m.inDomain[key] = struct{}{}
	}
	m.clearAll()
	return m
}

// Apply calls f on every entry, regenerating cleared entries first.
// f must not modify m.
func (m *PairMemoizer[Key, Value]) Apply(f func(Pair[Key, Value])) {
	for pair := range m.All() {
		f(pair)
	}
}

// All returns an iterator over every entry,
// regenerating cleared entries first.
// The iterator must not be used while m is modified.
func (m *PairMemoizer[Key, Value]) All() iter.Seq[Pair[Key, Value]] {
	m.fill()
	return func(yield func(Pair[Key, Value]) bool) {
		for _, entry := range m.entries {
			if !yield(entry.pair) {
				return
			}
		}
	}
}

// Get returns the entry for the unordered pair {a, b}
// in whichever orientation it is stored.
func (m *PairMemoizer[Key, Value]) Get(a, b Key) (Pair[Key, Value], bool) {
	m.fill()
	if entry, ok := m.lookup(a, b); ok {
		m.stats.Hits++
		return entry.pair, true
	}
	m.stats.Misses++
	return Pair[Key, Value]{}, false
}

func (m *PairMemoizer[Key, Value]) lookup(a, b Key) (*pairEntry[Key, Value], bool) {
	if entry, ok := m.entries[pairKey[Key]{a, b}]; ok {
		return entry, true
	}
	entry, ok := m.entries[pairKey[Key]{b, a}]
	return entry, ok
}

// Insert stores pair, replacing an entry with the same orientation.
// Storing both orientations of a pair is an internal error;
// with internal checks disabled, the new orientation replaces the old.
func (m *PairMemoizer[Key, Value]) Insert(pair Pair[Key, Value]) {
	_, hasA := m.inDomain[pair.A]
	_, hasB := m.inDomain[pair.B]
	managed.CheckUsage(hasA && hasB,
		"pair {%v, %v} is not within the domain", pair.A, pair.B)
	m.add(pair)
}

func (m *PairMemoizer[Key, Value]) add(pair Pair[Key, Value]) {
	var (
		key  = pairKey[Key]{pair.A, pair.B}
		flip = pairKey[Key]{pair.B, pair.A}
	)
	if key != flip {
		_, flipped := m.entries[flip]
		managed.CheckInternal(!flipped,
			"pair {%v, %v} is stored in both orientations", pair.A, pair.B)
		m.removeEntry(flip)
	}
	held := retain(pair.A, pair.B, pair.Value)
	m.removeEntry(key)
	m.entries[key] = &pairEntry[Key, Value]{pair: pair, held: held}
	index(m.byFirst, pair.A, key)
	index(m.bySecond, pair.B, key)
}

func index[Key comparable](by map[Key]map[pairKey[Key]]struct{}, side Key, key pairKey[Key]) {
	set, ok := by[side]
	if !ok {
		set = make(map[pairKey[Key]]struct{})
		by[side] = set
	}
	set[key] = struct{}{}
}

func unindex[Key comparable](by map[Key]map[pairKey[Key]]struct{}, side Key, key pairKey[Key]) {
	set := by[side]
	delete(set, key)
	if len(set) == 0 {
		delete(by, side)
	}
}

func (m *PairMemoizer[Key, Value]) removeEntry(key pairKey[Key]) {
	entry, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	unindex(m.byFirst, key.a, key)
	unindex(m.bySecond, key.b, key)
	entry.held.release()
}

// Remove drops every entry mentioning key and marks key cleared,
// so that the next access regenerates them. Removing a cleared
// key again has no further effect.
func (m *PairMemoizer[Key, Value]) Remove(key Key) {
	_, ok := m.inDomain[key]
	managed.CheckUsage(ok, "key %v is not within the domain", key)
	stored := len(m.entries)
	for _, by := range []map[Key]map[pairKey[Key]]struct{}{m.byFirst, m.bySecond} {
		for stale := range by[key] {
			m.removeEntry(stale)
		}
	}
	if _, ok := m.isCleared[key]; !ok {
		m.isCleared[key] = struct{}{}
		m.cleared = append(m.cleared, key)
	}
	m.stats.Evictions += uint64(stored - len(m.entries))
}

// Clear drops every entry and marks the whole domain cleared.
func (m *PairMemoizer[Key, Value]) Clear() {
	m.clearAll()
}

// Close releases every entry; it is equivalent to [PairMemoizer.Clear].
func (m *PairMemoizer[_, _]) Close() { m.Clear() }

func (m *PairMemoizer[Key, Value]) clearAll() {
	entries := m.entries
	m.entries = make(map[pairKey[Key]]*pairEntry[Key, Value], len(entries))
	clear(m.byFirst)
	clear(m.bySecond)
	m.cleared = slices.Clone(m.domain)
	m.isCleared = make(map[Key]struct{}, len(m.domain))
	for _, key := range m.domain {
		m.isCleared[key] = struct{}{}
	}
	for _, entry := range entries {
		entry.held.release()
	}
}

// Cleared returns the keys whose entries will be regenerated.
func (m *PairMemoizer[Key, _]) Cleared() []Key { return slices.Clone(m.cleared) }

// Domain returns the keys participating in the relation.
func (m *PairMemoizer[Key, _]) Domain() []Key { return slices.Clone(m.domain) }

// Len returns the number of stored entries without regenerating.
func (m *PairMemoizer[_, _]) Len() int { return len(m.entries) }

func (m *PairMemoizer[_, _]) Stats() Stats {
	stats := m.stats
	stats.Entries = len(m.entries)
	return stats
}

// fill regenerates the entries of cleared keys.
// The keys are detached first so that generators may query m.
// If generation fails, they are cleared again.
func (m *PairMemoizer[Key, Value]) fill() {
	if len(m.cleared) == 0 {
		return
	}
	var (
		cleared   = m.cleared
		generated []Pair[Key, Value]
		filled    bool
	)
	m.cleared = nil
	clear(m.isCleared)
	defer func() {
		if filled {
			return
		}
		for _, pair := range generated {
			discard(pair.Value)
		}
		for _, key := range cleared {
			m.Remove(key)
		}
	}()
	m.stats.Generations++
	generated = m.generate(cleared, m)
	if managed.IfCheck(managed.UsageAndInternal) {
		checkOrientations(generated)
	}
	for _, pair := range generated {
		m.add(pair)
	}
	filled = true
	if managed.IfCheck(managed.UsageAndInternal) {
		m.validate()
	}
}

func checkOrientations[Key comparable, Value any](pairs []Pair[Key, Value]) {
	seen := make(map[pairKey[Key]]struct{}, len(pairs))
	for _, pair := range pairs {
		var (
			key  = pairKey[Key]{pair.A, pair.B}
			flip = pairKey[Key]{pair.B, pair.A}
		)
		_, dup := seen[key]
		_, flipped := seen[flip]
		managed.CheckInternal(!dup && (!flipped || key == flip),
			"generator produced pair {%v, %v} more than once", pair.A, pair.B)
		seen[key] = struct{}{}
	}
}

// validate compares the cached relation with a full regeneration.
func (m *PairMemoizer[Key, Value]) validate() {
	m.stats.Generations++
	fresh := m.generate(slices.Clone(m.domain), m)
	defer func() {
		for _, pair := range fresh {
			discard(pair.Value)
		}
	}()
	managed.CheckInternal(len(fresh) == len(m.entries),
		"cached relation has %d entries, the generator produces %d",
		len(m.entries), len(fresh))
	for _, pair := range fresh {
		cached, ok := m.lookup(pair.A, pair.B)
		managed.CheckInternal(ok,
			"pair {%v, %v} is missing from the cache", pair.A, pair.B)
		if !ok || m.equal == nil {
			continue
		}
		managed.CheckInternal(m.equal(cached.pair.Value, pair.Value),
			"cached value %v for pair {%v, %v} does not match the generator's %v",
			cached.pair.Value, pair.A, pair.B, pair.Value)
	}
}
