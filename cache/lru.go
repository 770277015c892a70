package cache

import (
	"iter"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/internal/ring"
)

type (
	// Generator produces the value for key. It may query the
	// cache it belongs to recursively.
	Generator[Key comparable, Value any] func(key Key, cache *LRUCache[Key, Value]) Value
	// LRUCache memoizes a generator for at most a fixed number of keys,
	// evicting the least recently used key on overflow.
	// Concurrent access must be guarded by the caller.
	// Constructed by [NewLRUCache].
	LRUCache[Key comparable, Value any] struct {
		index    map[Key]*element[Key, Value]
		order    ring.List[Key, entry[Value]]
		generate Generator[Key, Value]
		equal    func(a, b Value) bool
		maxSize  int
		stats    Stats
	}
	element[Key comparable, Value any] = ring.Ring[Key, entry[Value]]
	entry[Value any]                   struct {
		value Value
		held  retained
	}
)

// MinimumCapacity defines the lowest size accepted by [NewLRUCache].
const MinimumCapacity = 1

// NewLRUCache creates an [LRUCache] holding at most maxSize entries.
//
// Unlike [Memoizer], hits are never compared against a fresh
// generation: generators of floating point values need not
// reproduce bit-identical results. equal is only used, with
// internal checks enabled, to validate values passed to
// [LRUCache.Insert]. It may be nil.
func NewLRUCache[Key comparable, Value any](
	generate Generator[Key, Value], equal func(a, b Value) bool, maxSize int,
) (*LRUCache[Key, Value], error) {
	if maxSize < MinimumCapacity {
		return nil, minCapacityError(maxSize)
	}
	managed.CheckUsage(generate != nil, "LRU cache requires a generator")
	return &LRUCache[Key, Value]{
		index:    make(map[Key]*element[Key, Value], maxSize),
		generate: generate,
		equal:    equal,
		maxSize:  maxSize,
	}, nil
}

// Get returns the value for key, generating and caching it on a miss.
// Either way key becomes the most recently used entry.
func (c *LRUCache[Key, Value]) Get(key Key) Value {
	if hit, ok := c.index[key]; ok {
		c.stats.Hits++
		c.order.MoveToFront(hit)
		return hit.Value.value
	}
	c.stats.Misses++
	c.stats.Generations++
	value := c.generate(key, c)
	if stored, ok := c.index[key]; ok {
		// A recursive query inserted key while generating it.
		discard(value)
		c.order.MoveToFront(stored)
		return stored.Value.value
	}
	c.add(key, value)
	return value
}

// Insert caches value for key unless key is already cached.
// A value which is not cached is disposed of like a superseded
// generation: managed objects no one else owns are destroyed.
func (c *LRUCache[Key, Value]) Insert(key Key, value Value) {
	if _, ok := c.index[key]; ok {
		discard(value)
		return
	}
	if c.equal != nil &&
		managed.IfCheck(managed.UsageAndInternal) {
		c.stats.Generations++
		fresh := c.generate(key, c)
		defer discard(fresh)
		managed.CheckInternal(c.equal(value, fresh),
			"inserted value %v for key %v does not match the generator's %v",
			value, key, fresh)
		if _, ok := c.index[key]; ok {
			discard(value)
			return
		}
	}
	c.add(key, value)
}

func (c *LRUCache[Key, Value]) add(key Key, value Value) {
	c.index[key] = c.order.PushFront(key, entry[Value]{
		value: value,
		held:  retain(key, value),
	})
	for c.order.Len() > c.maxSize {
		c.evict(c.order.Back())
	}
	managed.CheckInternal(len(c.index) == c.order.Len(),
		"LRU indices disagree: %d keys, %d ordered entries",
		len(c.index), c.order.Len())
}

func (c *LRUCache[Key, Value]) evict(victim *element[Key, Value]) {
	c.order.Remove(victim)
	delete(c.index, victim.Key)
	c.stats.Evictions++
	victim.Value.held.release()
}

// Contains reports whether key is cached,
// without affecting recency or statistics.
func (c *LRUCache[Key, _]) Contains(key Key) bool {
	_, ok := c.index[key]
	return ok
}

// Len returns the number of cached entries.
func (c *LRUCache[_, _]) Len() int { return c.order.Len() }

// MaxSize returns the entry bound given to [NewLRUCache].
func (c *LRUCache[_, _]) MaxSize() int { return c.maxSize }

// Keys returns an iterator over the cached keys,
// from the most to the least recently used.
func (c *LRUCache[Key, _]) Keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for key := range c.order.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// HitRate returns the fraction of lookups served from the cache
// since construction.
func (c *LRUCache[_, _]) HitRate() float64 { return c.Stats().HitRate() }

func (c *LRUCache[_, _]) Stats() Stats {
	stats := c.stats
	stats.Entries = c.order.Len()
	return stats
}

// Clear drops every entry. Statistics are kept.
func (c *LRUCache[Key, Value]) Clear() {
	held := make([]retained, 0, c.order.Len())
	for _, cached := range c.order.All() {
		held = append(held, cached.held)
	}
	c.order.Clear()
	clear(c.index)
	for _, objects := range held {
		objects.release()
	}
}

// Close releases every entry; it is equivalent to [LRUCache.Clear].
func (c *LRUCache[_, _]) Close() { c.Clear() }
