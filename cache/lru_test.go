package cache_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/cache"
)

func TestLRUCache(t *testing.T) {
	t.Run("invalid capacity", invalidCapacity)
	t.Run("eviction order", evictionOrder)
	t.Run("hits", hits)
	t.Run("recency", recency)
	t.Run("insert", insert)
	t.Run("recursive generator", recursiveGenerator)
	t.Run("recursive insert", recursiveInsert)
	t.Run("managed values", managedValues)
	t.Run("entries are used", usedEntries)
	t.Run("redundant managed insert", redundantManagedInsert)
	t.Run("clear", clearLRU)
}

func tenfold(key int, _ *cache.LRUCache[int, int]) int { return key * 10 }

func invalidCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0} {
		t.Run(fmt.Sprintf("%d", capacity), func(t *testing.T) {
			t.Parallel()
			lru, err := cache.NewLRUCache(tenfold, nil, capacity)
			if lru != nil || !errors.Is(err, cache.ErrInvalidCapacity) {
				t.Errorf(
					"NewLRUCache did not reject capacity %d: %v",
					capacity, err,
				)
			}
		})
	}
}

func evictionOrder(t *testing.T) {
	var (
		calls    int
		generate = func(key int, lru *cache.LRUCache[int, int]) int {
			calls++
			return tenfold(key, lru)
		}
		lru = newLRU(t, generate, 2)
	)
	for _, key := range []int{1, 2, 1, 3} {
		checkValue(t, lru.Get(key), key*10, fmt.Sprintf("for key %d", key))
	}
	checkSize(t, lru.Len(), 2, "after overflowing")
	checkKeys(t, lru.Keys(), []int{3, 1}, "after evicting the least recently used key")
	checkValue(t, calls, 3, "generator calls")
	if lru.Contains(2) {
		t.Fatal("least recently used key was not evicted")
	}
	stats := lru.Stats()
	checkValue(t, stats.Hits, 1, "hits")
	checkValue(t, stats.Misses, 3, "misses")
	checkValue(t, stats.Evictions, 1, "evictions")
	checkValue(t, stats.Entries, 2, "entries")
}

func hits(t *testing.T) {
	var (
		calls    int
		generate = func(key int, lru *cache.LRUCache[int, int]) int {
			calls++
			return tenfold(key, lru)
		}
		lru = newLRU(t, generate, cache.MinimumCapacity)
	)
	for range 3 {
		checkValue(t, lru.Get(7), 70, "for a repeated key")
	}
	checkValue(t, calls, 1, "generator calls")
	checkValue(t, lru.HitRate(), 2.0/3.0, "hit rate")
	checkValue(t, lru.MaxSize(), cache.MinimumCapacity, "maximum size")
}

func recency(t *testing.T) {
	lru := newLRU(t, tenfold, 3)
	for _, key := range []int{1, 2, 3} {
		lru.Get(key)
	}
	checkKeys(t, lru.Keys(), []int{3, 2, 1}, "after filling")
	lru.Contains(1) // Does not refresh.
	lru.Get(4)
	checkKeys(t, lru.Keys(), []int{4, 3, 2}, "after a miss")
	lru.Get(2)
	checkKeys(t, lru.Keys(), []int{2, 4, 3}, "after a hit")
}

func insert(t *testing.T) {
	lru := newLRU(t, tenfold, 2)
	lru.Insert(1, 10)
	lru.Insert(1, 99) // Already cached; ignored.
	checkValue(t, lru.Get(1), 10, "after a redundant insert")
	lru.Insert(2, 20)
	lru.Insert(3, 30)
	checkKeys(t, lru.Keys(), []int{3, 2}, "after inserting past capacity")
	checkValue(t, lru.Stats().Generations, 0, "generations")
}

func recursiveGenerator(t *testing.T) {
	var (
		calls     int
		fibonacci cache.Generator[int, uint64]
	)
	fibonacci = func(n int, lru *cache.LRUCache[int, uint64]) uint64 {
		calls++
		if n < 2 {
			return uint64(n)
		}
		return lru.Get(n-1) + lru.Get(n-2)
	}
	lru := newLRU(t, fibonacci, 100)
	checkValue(t, lru.Get(90), uint64(2880067194370816120), "for fibonacci(90)")
	checkValue(t, calls, 91, "generator calls")
}

func recursiveInsert(t *testing.T) {
	var (
		destroyed int
		generate  = func(key int, lru *cache.LRUCache[int, *shape]) *shape {
			lru.Insert(key, newShape(key, &destroyed))
			return newShape(key, &destroyed)
		}
		lru = newLRU(t, generate, 2)
	)
	first := lru.Get(1)
	checkValue(t, destroyed, 1, "destructions of the superseded value")
	checkValue(t, lru.Get(1), first, "after the generator inserted its own key")
	checkValue(t, first.RefCount(), 1, "references held by the cache")
}

func managedValues(t *testing.T) {
	var (
		destroyed int
		generate  = func(key int, _ *cache.LRUCache[int, *shape]) *shape {
			return newShape(key, &destroyed)
		}
		lru = newLRU(t, generate, 2)
	)
	one := lru.Get(1)
	held := managed.NewPointer(one)
	checkValue(t, one.RefCount(), 2, "references while cached and held")
	lru.Get(2)
	lru.Get(3)
	if !one.IsValid() {
		t.Fatal("evicted value was destroyed while held")
	}
	checkValue(t, destroyed, 0, "destructions after evicting a held value")
	checkValue(t, one.RefCount(), 1, "references after eviction")
	held.Close()
	checkValue(t, destroyed, 1, "destructions after releasing 1")
	lru.Get(4)
	checkValue(t, destroyed, 2, "destructions after evicting 2")
}

func usedEntries(t *testing.T) {
	const unused = "destroyed without being used"
	var (
		log       = captureLog(t, managed.Terse)
		destroyed int
		generate  = func(key int, _ *cache.LRUCache[int, *shape]) *shape {
			return newShape(key, &destroyed)
		}
		lru = newLRU(t, generate, 1)
	)
	lru.Get(1)
	lru.Get(2)
	lru.Close()
	checkValue(t, destroyed, 2, "destructions after evicting and closing")
	checkLogged(t, log, unused, 0)
}

func redundantManagedInsert(t *testing.T) {
	const unused = "destroyed without being used"
	var (
		log       = captureLog(t, managed.Terse)
		destroyed int
		generate  = func(key int, _ *cache.LRUCache[int, *shape]) *shape {
			return newShape(key, &destroyed)
		}
		lru = newLRU(t, generate, 2)
	)
	cached := lru.Get(1)
	lru.Insert(1, newShape(1, &destroyed))
	checkValue(t, destroyed, 1, "destructions after a redundant insert")
	checkLogged(t, log, unused, 1)
	lru.Insert(1, cached)
	checkValue(t, cached.RefCount(), 1, "references after reinserting the cached value")
	checkValue(t, lru.Get(1), cached, "after redundant inserts")
}

func clearLRU(t *testing.T) {
	var (
		destroyed int
		generate  = func(key int, _ *cache.LRUCache[int, *shape]) *shape {
			return newShape(key, &destroyed)
		}
		lru = newLRU(t, generate, 4)
	)
	for key := range 3 {
		lru.Get(key)
	}
	lru.Clear()
	checkSize(t, lru.Len(), 0, "after clearing")
	checkValue(t, destroyed, 3, "destructions after clearing")
	checkValue(t, lru.Stats().Misses, 3, "misses kept across clearing")
	lru.Get(0)
	checkValue(t, lru.Stats().Misses, 4, "misses after clearing")
}
