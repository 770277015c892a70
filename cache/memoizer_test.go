package cache_test

import (
	"testing"

	"github.com/djdv/go-managed/cache"
)

func TestMemoizer(t *testing.T) {
	t.Run("single generation", singleGeneration)
	t.Run("reset", resetMemoizer)
	t.Run("set", setMemoizer)
	t.Run("managed value", memoizedObject)
}

func singleGeneration(t *testing.T) {
	var (
		calls    int
		memoizer = cache.NewMemoizer(func() int {
			calls++
			return 42
		}, nil)
	)
	if memoizer.HasResult() {
		t.Fatal("fresh memoizer has a result")
	}
	for range 3 {
		checkValue(t, memoizer.Get(), 42, "from the memoizer")
	}
	checkValue(t, calls, 1, "generator calls")
	stats := memoizer.Stats()
	checkValue(t, stats.Hits, 2, "hits")
	checkValue(t, stats.Misses, 1, "misses")
	checkValue(t, stats.Entries, 1, "entries")
}

func resetMemoizer(t *testing.T) {
	var (
		calls    int
		memoizer = cache.NewMemoizer(func() int {
			calls++
			return calls
		}, nil)
	)
	checkValue(t, memoizer.Get(), 1, "before reset")
	memoizer.Reset()
	if memoizer.HasResult() {
		t.Fatal("reset memoizer has a result")
	}
	checkValue(t, memoizer.Get(), 2, "after reset")
	checkValue(t, memoizer.Get(), 2, "after regenerating")
}

func setMemoizer(t *testing.T) {
	memoizer := cache.NewMemoizer(func() int { return 42 }, equal[int])
	memoizer.Set(42)
	if !memoizer.HasResult() {
		t.Fatal("installed value is not a result")
	}
	checkValue(t, memoizer.Get(), 42, "after installing a value")
	checkValue(t, memoizer.Stats().Misses, 0, "misses")
}

func memoizedObject(t *testing.T) {
	var (
		destroyed int
		memoizer  = cache.NewMemoizer(func() *shape {
			return newShape(1, &destroyed)
		}, nil)
	)
	object := memoizer.Get()
	checkValue(t, object.RefCount(), 1, "references held by the memoizer")
	memoizer.Set(object) // Reinstalling the cached value keeps it alive.
	checkValue(t, destroyed, 0, "destructions after reinstalling")
	memoizer.Close()
	checkValue(t, destroyed, 1, "destructions after closing")
}
