package cache_test

import (
	"slices"
	"testing"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/cache"
)

func TestPairMemoizer(t *testing.T) {
	t.Run("symmetric lookup", symmetricLookup)
	t.Run("remove", removeKey)
	t.Run("regenerate cleared", regenerateCleared)
	t.Run("insert", insertPair)
	t.Run("flipped insert", flippedInsert)
	t.Run("iterate", iteratePairs)
	t.Run("managed values", managedPairs)
	t.Run("failed generation", failedGeneration)
}

// evenSums relates keys whose sum is even, valued by their product.
type evenSums struct {
	calls   int
	cleared [][]int
}

func (g *evenSums) generate(cleared []int, m *cache.PairMemoizer[int, int]) []cache.Pair[int, int] {
	g.calls++
	g.cleared = append(g.cleared, slices.Clone(cleared))
	var (
		domain = m.Domain()
		pairs  []cache.Pair[int, int]
	)
	for i, a := range domain {
		for _, b := range domain[i+1:] {
			if (a+b)%2 != 0 ||
				!(slices.Contains(cleared, a) || slices.Contains(cleared, b)) {
				continue
			}
			pairs = append(pairs, cache.Pair[int, int]{A: a, B: b, Value: a * b})
		}
	}
	return pairs
}

func newPairs(tb testing.TB, domain []int) (*cache.PairMemoizer[int, int], *evenSums) {
	tb.Helper()
	generator := new(evenSums)
	memoizer := cache.NewPairMemoizer(domain, generator.generate, equal[int])
	tb.Cleanup(memoizer.Close)
	return memoizer, generator
}

func mustPair(tb testing.TB, m *cache.PairMemoizer[int, int], a, b, want int) {
	tb.Helper()
	pair, ok := m.Get(a, b)
	if !ok {
		tb.Fatalf("expected an entry for {%d, %d}", a, b)
	}
	checkValue(tb, pair.Value, want, "for the pair")
}

func mustNotPair(tb testing.TB, m *cache.PairMemoizer[int, int], a, b int) {
	tb.Helper()
	if pair, ok := m.Get(a, b); ok {
		tb.Fatalf("expected no entry for {%d, %d} but got: %v", a, b, pair)
	}
}

func symmetricLookup(t *testing.T) {
	memoizer, generator := newPairs(t, []int{1, 2, 3, 4})
	checkSize(t, memoizer.Len(), 0, "before the first access")
	mustPair(t, memoizer, 1, 3, 3)
	mustPair(t, memoizer, 3, 1, 3)
	mustPair(t, memoizer, 4, 2, 8)
	mustNotPair(t, memoizer, 1, 2)
	checkSize(t, memoizer.Len(), 2, "after generating")
	checkValue(t, generator.calls, 1, "generator calls")
	stats := memoizer.Stats()
	checkValue(t, stats.Hits, 3, "hits")
	checkValue(t, stats.Misses, 1, "misses")
}

func removeKey(t *testing.T) {
	memoizer, _ := newPairs(t, []int{1, 2, 3, 4, 5})
	memoizer.Apply(func(cache.Pair[int, int]) {})
	checkSize(t, memoizer.Len(), 4, "after generating") // {1,3} {1,5} {3,5} {2,4}
	memoizer.Remove(3)
	checkSize(t, memoizer.Len(), 2, "after removing a key")
	checkKeys(t, slices.Values(memoizer.Cleared()), []int{3}, "cleared after removal")
	evictions := memoizer.Stats().Evictions
	checkValue(t, evictions, 2, "evictions")
	memoizer.Remove(3)
	checkSize(t, memoizer.Len(), 2, "after removing a key again")
	checkKeys(t, slices.Values(memoizer.Cleared()), []int{3}, "cleared after removing again")
	checkValue(t, memoizer.Stats().Evictions, evictions, "evictions after removing again")
}

func regenerateCleared(t *testing.T) {
	memoizer, generator := newPairs(t, []int{1, 2, 3, 4, 5})
	mustPair(t, memoizer, 1, 5, 5)
	memoizer.Remove(1)
	memoizer.Remove(4)
	mustPair(t, memoizer, 5, 1, 5)
	mustPair(t, memoizer, 2, 4, 8)
	checkValue(t, generator.calls, 2, "generator calls")
	checkKeys(t, slices.Values(generator.cleared[1]), []int{1, 4}, "passed to the generator")
	checkSize(t, memoizer.Len(), 4, "after regenerating")
	if cleared := memoizer.Cleared(); len(cleared) != 0 {
		t.Fatalf("keys remain cleared after regenerating: %v", cleared)
	}

	memoizer.Clear()
	checkKeys(t, slices.Values(memoizer.Cleared()), memoizer.Domain(), "after clearing")
	mustPair(t, memoizer, 3, 5, 15)
	checkValue(t, generator.calls, 3, "generator calls after clearing")
}

func insertPair(t *testing.T) {
	var (
		nothing = func([]int, *cache.PairMemoizer[int, string]) []cache.Pair[int, string] {
			return nil
		}
		memoizer = cache.NewPairMemoizer([]int{1, 2, 3}, nothing, nil)
	)
	defer memoizer.Close()
	memoizer.Insert(cache.Pair[int, string]{A: 1, B: 2, Value: "edge"})
	pair, ok := memoizer.Get(2, 1)
	if !ok {
		t.Fatal("inserted pair is missing in the flipped orientation")
	}
	checkValue(t, pair, cache.Pair[int, string]{A: 1, B: 2, Value: "edge"}, "as inserted")
	memoizer.Insert(cache.Pair[int, string]{A: 1, B: 2, Value: "updated"})
	pair, _ = memoizer.Get(1, 2)
	checkValue(t, pair.Value, "updated", "after replacing")
	checkSize(t, memoizer.Len(), 1, "after replacing")
}

func flippedInsert(t *testing.T) {
	defer managed.OverrideCheckLevel(managed.Usage).Reset()
	var (
		nothing = func([]int, *cache.PairMemoizer[int, int]) []cache.Pair[int, int] {
			return nil
		}
		memoizer = cache.NewPairMemoizer([]int{1, 2}, nothing, nil)
	)
	defer memoizer.Close()
	memoizer.Insert(cache.Pair[int, int]{A: 1, B: 2, Value: 1})
	memoizer.Insert(cache.Pair[int, int]{A: 2, B: 1, Value: 2})
	checkSize(t, memoizer.Len(), 1, "after inserting both orientations")
	pair, _ := memoizer.Get(1, 2)
	checkValue(t, pair, cache.Pair[int, int]{A: 2, B: 1, Value: 2}, "after replacing the orientation")
}

func iteratePairs(t *testing.T) {
	memoizer, _ := newPairs(t, []int{1, 2, 3, 4, 5, 6})
	var sum int
	for pair := range memoizer.All() {
		if (pair.A+pair.B)%2 != 0 {
			t.Fatalf("unrelated pair was generated: %v", pair)
		}
		sum += pair.Value
	}
	// 1*3 + 1*5 + 3*5 + 2*4 + 2*6 + 4*6
	checkValue(t, sum, 67, "sum of the relation")
	var count int
	for range memoizer.All() {
		count++
		break
	}
	checkValue(t, count, 1, "entries visited before stopping")
}

func managedPairs(t *testing.T) {
	var (
		destroyed int
		generate  = func(cleared []int, m *cache.PairMemoizer[int, *shape]) []cache.Pair[int, *shape] {
			var pairs []cache.Pair[int, *shape]
			for _, key := range m.Domain() {
				if key == 0 ||
					!(slices.Contains(cleared, 0) || slices.Contains(cleared, key)) {
					continue
				}
				pairs = append(pairs, cache.Pair[int, *shape]{A: 0, B: key, Value: newShape(key, &destroyed)})
			}
			return pairs
		}
		memoizer = cache.NewPairMemoizer([]int{0, 1, 2}, generate, sameSize)
	)
	defer memoizer.Close()
	pair, ok := memoizer.Get(0, 1)
	if !ok {
		t.Fatal("expected an entry for {0, 1}")
	}
	checkValue(t, pair.Value.RefCount(), 1, "references held by the memoizer")
	memoizer.Remove(1)
	checkValue(t, destroyed, 1, "destructions after removing a key")
	memoizer.Remove(0)
	checkValue(t, destroyed, 2, "destructions after removing every entry")
	checkSize(t, memoizer.Len(), 0, "after removing every entry")
}

func failedGeneration(t *testing.T) {
	var (
		generator = new(evenSums)
		failed    bool
		generate  = func(cleared []int, m *cache.PairMemoizer[int, int]) []cache.Pair[int, int] {
			if !failed {
				failed = true
				panic("generator failed")
			}
			return generator.generate(cleared, m)
		}
		memoizer = cache.NewPairMemoizer([]int{1, 2, 3, 4}, generate, nil)
	)
	defer memoizer.Close()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the generator to panic")
			}
		}()
		memoizer.Get(1, 3)
	}()
	checkKeys(t, slices.Values(memoizer.Cleared()), []int{1, 2, 3, 4}, "after a failed generation")
	mustPair(t, memoizer, 1, 3, 3)
	mustPair(t, memoizer, 2, 4, 8)
	checkKeys(t, slices.Values(generator.cleared[0]), []int{1, 2, 3, 4}, "passed to the generator")
}
