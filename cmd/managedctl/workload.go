package main

import (
	"fmt"
	"io"
	"math"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/cache"
	"github.com/djdv/go-managed/metrics"
)

type (
	// atom is a managed object bonded to the next atom of its chain.
	// The bond owns the next atom; the back-reference is weak.
	atom struct {
		managed.Entity
		x, y, z  float64
		next     managed.PointerMember[*atom]
		previous managed.WeakPointer[*atom]
	}
	workloadOptions struct {
		atoms    int
		capacity int
		cutoff   float64
		strays   int
	}
	// workload holds a chain of atoms and the caches derived from it:
	// pairwise contact distances, per-atom energies, and their total.
	workload struct {
		ctx      *managed.Context
		atoms    []*managed.Pointer[*atom]
		strays   []*atom
		cutoff   float64
		contacts *cache.PairMemoizer[int, float64]
		energies *cache.LRUCache[int, float64]
		total    *cache.Memoizer[float64]
	}
)

func newAtom(ctx *managed.Context, x, y, z float64) *atom {
	a := &atom{x: x, y: y, z: z}
	ctx.Init(a, "atom_%1%")
	return a
}

func (a *atom) Destroy() error {
	a.next.Close()
	a.previous.Close()
	return nil
}

func (a *atom) displace(dx, dy, dz float64) {
	defer managed.EnterObject(a, "displace").Exit()
	a.x, a.y, a.z = a.x+dx, a.y+dy, a.z+dz
	a.SetWasUsed(true)
	a.Log(managed.Verbose, "atom moved", "x", a.x, "y", a.y, "z", a.z)
}

func (a *atom) distance(b *atom) float64 {
	return math.Sqrt(
		(a.x-b.x)*(a.x-b.x) +
			(a.y-b.y)*(a.y-b.y) +
			(a.z-b.z)*(a.z-b.z),
	)
}

func (options workloadOptions) validate() error {
	switch {
	case options.atoms < 2:
		return fmt.Errorf("at least 2 atoms are required, got %d", options.atoms)
	case options.cutoff <= 0:
		return fmt.Errorf("contact cutoff must be positive, got %g", options.cutoff)
	case options.strays < 0:
		return fmt.Errorf("stray count must not be negative, got %d", options.strays)
	}
	return nil
}

// newWorkload builds a helical chain of atoms.
// Strays are initialized but never owned, so they are
// reported as leaks until [workload.DestroyStrays] is called.
func newWorkload(ctx *managed.Context, options workloadOptions) (*workload, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}
	w := &workload{
		ctx:    ctx,
		atoms:  make([]*managed.Pointer[*atom], options.atoms),
		strays: make([]*atom, options.strays),
		cutoff: options.cutoff,
	}
	const (
		radius = 2.3
		rise   = 1.5
		turn   = 100 * math.Pi / 180
	)
	for i := range w.atoms {
		angle := float64(i) * turn
		w.atoms[i] = managed.NewPointer(newAtom(ctx,
			radius*math.Cos(angle), radius*math.Sin(angle), float64(i)*rise,
		))
		if i > 0 {
			previous, current := w.atoms[i-1].Get(), w.atoms[i].Get()
			previous.next.Set(current)
			current.previous.Set(previous)
		}
	}
	for i := range w.strays {
		w.strays[i] = newAtom(ctx, 0, 0, 0)
	}
	domain := make([]int, options.atoms)
	for i := range domain {
		domain[i] = i
	}
	w.contacts = cache.NewPairMemoizer(domain, w.generateContacts, managed.FloatEqual)
	energies, err := cache.NewLRUCache(w.generateEnergy, managed.FloatEqual, options.capacity)
	if err != nil {
		w.Close()
		w.DestroyStrays()
		return nil, err
	}
	w.energies = energies
	w.total = cache.NewMemoizer(w.generateTotal, managed.FloatEqual)
	ctx.Log(managed.Progress, "workload created",
		"atoms", options.atoms,
		"strays", options.strays,
	)
	return w, nil
}

func (w *workload) atom(i int) *atom { return w.atoms[i].Get() }

func (w *workload) generateContacts(cleared []int, m *cache.PairMemoizer[int, float64]) []cache.Pair[int, float64] {
	isCleared := make(map[int]bool, len(cleared))
	for _, i := range cleared {
		isCleared[i] = true
	}
	var (
		domain = m.Domain()
		pairs  []cache.Pair[int, float64]
	)
	for n, i := range domain {
		for _, j := range domain[n+1:] {
			if !isCleared[i] && !isCleared[j] {
				continue
			}
			if d := w.atom(i).distance(w.atom(j)); d <= w.cutoff {
				pairs = append(pairs, cache.Pair[int, float64]{A: i, B: j, Value: d})
			}
		}
	}
	return pairs
}

// generateEnergy sums a soft repulsion over the contacts of atom i.
func (w *workload) generateEnergy(i int, _ *cache.LRUCache[int, float64]) float64 {
	var energy float64
	for j := range w.atoms {
		if j == i {
			continue
		}
		if contact, ok := w.contacts.Get(i, j); ok {
			energy += 1 / (contact.Value * contact.Value)
		}
	}
	return energy
}

func (w *workload) generateTotal() float64 {
	var total float64
	for i := range w.atoms {
		total += w.energies.Get(i)
	}
	return total / 2
}

// Energy returns the total contact energy of the chain.
func (w *workload) Energy() float64 {
	defer w.ctx.Enter("energy").Exit()
	return w.total.Get()
}

// Move displaces atom i and invalidates what depends on it.
func (w *workload) Move(i int, dx, dy, dz float64) {
	w.atom(i).displace(dx, dy, dz)
	w.contacts.Remove(i)
	w.energies.Clear()
	w.total.Reset()
}

// Track registers the caches with collector.
func (w *workload) Track(collector *metrics.Collector) {
	collector.Track("contacts", w.contacts)
	collector.Track("energies", w.energies)
	collector.Track("total", w.total)
}

// Report writes cache statistics to out.
func (w *workload) Report(out io.Writer) error {
	for _, source := range []struct {
		name  string
		stats cache.Stats
	}{
		{"contacts", w.contacts.Stats()},
		{"energies", w.energies.Stats()},
		{"total", w.total.Stats()},
	} {
		stats := source.stats
		if _, err := fmt.Fprintf(out,
			"%-8s entries=%d hits=%d misses=%d evictions=%d generations=%d hit_rate=%.2f\n",
			source.name, stats.Entries, stats.Hits, stats.Misses,
			stats.Evictions, stats.Generations, stats.HitRate(),
		); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the caches and the chain.
func (w *workload) Close() {
	if w.total != nil {
		w.total.Close()
	}
	if w.energies != nil {
		w.energies.Close()
	}
	if w.contacts != nil {
		w.contacts.Close()
	}
	for _, handle := range w.atoms {
		if handle != nil {
			handle.Close()
		}
	}
}

// DestroyStrays destroys the unowned atoms.
func (w *workload) DestroyStrays() {
	for _, stray := range w.strays {
		if stray.IsValid() {
			managed.Destroy(stray)
		}
	}
	w.strays = nil
}
