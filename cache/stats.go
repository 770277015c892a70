package cache

// Stats is a snapshot of a cache's counters.
type Stats struct {
	// Hits and Misses count lookups.
	Hits, Misses uint64
	// Evictions counts entries dropped to respect a size bound.
	Evictions uint64
	// Generations counts generator invocations, including
	// those made only to validate cached values.
	Generations uint64
	// Entries is the current number of cached entries.
	Entries int
}

// HitRate returns Hits / (Hits + Misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
