// Package metrics exports managed-object and cache statistics
// to Prometheus.
//
// Metrics:
//   - managed_objects_live: Objects created and not yet destroyed
//   - managed_objects_created_total: Objects initialized
//   - managed_objects_destroyed_total: Objects destroyed
//   - managed_cache_hits_total: Cache hits by cache name
//   - managed_cache_misses_total: Cache misses by cache name
//   - managed_cache_evictions_total: Cache evictions by cache name
//   - managed_cache_generations_total: Generator invocations by cache name
//   - managed_cache_entries: Current number of entries by cache name
//
// Object counters are read from the [managed.Context] on every scrape.
// Caches are not safe for concurrent use, so their statistics are
// sampled by [Collector.Update] on the goroutine which owns them,
// and scrapes report the latest sample.
package metrics

import (
	"maps"
	"net/http"
	"slices"
	"sync"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "managed"

type (
	// StatsSource is implemented by every cache in package cache.
	StatsSource interface {
		Stats() cache.Stats
	}
	// Collector implements [prometheus.Collector].
	// Constructed by [NewCollector].
	Collector struct {
		ctx     *managed.Context
		mu      sync.Mutex
		sources map[string]StatsSource
		samples map[string]cache.Stats

		live, created, destroyed *prometheus.Desc
		hits, misses, evictions  *prometheus.Desc
		generations, entries     *prometheus.Desc
	}
)

// NewCollector creates a [Collector] for ctx.
func NewCollector(ctx *managed.Context) *Collector {
	cacheDesc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", name),
			help, []string{"cache"}, nil,
		)
	}
	objectDesc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "objects", name),
			help, nil, nil,
		)
	}
	return &Collector{
		ctx:         ctx,
		sources:     make(map[string]StatsSource),
		samples:     make(map[string]cache.Stats),
		live:        objectDesc("live", "Number of managed objects created and not yet destroyed"),
		created:     objectDesc("created_total", "Total number of managed objects initialized"),
		destroyed:   objectDesc("destroyed_total", "Total number of managed objects destroyed"),
		hits:        cacheDesc("hits_total", "Total number of cache hits"),
		misses:      cacheDesc("misses_total", "Total number of cache misses"),
		evictions:   cacheDesc("evictions_total", "Total number of cache evictions"),
		generations: cacheDesc("generations_total", "Total number of generator invocations"),
		entries:     cacheDesc("entries", "Current number of entries in cache"),
	}
}

// Track adds source under name, sampling it immediately.
// Tracking a name again replaces its source.
func (c *Collector) Track(name string, source StatsSource) {
	stats := source.Stats()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = source
	c.samples[name] = stats
}

// Untrack removes name; its metrics disappear from later scrapes.
func (c *Collector) Untrack(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
	delete(c.samples, name)
}

// Update samples every tracked source. It must be called
// from the goroutine which uses the caches.
func (c *Collector) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, source := range c.sources {
		c.samples[name] = source.Stats()
	}
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range []*prometheus.Desc{
		c.live, c.created, c.destroyed,
		c.hits, c.misses, c.evictions,
		c.generations, c.entries,
	} {
		ch <- desc
	}
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counts := c.ctx.Counts()
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(counts.Live))
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(counts.Created))
	ch <- prometheus.MustNewConstMetric(c.destroyed, prometheus.CounterValue, float64(counts.Destroyed))

	c.mu.Lock()
	samples := maps.Clone(c.samples)
	c.mu.Unlock()
	for _, name := range slices.Sorted(maps.Keys(samples)) {
		stats := samples[name]
		for _, sample := range []struct {
			desc      *prometheus.Desc
			valueType prometheus.ValueType
			value     float64
		}{
			{c.hits, prometheus.CounterValue, float64(stats.Hits)},
			{c.misses, prometheus.CounterValue, float64(stats.Misses)},
			{c.evictions, prometheus.CounterValue, float64(stats.Evictions)},
			{c.generations, prometheus.CounterValue, float64(stats.Generations)},
			{c.entries, prometheus.GaugeValue, float64(stats.Entries)},
		} {
			ch <- prometheus.MustNewConstMetric(sample.desc, sample.valueType, sample.value, name)
		}
	}
}

// NewRegistry returns a registry holding c
// and the standard Go runtime and process collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Handler returns an HTTP handler exposing registry
// in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
