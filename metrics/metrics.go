// Package metrics exposes client statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huykn/gqlcache/cache"
)

const namespace = "gqlcache"

// Snapshot is a point-in-time view of client counters.
type Snapshot struct {
	Cache cache.Stats
	// Requests counts executed requests per transport route.
	Requests map[string]int64
	// Errors counts normalized failures per kind.
	Errors map[string]int64
	// DedupHits counts queries that shared one network round trip with another.
	DedupHits int64
	// InvalidationTick is the current auth invalidation tick.
	InvalidationTick uint64
}

// Collector implements prometheus.Collector over a snapshot function.
// Values are read on every scrape, so nothing is double counted.
type Collector struct {
	snapshot func() Snapshot

	readHits     *prometheus.Desc
	readMisses   *prometheus.Desc
	writes       *prometheus.Desc
	merges       *prometheus.Desc
	evictions    *prometheus.Desc
	entities     *prometheus.Desc
	requests     *prometheus.Desc
	errors       *prometheus.Desc
	dedupHits    *prometheus.Desc
	invalidation *prometheus.Desc
}

// NewCollector creates a collector reading from snapshot.
func NewCollector(snapshot func() Snapshot) *Collector {
	return &Collector{
		snapshot:     snapshot,
		readHits:     desc("cache", "read_hits_total", "Reads fully answered from the cache."),
		readMisses:   desc("cache", "read_misses_total", "Reads that needed the network."),
		writes:       desc("cache", "writes_total", "Results written to the cache."),
		merges:       desc("cache", "merges_total", "Field merge policy invocations."),
		evictions:    desc("cache", "evictions_total", "Entities dropped by the local cache backend."),
		entities:     desc("cache", "entities", "Entities currently held."),
		requests:     desc("transport", "requests_total", "Requests executed per transport.", "route"),
		errors:       desc("client", "errors_total", "Normalized failures per kind.", "kind"),
		dedupHits:    desc("client", "dedup_hits_total", "Queries that shared one network round trip with another."),
		invalidation: desc("auth", "invalidation_tick", "Current auth invalidation tick."),
	}
}

func desc(subsystem, name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.readHits
	ch <- c.readMisses
	ch <- c.writes
	ch <- c.merges
	ch <- c.evictions
	ch <- c.entities
	ch <- c.requests
	ch <- c.errors
	ch <- c.dedupHits
	ch <- c.invalidation
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()

	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	counter(c.readHits, s.Cache.ReadHits)
	counter(c.readMisses, s.Cache.ReadMisses)
	counter(c.writes, s.Cache.Writes)
	counter(c.merges, s.Cache.Merges)
	counter(c.evictions, s.Cache.Evictions)
	ch <- prometheus.MustNewConstMetric(c.entities, prometheus.GaugeValue, float64(s.Cache.Entities))
	for route, n := range s.Requests {
		counter(c.requests, n, route)
	}
	for kind, n := range s.Errors {
		counter(c.errors, n, kind)
	}
	counter(c.dedupHits, s.DedupHits)
	ch <- prometheus.MustNewConstMetric(c.invalidation, prometheus.GaugeValue, float64(s.InvalidationTick))
}

// Register registers c with reg, or with the default registerer when reg is nil.
func Register(reg prometheus.Registerer, c *Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return reg.Register(c)
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
