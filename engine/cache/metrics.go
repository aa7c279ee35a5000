package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus counters for cache behavior. A nil Metrics
// is a no-op, so instrumentation stays optional.
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// NewMetrics creates and registers the cache counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialoguecore_cache_hits_total",
			Help: "Total number of response cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialoguecore_cache_misses_total",
			Help: "Total number of response cache misses",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dialoguecore_cache_evictions_total",
			Help: "Total number of LRU evictions from the response cache",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.evictions)
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) eviction() {
	if m != nil {
		m.evictions.Inc()
	}
}
