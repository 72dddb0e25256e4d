package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pool lookups per named cache
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apicore",
			Subsystem: "metadata_cache",
			Name:      "hits_total",
			Help:      "Total metadata lookups served from a cache",
		}, []string{"cache", "level"}),

		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apicore",
			Subsystem: "metadata_cache",
			Name:      "misses_total",
			Help:      "Total metadata lookups computed by the decorated factory",
		}, []string{"cache"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apicore",
			Subsystem: "metadata_cache",
			Name:      "errors_total",
			Help:      "Total cache backend errors absorbed",
		}, []string{"cache", "operation"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.hits, m.misses, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) hit(name, level string) {
	if m != nil {
		m.hits.WithLabelValues(name, level).Inc()
	}
}

func (m *Metrics) miss(name string) {
	if m != nil {
		m.misses.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) failure(name, operation string) {
	if m != nil {
		m.errors.WithLabelValues(name, operation).Inc()
	}
}
