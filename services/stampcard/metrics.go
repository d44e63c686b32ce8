package stampcard

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	renders   *prometheus.CounterVec
	cacheHits prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stampcard",
			Name:      "renders_total",
			Help:      "Stamp card renders by result.",
		}, []string{"result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stampcard",
			Name:      "render_cache_hits_total",
			Help:      "Stamp card renders served from cache.",
		}),
	}
	reg.MustRegister(m.renders, m.cacheHits)
	return m
}

func (m *Metrics) rendered(result string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(result).Inc()
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
