package loyalty

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	purchases *prometheus.CounterVec
	audits    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Name:      "purchases_total",
			Help:      "Purchase registrations by result.",
		}, []string{"result"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Name:      "visit_records_total",
			Help:      "Visit record appends by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.purchases, m.audits)
	return m
}

func (m *Metrics) purchase(result string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(result).Inc()
}

func (m *Metrics) audit(result string) {
	if m == nil {
		return
	}
	m.audits.WithLabelValues(result).Inc()
}
