package walletpass

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	issues  *prometheus.CounterVec
	pushes  *prometheus.CounterVec
	enqueue *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpass",
			Name:      "issues_total",
			Help:      "Wallet pass issue attempts by provider and result.",
		}, []string{"provider", "result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpass",
			Name:      "updates_total",
			Help:      "Wallet pass PATCH attempts by result.",
		}, []string{"result"}),
		enqueue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walletpass",
			Name:      "sync_enqueued_total",
			Help:      "Wallet sync tasks handed to the queue by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.issues, m.pushes, m.enqueue)
	return m
}

func (m *Metrics) issued(provider, result string) {
	if m == nil {
		return
	}
	m.issues.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) pushed(result string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(result).Inc()
}

func (m *Metrics) enqueued(result string) {
	if m == nil {
		return
	}
	m.enqueue.WithLabelValues(result).Inc()
}
