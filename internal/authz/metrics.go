package authz

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts authorization decisions per resource and outcome.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the decision counter on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "babelboard_authz_decisions_total",
		Help: "Authorization decisions by resource and outcome.",
	}, []string{"resource", "outcome"})
	reg.MustRegister(decisions)
	return &Metrics{decisions: decisions}
}

// ObserveDecision records one decision.
func (m *Metrics) ObserveDecision(resource string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.decisions.WithLabelValues(resource, outcome).Inc()
}
