package metrics

import "github.com/prometheus/client_golang/prometheus"

// Payout transition outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// PayoutMetrics counts payout transitions and the money they move.
type PayoutMetrics struct {
	transitions *prometheus.CounterVec
	amount      *prometheus.CounterVec
}

// NewPayoutMetrics registers payout counters on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payout_transitions_total",
		Help:      "Payout create/complete/cancel attempts by outcome.",
	}, []string{"action", "outcome"})
	amount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payout_amount_cents_total",
		Help:      "Minor units moved by successful payout transitions.",
	}, []string{"action", "currency"})
	reg.MustRegister(transitions, amount)
	return &PayoutMetrics{transitions: transitions, amount: amount}
}

// Observe records one transition attempt.
func (p *PayoutMetrics) Observe(action, outcome string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(action, outcome).Inc()
}

// AddAmount adds a successful transition's amount.
func (p *PayoutMetrics) AddAmount(action, currency string, cents int64) {
	if p == nil || p.amount == nil || cents <= 0 {
		return
	}
	p.amount.WithLabelValues(action, currency).Add(float64(cents))
}
