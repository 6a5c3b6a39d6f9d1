package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the verification and booking flows.
type Metrics struct {
	CodesIssued          prometheus.Counter
	Confirmations        prometheus.Counter
	ConfirmFailures      *prometheus.CounterVec
	ConsultationsCreated prometheus.Counter
}

// New registers and returns the service metrics collectors.
func New() *Metrics {
	return &Metrics{
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consult_verification_codes_issued_total",
			Help: "Total number of verification codes issued",
		}),
		Confirmations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consult_verification_confirmations_total",
			Help: "Total number of successful code confirmations",
		}),
		ConfirmFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consult_verification_confirm_failures_total",
			Help: "Code confirmation failures by reason",
		}, []string{"reason"}),
		ConsultationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consult_consultations_created_total",
			Help: "Total number of consultations created",
		}),
	}
}
