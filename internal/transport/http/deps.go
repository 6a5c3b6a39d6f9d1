package http

import (
	"github.com/go-consult-nosql/internal/application/consultation"
	"github.com/go-consult-nosql/internal/application/verification"
	"github.com/go-consult-nosql/internal/metrics"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	IdentityRepo     verification.IdentityStore
	ConsultationRepo consultation.ConsultationStore
	CodeSender       verification.CodeSender
	Metrics          *metrics.Metrics
}
