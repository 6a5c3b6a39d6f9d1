package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-consult-nosql/internal/domain"
	"github.com/go-consult-nosql/internal/metrics"
	"github.com/go-consult-nosql/internal/pkg/id"
	"github.com/go-consult-nosql/internal/pkg/validate"
)

// ConsultationStore is the persistence surface the service operates on.
type ConsultationStore interface {
	Put(ctx context.Context, c *domain.Consultation) error
	ListByIdentity(ctx context.Context, identityID string) ([]domain.Consultation, error)
}

// VerifiedChecker is the read-only gate into the identity store.
type VerifiedChecker interface {
	IsVerified(ctx context.Context, identityID string) (bool, error)
}

type Service interface {
	Create(ctx context.Context, identityID string, req domain.CreateConsultationRequest) (*domain.Consultation, error)
	List(ctx context.Context, identityID string) ([]domain.Consultation, error)
}

type service struct {
	consultations ConsultationStore
	verifier      VerifiedChecker
	metrics       *metrics.Metrics
}

func NewService(consultations ConsultationStore, verifier VerifiedChecker, m *metrics.Metrics) Service {
	return &service{consultations: consultations, verifier: verifier, metrics: m}
}

// Create books a consultation for a verified identity.
func (s *service) Create(ctx context.Context, identityID string, req domain.CreateConsultationRequest) (*domain.Consultation, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	ok, err := s.verifier.IsVerified(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", identityID, domain.ErrUserNotVerified)
	}

	c := &domain.Consultation{
		ConsultationID: id.New(),
		IdentityID:     identityID,
		Date:           req.Date,
		Time:           req.Time,
		Description:    req.Description,
		Status:         domain.ConsultationStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.consultations.Put(ctx, c); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ConsultationsCreated.Inc()
	}
	return c, nil
}

func (s *service) List(ctx context.Context, identityID string) ([]domain.Consultation, error) {
	return s.consultations.ListByIdentity(ctx, identityID)
}
