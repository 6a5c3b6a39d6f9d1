package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-consult-nosql/internal/domain"
	"github.com/go-consult-nosql/internal/metrics"
	"github.com/go-consult-nosql/internal/pkg/id"
	"github.com/go-consult-nosql/internal/pkg/validate"
)

// codeTTL is the validity window of an issued verification code.
const codeTTL = 10 * time.Minute

// IdentityStore is the persistence surface the service operates on.
// Create must enforce contact uniqueness and report ErrDuplicateContact
// when a concurrent insert for the same contact already won.
type IdentityStore interface {
	GetByContact(ctx context.Context, c domain.Contact) (*domain.Identity, error)
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	SetPendingCode(ctx context.Context, identityID, code string, expiresAt int64) error
	MarkVerified(ctx context.Context, identityID string) error
}

// CodeSender delivers an issued code out-of-band (email or SMS).
type CodeSender interface {
	Send(ctx context.Context, contact domain.Contact, code string) error
}

// CodeIssued is the success payload of RequestCode. Code is returned directly
// as a development affordance; real deployments rely on the CodeSender.
type CodeIssued struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Confirmation is the success payload of ConfirmCode.
type Confirmation struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type Service interface {
	RequestCode(ctx context.Context, req domain.ContactRequest) (*CodeIssued, error)
	ConfirmCode(ctx context.Context, req domain.ContactRequest, code string) (*Confirmation, error)
	IsVerified(ctx context.Context, identityID string) (bool, error)
}

type service struct {
	identities IdentityStore
	sender     CodeSender
	metrics    *metrics.Metrics
}

// NewService builds the verification service. sender and m may be nil
// (no out-of-band delivery, no metrics).
func NewService(identities IdentityStore, sender CodeSender, m *metrics.Metrics) Service {
	return &service{identities: identities, sender: sender, metrics: m}
}

func (s *service) RequestCode(ctx context.Context, req domain.ContactRequest) (*CodeIssued, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	contact, err := req.Resolve()
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(codeTTL).Unix()

	existing, err := s.identities.GetByContact(ctx, contact)
	switch {
	case err == nil:
		if err := s.identities.SetPendingCode(ctx, existing.IdentityID, code, expiresAt); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrUserNotFound):
		if err := s.createIdentity(ctx, contact, code, expiresAt); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if s.sender != nil {
		// Best-effort: the code is still returned in the payload.
		if err := s.sender.Send(ctx, contact, code); err != nil {
			slog.Warn("could not deliver verification code", "contact", contact.Value, "err", err)
		}
	}
	if s.metrics != nil {
		s.metrics.CodesIssued.Inc()
	}
	return &CodeIssued{
		Code:    code,
		Message: fmt.Sprintf("Verification code sent to %s", contact.Value),
	}, nil
}

// createIdentity inserts a fresh unverified identity carrying the pending
// code. Losing the create race to a concurrent request is not an error:
// the row exists now, so this request's code simply overwrites the winner's
// (last writer wins).
func (s *service) createIdentity(ctx context.Context, contact domain.Contact, code string, expiresAt int64) error {
	now := time.Now().UTC()
	ident := &domain.Identity{
		IdentityID:    id.New(),
		PendingCode:   &code,
		CodeExpiresAt: &expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch contact.Kind {
	case domain.ContactEmail:
		ident.Email = &contact.Value
	case domain.ContactPhone:
		ident.Phone = &contact.Value
	}

	err := s.identities.Create(ctx, ident)
	if errors.Is(err, domain.ErrDuplicateContact) {
		winner, gErr := s.identities.GetByContact(ctx, contact)
		if gErr != nil {
			return gErr
		}
		return s.identities.SetPendingCode(ctx, winner.IdentityID, code, expiresAt)
	}
	return err
}

func (s *service) ConfirmCode(ctx context.Context, req domain.ContactRequest, code string) (*Confirmation, error) {
	if code == "" {
		return nil, fmt.Errorf("empty code: %w", domain.ErrMissingCode)
	}
	contact, err := req.Resolve()
	if err != nil {
		return nil, err
	}

	ident, err := s.identities.GetByContact(ctx, contact)
	if err != nil {
		s.confirmFailed("not_found")
		return nil, err
	}
	if ident.PendingCode == nil || *ident.PendingCode != code {
		s.confirmFailed("invalid_code")
		return nil, fmt.Errorf("code mismatch for %s: %w", contact.Value, domain.ErrInvalidCode)
	}
	if ident.CodeExpiresAt == nil || time.Now().Unix() > *ident.CodeExpiresAt {
		s.confirmFailed("expired")
		return nil, fmt.Errorf("code for %s: %w", contact.Value, domain.ErrCodeExpired)
	}

	// The pending code is deliberately kept around after success, so a
	// repeated confirmation with a still-valid code stays idempotent.
	if err := s.identities.MarkVerified(ctx, ident.IdentityID); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Confirmations.Inc()
	}
	return &Confirmation{UserID: ident.IdentityID, Message: "Verification successful"}, nil
}

// IsVerified reports whether the identity exists and has confirmed a code.
// Unknown ids read as unverified rather than erroring.
func (s *service) IsVerified(ctx context.Context, identityID string) (bool, error) {
	ident, err := s.identities.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return ident.Verified, nil
}

func (s *service) confirmFailed(reason string) {
	if s.metrics != nil {
		s.metrics.ConfirmFailures.WithLabelValues(reason).Inc()
	}
}

// generateCode draws a uniform 6-digit code; leading zeros are kept, so the
// space is the full 10^6 values.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
