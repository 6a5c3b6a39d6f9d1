package consultation

import (
	"context"
	"errors"
	"testing"

	"github.com/go-consult-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockConsultationStore struct{ mock.Mock }

func (m *mockConsultationStore) Put(ctx context.Context, c *domain.Consultation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockConsultationStore) ListByIdentity(ctx context.Context, identityID string) ([]domain.Consultation, error) {
	args := m.Called(ctx, identityID)
	if cs, _ := args.Get(0).([]domain.Consultation); cs != nil {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) IsVerified(ctx context.Context, identityID string) (bool, error) {
	args := m.Called(ctx, identityID)
	return args.Bool(0), args.Error(1)
}

func validReq() domain.CreateConsultationRequest {
	return domain.CreateConsultationRequest{Date: "2026-09-15", Time: "14:30", Description: "follow-up"}
}

// --- Create ---

func TestCreate_MissingDate_ReturnsBadRequest(t *testing.T) {
	svc := NewService(&mockConsultationStore{}, &mockVerifier{}, nil)
	_, err := svc.Create(context.Background(), "id1", domain.CreateConsultationRequest{Time: "14:30"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_MissingTime_ReturnsBadRequest(t *testing.T) {
	svc := NewService(&mockConsultationStore{}, &mockVerifier{}, nil)
	_, err := svc.Create(context.Background(), "id1", domain.CreateConsultationRequest{Date: "2026-09-15"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_UnverifiedIdentity_Rejected(t *testing.T) {
	cs := &mockConsultationStore{}
	v := &mockVerifier{}
	v.On("IsVerified", mock.Anything, "id1").Return(false, nil)

	svc := NewService(cs, v, nil)
	_, err := svc.Create(context.Background(), "id1", validReq())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUserNotVerified))
	cs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_VerifierFailure_Propagates(t *testing.T) {
	v := &mockVerifier{}
	v.On("IsVerified", mock.Anything, "id1").Return(false, domain.ErrStoreUnavailable)

	svc := NewService(&mockConsultationStore{}, v, nil)
	_, err := svc.Create(context.Background(), "id1", validReq())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestCreate_HappyPath(t *testing.T) {
	cs := &mockConsultationStore{}
	v := &mockVerifier{}
	v.On("IsVerified", mock.Anything, "id1").Return(true, nil)

	var stored *domain.Consultation
	cs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Consultation")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Consultation) }).
		Return(nil)

	svc := NewService(cs, v, nil)
	c, err := svc.Create(context.Background(), "id1", validReq())
	require.NoError(t, err)

	assert.NotEmpty(t, c.ConsultationID)
	assert.Equal(t, "id1", c.IdentityID)
	assert.Equal(t, "2026-09-15", c.Date)
	assert.Equal(t, "14:30", c.Time)
	assert.Equal(t, "follow-up", c.Description)
	assert.Equal(t, domain.ConsultationStatusPending, c.Status)
	assert.False(t, c.CreatedAt.IsZero())
	require.NotNil(t, stored)
	assert.Equal(t, c, stored)
}

// --- List ---

func TestList_PassesThrough(t *testing.T) {
	cs := &mockConsultationStore{}
	want := []domain.Consultation{{ConsultationID: "c1", IdentityID: "id1"}}
	cs.On("ListByIdentity", mock.Anything, "id1").Return(want, nil)

	svc := NewService(cs, &mockVerifier{}, nil)
	got, err := svc.List(context.Background(), "id1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
