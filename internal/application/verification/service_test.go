package verification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-consult-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

// --- mocks ---

type mockIdentityStore struct{ mock.Mock }

func (m *mockIdentityStore) GetByContact(ctx context.Context, c domain.Contact) (*domain.Identity, error) {
	args := m.Called(ctx, c)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityStore) Get(ctx context.Context, identityID string) (*domain.Identity, error) {
	args := m.Called(ctx, identityID)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityStore) Create(ctx context.Context, i *domain.Identity) error {
	return m.Called(ctx, i).Error(0)
}

func (m *mockIdentityStore) SetPendingCode(ctx context.Context, identityID, code string, expiresAt int64) error {
	return m.Called(ctx, identityID, code, expiresAt).Error(0)
}

func (m *mockIdentityStore) MarkVerified(ctx context.Context, identityID string) error {
	return m.Called(ctx, identityID).Error(0)
}

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func emailReq(email string) domain.ContactRequest {
	return domain.ContactRequest{Email: &email}
}

// --- RequestCode ---

func TestRequestCode_MissingContact(t *testing.T) {
	svc := NewService(&mockIdentityStore{}, nil, nil)
	_, err := svc.RequestCode(context.Background(), domain.ContactRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingContact))
}

func TestRequestCode_InvalidEmail_ReturnsBadRequest(t *testing.T) {
	svc := NewService(&mockIdentityStore{}, nil, nil)
	_, err := svc.RequestCode(context.Background(), emailReq("not-an-email"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRequestCode_NewContact_CreatesIdentity(t *testing.T) {
	is := &mockIdentityStore{}
	contact := domain.Contact{Kind: domain.ContactEmail, Value: "a@b.com"}
	is.On("GetByContact", mock.Anything, contact).Return(nil, domain.ErrUserNotFound)

	var created *domain.Identity
	is.On("Create", mock.Anything, mock.AnythingOfType("*domain.Identity")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Identity) }).
		Return(nil)

	svc := NewService(is, nil, nil)
	before := time.Now()
	issued, err := svc.RequestCode(context.Background(), emailReq("a@b.com"))
	require.NoError(t, err)

	assert.Regexp(t, sixDigits, issued.Code)
	assert.Contains(t, issued.Message, "a@b.com")

	require.NotNil(t, created)
	assert.NotEmpty(t, created.IdentityID)
	assert.False(t, created.Verified)
	require.NotNil(t, created.PendingCode)
	assert.Equal(t, issued.Code, *created.PendingCode)
	require.NotNil(t, created.CodeExpiresAt)
	// Expiry lands 10 minutes out, give or take test runtime.
	assert.InDelta(t, before.Add(10*time.Minute).Unix(), *created.CodeExpiresAt, 5)
	require.NotNil(t, created.Email)
	assert.Equal(t, "a@b.com", *created.Email)
	assert.Nil(t, created.Phone)
}

func TestRequestCode_ExistingContact_OverwritesCode(t *testing.T) {
	is := &mockIdentityStore{}
	contact := domain.Contact{Kind: domain.ContactPhone, Value: "+1555"}
	phone := "+1555"
	is.On("GetByContact", mock.Anything, contact).
		Return(&domain.Identity{IdentityID: "id1", Phone: &phone}, nil)
	is.On("SetPendingCode", mock.Anything, "id1", mock.MatchedBy(func(code string) bool {
		return sixDigits.MatchString(code)
	}), mock.AnythingOfType("int64")).Return(nil)

	svc := NewService(is, nil, nil)
	issued, err := svc.RequestCode(context.Background(), domain.ContactRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, issued.Code)
	is.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestCode_LostCreateRace_FallsBackToUpdate(t *testing.T) {
	is := &mockIdentityStore{}
	contact := domain.Contact{Kind: domain.ContactEmail, Value: "a@b.com"}
	winner := &domain.Identity{IdentityID: "winner"}

	is.On("GetByContact", mock.Anything, contact).Return(nil, domain.ErrUserNotFound).Once()
	is.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateContact).Once()
	is.On("GetByContact", mock.Anything, contact).Return(winner, nil).Once()
	is.On("SetPendingCode", mock.Anything, "winner", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewService(is, nil, nil)
	issued, err := svc.RequestCode(context.Background(), emailReq("a@b.com"))
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, issued.Code)
	is.AssertExpectations(t)
}

func TestRequestCode_StoreFailure_Propagates(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("query identities: %w", domain.ErrStoreUnavailable))

	svc := NewService(is, nil, nil)
	_, err := svc.RequestCode(context.Background(), emailReq("a@b.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

// --- ConfirmCode ---

func TestConfirmCode_MissingCode(t *testing.T) {
	svc := NewService(&mockIdentityStore{}, nil, nil)
	_, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCode))
}

func TestConfirmCode_UserNotFound(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).Return(nil, domain.ErrUserNotFound)

	svc := NewService(is, nil, nil)
	_, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "000000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestConfirmCode_WrongCode(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).Return(&domain.Identity{
		IdentityID:    "id1",
		PendingCode:   strPtr("123456"),
		CodeExpiresAt: i64Ptr(time.Now().Add(5 * time.Minute).Unix()),
	}, nil)

	svc := NewService(is, nil, nil)
	_, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "654321")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	is.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func TestConfirmCode_NoPendingCode(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).Return(&domain.Identity{IdentityID: "id1"}, nil)

	svc := NewService(is, nil, nil)
	_, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestConfirmCode_Expired(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).Return(&domain.Identity{
		IdentityID:    "id1",
		PendingCode:   strPtr("123456"),
		CodeExpiresAt: i64Ptr(time.Now().Add(-time.Minute).Unix()),
	}, nil)

	svc := NewService(is, nil, nil)
	_, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))
	is.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
}

func TestConfirmCode_HappyPath(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).Return(&domain.Identity{
		IdentityID:    "id1",
		PendingCode:   strPtr("123456"),
		CodeExpiresAt: i64Ptr(time.Now().Add(5 * time.Minute).Unix()),
	}, nil)
	is.On("MarkVerified", mock.Anything, "id1").Return(nil)

	svc := NewService(is, nil, nil)
	conf, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "123456")
	require.NoError(t, err)
	assert.Equal(t, "id1", conf.UserID)
	is.AssertExpectations(t)
}

func TestConfirmCode_AlreadyVerified_StillSucceeds(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("GetByContact", mock.Anything, mock.Anything).Return(&domain.Identity{
		IdentityID:    "id1",
		PendingCode:   strPtr("123456"),
		CodeExpiresAt: i64Ptr(time.Now().Add(5 * time.Minute).Unix()),
		Verified:      true,
	}, nil)
	is.On("MarkVerified", mock.Anything, "id1").Return(nil)

	svc := NewService(is, nil, nil)
	conf, err := svc.ConfirmCode(context.Background(), emailReq("a@b.com"), "123456")
	require.NoError(t, err)
	assert.Equal(t, "id1", conf.UserID)
}

// --- IsVerified ---

func TestIsVerified_UnknownIdentity_ReadsAsUnverified(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

	svc := NewService(is, nil, nil)
	ok, err := svc.IsVerified(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsVerified_Verified(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "id1").Return(&domain.Identity{IdentityID: "id1", Verified: true}, nil)

	svc := NewService(is, nil, nil)
	ok, err := svc.IsVerified(context.Background(), "id1")
	require.NoError(t, err)
	assert.True(t, ok)
}

// --- end-to-end properties against an in-memory store ---

// memIdentityStore mimics the DynamoDB repo's contract: contact uniqueness
// enforced at create time, single-row atomic updates.
type memIdentityStore struct {
	mu        sync.Mutex
	byContact map[string]*domain.Identity
	byID      map[string]*domain.Identity
}

func newMemIdentityStore() *memIdentityStore {
	return &memIdentityStore{
		byContact: make(map[string]*domain.Identity),
		byID:      make(map[string]*domain.Identity),
	}
}

func contactOf(i *domain.Identity) string { return i.ContactValue() }

func (m *memIdentityStore) GetByContact(_ context.Context, c domain.Contact) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byContact[c.Value]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memIdentityStore) Get(_ context.Context, identityID string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byID[identityID]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memIdentityStore) Create(_ context.Context, i *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byContact[contactOf(i)]; ok {
		return domain.ErrDuplicateContact
	}
	cp := *i
	m.byContact[contactOf(i)] = &cp
	m.byID[i.IdentityID] = &cp
	return nil
}

func (m *memIdentityStore) SetPendingCode(_ context.Context, identityID, code string, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[identityID]
	if !ok {
		return domain.ErrUserNotFound
	}
	i.PendingCode = &code
	i.CodeExpiresAt = &expiresAt
	return nil
}

func (m *memIdentityStore) MarkVerified(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[identityID]
	if !ok {
		return domain.ErrUserNotFound
	}
	i.Verified = true
	return nil
}

func (m *memIdentityStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func TestRequestThenConfirm_EndToEnd(t *testing.T) {
	store := newMemIdentityStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	issued, err := svc.RequestCode(ctx, emailReq("a@b.com"))
	require.NoError(t, err)
	require.Regexp(t, sixDigits, issued.Code)

	conf, err := svc.ConfirmCode(ctx, emailReq("a@b.com"), issued.Code)
	require.NoError(t, err)

	ok, err := svc.IsVerified(ctx, conf.UserID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-confirming with the same still-valid code stays idempotent.
	again, err := svc.ConfirmCode(ctx, emailReq("a@b.com"), issued.Code)
	require.NoError(t, err)
	assert.Equal(t, conf.UserID, again.UserID)
}

func TestSecondRequest_InvalidatesFirstCode(t *testing.T) {
	store := newMemIdentityStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	first, err := svc.RequestCode(ctx, emailReq("a@b.com"))
	require.NoError(t, err)
	second, err := svc.RequestCode(ctx, emailReq("a@b.com"))
	require.NoError(t, err)

	if first.Code != second.Code {
		_, err = svc.ConfirmCode(ctx, emailReq("a@b.com"), first.Code)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	}

	_, err = svc.ConfirmCode(ctx, emailReq("a@b.com"), second.Code)
	require.NoError(t, err)
}

func TestConcurrentRequests_SingleIdentityRow(t *testing.T) {
	store := newMemIdentityStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	const n = 16
	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			issued, err := svc.RequestCode(ctx, emailReq("race@b.com"))
			if assert.NoError(t, err) {
				codes[i] = issued.Code
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.count())

	// Whatever code "won" must belong to one of the callers.
	winner, err := store.GetByContact(ctx, domain.Contact{Kind: domain.ContactEmail, Value: "race@b.com"})
	require.NoError(t, err)
	require.NotNil(t, winner.PendingCode)
	assert.Contains(t, codes, *winner.PendingCode)

	_, err = svc.ConfirmCode(ctx, emailReq("race@b.com"), *winner.PendingCode)
	require.NoError(t, err)
}
