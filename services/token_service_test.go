package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safenode-dev/safenode/domain"
	serrors "github.com/safenode-dev/safenode/errors"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	// idLookups counts GetAccountByID calls; visibleAfter hides the account
	// for the first N lookups to simulate propagation delay.
	idLookups    int
	visibleAfter int
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		repo.accounts[a.ID] = a
	}
	return repo
}

func (r *fakeAccountRepo) CreateAccount(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if account.ID == "" {
		account.ID = "acc-1"
	}
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) GetAccountByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idLookups++
	if r.idLookups <= r.visibleAfter {
		return nil, domain.ErrAccountNotFound
	}
	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) TouchLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	now := time.Now().UTC()
	account.LastLoginAt = &now
	return nil
}

func (r *fakeAccountRepo) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	account.TokenVersion++
	return account.TokenVersion, nil
}

var _ domain.AccountRepository = (*fakeAccountRepo)(nil)

const testSecret = "test-signing-secret"

func testAccount() *domain.Account {
	return &domain.Account{
		ID:           "user-1",
		Email:        "user@example.com",
		TokenVersion: 1,
	}
}

// fastRetries shrinks the validation backoff so retry tests stay quick.
func fastRetries(s *TokenService) *TokenService {
	s.lookupInitialInterval = time.Millisecond
	return s
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)
	svc := NewTokenService([]byte(testSecret), time.Hour, repo)

	token, err := svc.IssueToken(context.Background(), account)
	require.NoError(t, err)

	got, authErr := svc.ValidateSession(context.Background(), token)
	require.Nil(t, authErr)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, account.Email, got.Email)
}

func TestTokenService_ValidateRejectsForeignSignature(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)

	token, err := NewTokenService([]byte("other-secret"), time.Hour, repo).
		IssueToken(context.Background(), account)
	require.NoError(t, err)

	svc := NewTokenService([]byte(testSecret), time.Hour, repo)
	_, authErr := svc.ValidateSession(context.Background(), token)
	require.NotNil(t, authErr)
	assert.Equal(t, serrors.CodeInvalidToken, authErr.Code)
}

func TestTokenService_ValidateRejectsExpired(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)
	svc := NewTokenService([]byte(testSecret), time.Hour, repo)

	now := time.Now().Add(-2 * time.Hour)
	claims := SessionClaims{
		Email:        account.Email,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, authErr := svc.ValidateSession(context.Background(), token)
	require.NotNil(t, authErr)
	assert.Equal(t, serrors.CodeInvalidToken, authErr.Code)
}

func TestTokenService_ValidateRejectsWrongAudience(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)
	svc := NewTokenService([]byte(testSecret), time.Hour, repo)

	now := time.Now()
	claims := SessionClaims{
		TokenVersion: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{"some-other-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, authErr := svc.ValidateSession(context.Background(), token)
	require.NotNil(t, authErr)
	assert.Equal(t, serrors.CodeInvalidToken, authErr.Code)
}

func TestTokenService_TokenVersionInvariant(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)
	svc := NewTokenService([]byte(testSecret), time.Hour, repo)

	staleToken, err := svc.IssueToken(context.Background(), account)
	require.NoError(t, err)

	_, err = repo.IncrementTokenVersion(context.Background(), account.ID)
	require.NoError(t, err)

	_, authErr := svc.ValidateSession(context.Background(), staleToken)
	require.NotNil(t, authErr)
	assert.Equal(t, serrors.CodeTokenVersionMismatch, authErr.Code)

	// A token minted after the bump carries the new version and passes.
	freshToken, err := svc.IssueToken(context.Background(), account)
	require.NoError(t, err)

	got, authErr := svc.ValidateSession(context.Background(), freshToken)
	require.Nil(t, authErr)
	assert.Equal(t, account.ID, got.ID)
}

func TestTokenService_RetrySucceedsOnThirdLookup(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)
	repo.visibleAfter = 2

	svc := fastRetries(NewTokenService([]byte(testSecret), time.Hour, repo))
	token, err := svc.IssueToken(context.Background(), account)
	require.NoError(t, err)

	got, authErr := svc.ValidateSession(context.Background(), token)
	require.Nil(t, authErr)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, 3, repo.idLookups)
}

func TestTokenService_RetryExhaustion(t *testing.T) {
	account := testAccount()
	repo := newFakeAccountRepo(account)
	repo.visibleAfter = 100 // never becomes visible to lookups

	svc := fastRetries(NewTokenService([]byte(testSecret), time.Hour, repo))
	token, err := svc.IssueToken(context.Background(), account)
	require.NoError(t, err)

	_, authErr := svc.ValidateSession(context.Background(), token)
	require.NotNil(t, authErr)
	assert.Equal(t, serrors.CodeUserNotFound, authErr.Code)
	assert.Equal(t, 6, repo.idLookups)
}
