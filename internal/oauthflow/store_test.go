package oauthflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateGeneratesDistinctSecrets(t *testing.T) {
	store := NewMemoryTransactionStore(TransactionTTL)
	defer store.Stop()

	tx, err := store.Create(context.Background(), "google", "https://app.example/callback")
	require.NoError(t, err)

	assert.Equal(t, "google", tx.Provider)
	assert.Equal(t, "https://app.example/callback", tx.FrontendRedirectURI)
	assert.NotEmpty(t, tx.ID)
	assert.NotEmpty(t, tx.PKCEVerifier)
	assert.NotEqual(t, tx.ID, tx.PKCEVerifier)
	assert.False(t, tx.CreatedAt.IsZero())

	// 32 bytes of entropy base64url-encodes to 43 characters.
	assert.Len(t, tx.ID, 43)
	assert.Len(t, tx.PKCEVerifier, 43)

	other, err := store.Create(context.Background(), "google", "https://app.example/callback")
	require.NoError(t, err)
	assert.NotEqual(t, tx.ID, other.ID)
}

func TestMemoryStore_ConsumeIsDestructive(t *testing.T) {
	store := NewMemoryTransactionStore(TransactionTTL)
	defer store.Stop()

	tx, err := store.Create(context.Background(), "github", "https://app.example/cb")
	require.NoError(t, err)

	got, err := store.Consume(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, tx.PKCEVerifier, got.PKCEVerifier)

	_, err = store.Consume(context.Background(), tx.ID)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredState)
}

func TestMemoryStore_ConsumeUnknownID(t *testing.T) {
	store := NewMemoryTransactionStore(TransactionTTL)
	defer store.Stop()

	_, err := store.Consume(context.Background(), "no-such-transaction")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredState)
}

func TestMemoryStore_ExpiredTransactionRejectedBeforeSweep(t *testing.T) {
	// Short TTL and no time for the janitor to run: Consume itself must
	// reject the aged-out entry.
	store := NewMemoryTransactionStore(30 * time.Millisecond)
	defer store.Stop()

	tx, err := store.Create(context.Background(), "google", "https://app.example/cb")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = store.Consume(context.Background(), tx.ID)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredState)
}

func TestChallengeS256_KnownVector(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", ChallengeS256(verifier))
}
