package oauthflow

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryTransactionStore keeps transactions in a process-local TTL cache.
// A login initiated against one instance must complete against the same
// instance; use RedisTransactionStore for multi-instance deployments.
type MemoryTransactionStore struct {
	cache *ttlcache.Cache[string, *Transaction]
	ttl   time.Duration
}

// NewMemoryTransactionStore creates an in-memory store. The cache's
// background janitor takes the place of a fixed-interval sweep timer and
// bounds memory growth from abandoned logins.
func NewMemoryTransactionStore(ttl time.Duration) *MemoryTransactionStore {
	if ttl <= 0 {
		ttl = TransactionTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Transaction](ttl),
		ttlcache.WithDisableTouchOnHit[string, *Transaction](),
	)
	go cache.Start()

	return &MemoryTransactionStore{cache: cache, ttl: ttl}
}

// Create implements TransactionStore.Create. The transaction id and PKCE
// verifier are generated independently from the CSPRNG.
func (s *MemoryTransactionStore) Create(_ context.Context, provider, frontendRedirectURI string) (*Transaction, error) {
	tx := &Transaction{
		ID:                  NewTransactionID(),
		Provider:            provider,
		FrontendRedirectURI: frontendRedirectURI,
		PKCEVerifier:        NewPKCEVerifier(),
		CreatedAt:           time.Now().UTC(),
	}
	s.cache.Set(tx.ID, tx, s.ttl)
	return tx, nil
}

// Consume implements TransactionStore.Consume. Expired entries are rejected
// even if the janitor has not collected them yet.
func (s *MemoryTransactionStore) Consume(_ context.Context, id string) (*Transaction, error) {
	item, _ := s.cache.GetAndDelete(id)
	if item == nil || item.IsExpired() {
		return nil, ErrInvalidOrExpiredState
	}
	return item.Value(), nil
}

// Stop implements TransactionStore.Stop.
func (s *MemoryTransactionStore) Stop() {
	s.cache.Stop()
}

var _ TransactionStore = (*MemoryTransactionStore)(nil)
