package oauthflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "safenode:sso:txn:"

// RedisTransactionStore externalizes transaction state so a login initiated
// against one process instance can complete against another. Redis key
// expiry replaces the sweep.
type RedisTransactionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTransactionStore(client *redis.Client, ttl time.Duration) *RedisTransactionStore {
	if ttl <= 0 {
		ttl = TransactionTTL
	}
	return &RedisTransactionStore{client: client, ttl: ttl}
}

func (s *RedisTransactionStore) Create(ctx context.Context, provider, frontendRedirectURI string) (*Transaction, error) {
	tx := &Transaction{
		ID:                  NewTransactionID(),
		Provider:            provider,
		FrontendRedirectURI: frontendRedirectURI,
		PKCEVerifier:        NewPKCEVerifier(),
		CreatedAt:           time.Now().UTC(),
	}
	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+tx.ID, payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store transaction: %w", err)
	}
	return tx, nil
}

// Consume uses GETDEL so the read-and-destroy is a single atomic operation
// even with concurrent callbacks racing on the same state.
func (s *RedisTransactionStore) Consume(ctx context.Context, id string) (*Transaction, error) {
	payload, err := s.client.GetDel(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidOrExpiredState
	}
	if err != nil {
		return nil, fmt.Errorf("consume transaction: %w", err)
	}

	var tx Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	if time.Since(tx.CreatedAt) > s.ttl {
		return nil, ErrInvalidOrExpiredState
	}
	return &tx, nil
}

func (s *RedisTransactionStore) Stop() {}

var _ TransactionStore = (*RedisTransactionStore)(nil)
