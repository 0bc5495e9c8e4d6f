package oauthflow

import (
	"context"
	"errors"
	"time"
)

const (
	// TransactionTTL bounds how long a login may stay in flight. Abandoned
	// logins need no user action to cancel, they simply age out.
	TransactionTTL = 10 * time.Minute

	// SweepInterval is how often expired transactions are garbage collected.
	// Consume rejects expired entries on its own, the sweep only bounds
	// memory growth.
	SweepInterval = 5 * time.Minute
)

// ErrInvalidOrExpiredState is the typed outcome for a consume on an unknown,
// already-consumed, or aged-out transaction. Callers turn it into an OAuth
// failure redirect, never a 5xx.
var ErrInvalidOrExpiredState = errors.New("invalid or expired oauth state")

// TransactionStore holds in-flight SSO transactions keyed by their id.
//
// Consume is destructive: a transaction is handed out at most once, so a
// replayed callback with the same state parameter cannot succeed twice.
type TransactionStore interface {
	Create(ctx context.Context, provider, frontendRedirectURI string) (*Transaction, error)
	Consume(ctx context.Context, id string) (*Transaction, error)

	// Stop releases background resources (sweeper goroutine, connections).
	Stop()
}
