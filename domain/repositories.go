package domain

import (
	"context"
	"errors"
)

var (
	// ErrAccountNotFound is returned by lookups when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by CreateAccount when the email is taken.
	ErrDuplicateEmail = errors.New("account with this email already exists")
)

// AccountRepository is the persistence contract the identity core depends on.
// The concrete implementation lives in the mongodb package.
type AccountRepository interface {
	// CreateAccount inserts a new account. TokenVersion defaults to 1 and
	// CreatedAt/UpdatedAt are set when zero.
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccountByID returns ErrAccountNotFound when the id is unknown.
	GetAccountByID(ctx context.Context, id string) (*Account, error)

	// GetAccountByEmail looks up by the normalized (lower-cased, trimmed)
	// email. Returns ErrAccountNotFound when absent.
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)

	// TouchLastLogin sets LastLoginAt to now without altering any other
	// field.
	TouchLastLogin(ctx context.Context, id string) error

	// IncrementTokenVersion atomically bumps the account's token version and
	// returns the new value. Every session token minted before the bump
	// becomes invalid.
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
}
