package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/safenode-dev/safenode/domain"
	"github.com/safenode-dev/safenode/internal/federation"
	"github.com/safenode-dev/safenode/internal/metrics"
)

// IdentityService maps a normalized external identity onto a local account:
// find by email, create if absent, update last login. Repeated logins by the
// same external identity converge on the same account.
type IdentityService struct {
	accounts domain.AccountRepository
	hasher   PasswordHasher
}

func NewIdentityService(accounts domain.AccountRepository, hasher PasswordHasher) *IdentityService {
	return &IdentityService{accounts: accounts, hasher: hasher}
}

// Resolve returns the local account for the identity. New accounts get a
// random unusable placeholder credential and a verified email: the identity
// provider is trusted to have verified it. Existing accounts only get their
// last-login timestamp touched; no security-sensitive field is ever updated
// from SSO metadata.
func (s *IdentityService) Resolve(ctx context.Context, identity *federation.NormalizedIdentity) (*domain.Account, error) {
	if identity.Email == "" {
		return nil, errors.New("external identity carries no email")
	}

	account, err := s.accounts.GetAccountByEmail(ctx, identity.Email)
	if err == nil {
		if touchErr := s.accounts.TouchLastLogin(ctx, account.ID); touchErr != nil {
			log.Warn().Err(touchErr).Str("user_id", account.ID).Msg("Failed to update last login")
		}
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	placeholderHash, err := s.hasher.Hash(randomPlaceholderSecret())
	if err != nil {
		return nil, fmt.Errorf("hash placeholder credential: %w", err)
	}

	now := time.Now().UTC()
	account = &domain.Account{
		Email:         identity.Email,
		DisplayName:   identity.DisplayName,
		PasswordHash:  placeholderHash,
		EmailVerified: true,
		TokenVersion:  1,
		LastLoginAt:   &now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		// Lost a race against a concurrent first login for the same email;
		// converge on the winner's account.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return s.accounts.GetAccountByEmail(ctx, identity.Email)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	metrics.AccountsProvisionedTotal.Inc()
	log.Info().Str("user_id", account.ID).Str("email", account.Email).
		Msg("Provisioned account from SSO login")
	return account, nil
}

// randomPlaceholderSecret returns 32 bytes of CSPRNG output. It is hashed
// and immediately discarded, so the resulting credential can never be used
// for a password login.
func randomPlaceholderSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
