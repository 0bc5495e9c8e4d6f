package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/safenode-dev/safenode/domain"
	serrors "github.com/safenode-dev/safenode/errors"
	"github.com/safenode-dev/safenode/internal/metrics"
)

const (
	// TokenIssuer and TokenAudience are fixed; validation matches both.
	TokenIssuer   = "safenode"
	TokenAudience = "safenode-api"

	// DefaultSessionTTL applies when no override is configured.
	DefaultSessionTTL = 24 * time.Hour

	// Account lookups tolerate propagation delay between account creation
	// and visibility on the validating path: up to 6 attempts, backoff
	// starting at 75ms and doubling.
	lookupMaxAttempts     = 6
	lookupInitialInterval = 75 * time.Millisecond
)

// SessionClaims is the session token payload. TokenVersion is a snapshot
// taken at issuance, compared against the live account on every validation.
type SessionClaims struct {
	Email        string `json:"email"`
	TokenVersion int64  `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenService mints and validates session tokens. There is no revocation
// list: bumping an account's token version invalidates everything minted
// before the bump.
type TokenService struct {
	signingSecret []byte
	sessionTTL    time.Duration
	accounts      domain.AccountRepository

	// Overridable in tests to keep retry scenarios fast.
	lookupMaxAttempts     uint
	lookupInitialInterval time.Duration
}

func NewTokenService(signingSecret []byte, sessionTTL time.Duration, accounts domain.AccountRepository) *TokenService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &TokenService{
		signingSecret:         signingSecret,
		sessionTTL:            sessionTTL,
		accounts:              accounts,
		lookupMaxAttempts:     lookupMaxAttempts,
		lookupInitialInterval: lookupInitialInterval,
	}
}

// SessionTTL returns the configured token lifetime, so cookie expiry can
// match token expiry.
func (s *TokenService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// IssueToken mints a signed session token for the account, embedding the
// account's current token version.
func (s *TokenService) IssueToken(_ context.Context, account *domain.Account) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email:        account.Email,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	metrics.TokensIssuedTotal.Inc()
	log.Debug().Str("user_id", account.ID).Int64("token_version", account.TokenVersion).
		Msg("Issued session token")
	return signed, nil
}

// ValidateSession runs the full validation state machine: signature, expiry,
// issuer and audience checks, subject resolution with bounded retry, then
// the token-version comparison. On success it returns the live account; on
// failure a *serrors.AuthError with a machine-readable code.
func (s *TokenService) ValidateSession(ctx context.Context, rawToken string) (*domain.Account, *serrors.AuthError) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(*jwt.Token) (any, error) { return s.signingSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, s.reject(serrors.NewInvalidToken("Token is malformed, expired, or not issued by this service"))
	}
	if claims.Subject == "" {
		return nil, s.reject(serrors.NewInvalidToken("Token carries no subject"))
	}

	account, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			log.Warn().Str("user_id", claims.Subject).Msg("Session subject not found after retries")
			return nil, s.reject(serrors.NewUserNotFound())
		}
		log.Error().Err(err).Str("user_id", claims.Subject).Msg("Account lookup failed during validation")
		return nil, s.reject(serrors.NewAuthError("Account lookup failed"))
	}

	if claims.TokenVersion < account.TokenVersion {
		return nil, s.reject(serrors.NewTokenVersionMismatch())
	}
	return account, nil
}

// resolveSubject looks up the token's subject, retrying not-found outcomes
// with exponential backoff. The waits suspend only this request; other
// requests keep being served.
func (s *TokenService) resolveSubject(ctx context.Context, userID string) (*domain.Account, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.lookupInitialInterval
	expo.RandomizationFactor = 0
	expo.Multiplier = 2

	return backoff.Retry(ctx, func() (*domain.Account, error) {
		account, err := s.accounts.GetAccountByID(ctx, userID)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return account, nil
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(s.lookupMaxAttempts))
}

func (s *TokenService) reject(authErr *serrors.AuthError) *serrors.AuthError {
	metrics.TokenValidationRejectedTotal.WithLabelValues(authErr.Code).Inc()
	return authErr
}
