package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/safenode-dev/safenode/domain"
	serrors "github.com/safenode-dev/safenode/errors"
	"github.com/safenode-dev/safenode/internal/federation"
	"github.com/safenode-dev/safenode/internal/metrics"
	"github.com/safenode-dev/safenode/internal/oauthflow"
)

// SSOService orchestrates one federated login end to end: transaction
// custody, the provider exchange, account resolution, and session issuance.
type SSOService struct {
	fed          *federation.Service
	transactions oauthflow.TransactionStore
	identity     *IdentityService
	tokens       *TokenService
}

func NewSSOService(
	fed *federation.Service,
	transactions oauthflow.TransactionStore,
	identity *IdentityService,
	tokens *TokenService,
) *SSOService {
	return &SSOService{
		fed:          fed,
		transactions: transactions,
		identity:     identity,
		tokens:       tokens,
	}
}

// LoginResult is what a completed login hands back to the HTTP layer.
type LoginResult struct {
	Token               string
	Account             *domain.Account
	FrontendRedirectURI string
}

// InitiateLogin validates the request, records a transaction, and returns
// the provider authorization URL to redirect the browser to.
//
// Failures are *serrors.AuthError values the handler can return verbatim:
// they are client misuse or configuration gaps, not provider failures.
func (s *SSOService) InitiateLogin(ctx context.Context, providerName, frontendRedirectURI string) (string, error) {
	if frontendRedirectURI == "" {
		return "", serrors.NewMissingRedirectURI()
	}
	if !federation.KnownProvider(providerName) {
		return "", serrors.NewInvalidProvider(fmt.Sprintf("Unknown provider %q", providerName))
	}
	if _, err := s.fed.Registry().Get(providerName); err != nil {
		return "", serrors.NewProviderNotConfigured(fmt.Sprintf("Provider %q is not configured", providerName))
	}

	tx, err := s.transactions.Create(ctx, providerName, frontendRedirectURI)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	authURL, err := s.fed.AuthorizationURL(providerName, tx.ID, tx.PKCEVerifier)
	if err != nil {
		return "", fmt.Errorf("build authorization url: %w", err)
	}

	metrics.SSOLoginInitiatedTotal.WithLabelValues(providerName).Inc()
	log.Info().Str("provider", providerName).Str("state", tx.ID).Msg("SSO login initiated")
	return authURL, nil
}

// CompleteLogin consumes the transaction named by the state parameter,
// exchanges the code, resolves the account, and mints a session token. The
// consume is destructive, so a replayed callback fails with
// oauthflow.ErrInvalidOrExpiredState.
func (s *SSOService) CompleteLogin(ctx context.Context, state, code string) (*LoginResult, error) {
	tx, err := s.transactions.Consume(ctx, state)
	if err != nil {
		return nil, err
	}

	identity, err := s.fed.ExchangeCodeForIdentity(ctx, tx.Provider, code, tx.PKCEVerifier)
	if err != nil {
		return nil, err
	}

	account, err := s.identity.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(ctx, account)
	if err != nil {
		return nil, err
	}

	metrics.SSOLoginSucceededTotal.WithLabelValues(tx.Provider).Inc()
	log.Info().Str("provider", tx.Provider).Str("user_id", account.ID).Msg("SSO login completed")
	return &LoginResult{
		Token:               token,
		Account:             account,
		FrontendRedirectURI: tx.FrontendRedirectURI,
	}, nil
}

// RedirectErrorCode maps a CompleteLogin failure to the error string carried
// on the failure redirect.
func RedirectErrorCode(err error) string {
	switch {
	case errors.Is(err, oauthflow.ErrInvalidOrExpiredState):
		return serrors.InvalidOrExpiredState
	case errors.Is(err, federation.ErrNoAccessToken):
		return serrors.NoAccessToken
	case errors.Is(err, federation.ErrTokenExchangeFailed):
		return serrors.TokenExchangeFailed
	case errors.Is(err, federation.ErrUserInfoFetchFailed):
		return serrors.UserInfoFetchFailed
	default:
		return serrors.SSOFailed
	}
}
