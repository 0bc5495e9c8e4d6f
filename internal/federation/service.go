package federation

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Service is the OAuth client of the identity core: it builds provider
// authorization URLs and runs the code-for-profile exchange, leaving
// transaction custody and account resolution to its callers.
type Service struct {
	registry    *Registry
	callbackURL string
}

// NewService creates a federation Service. callbackURL is the externally
// reachable backend callback endpoint registered with every provider; it
// must be server-reachable, not browser-relative.
func NewService(registry *Registry, callbackURL string) *Service {
	return &Service{registry: registry, callbackURL: callbackURL}
}

// Registry exposes the provider registry for configuration checks.
func (s *Service) Registry() *Registry {
	return s.registry
}

// AuthorizationURL builds the provider redirect for one transaction. The
// state is the transaction id; only the S256 digest of the PKCE verifier is
// sent to the provider.
func (s *Service) AuthorizationURL(providerName, state, pkceVerifier string) (string, error) {
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return "", err
	}
	return provider.AuthCodeURL(state, s.callbackURL, oauth2.S256ChallengeOption(pkceVerifier))
}

// ExchangeCodeForIdentity swaps the authorization code for provider tokens
// and fetches the normalized identity. Upstream failures keep their status
// and body in the wrapped error for diagnostics.
func (s *Service) ExchangeCodeForIdentity(ctx context.Context, providerName, code, pkceVerifier string) (*NormalizedIdentity, error) {
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	token, err := provider.ExchangeCode(ctx, s.callbackURL, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	identity, err := provider.FetchIdentity(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfoFetchFailed, err)
	}
	return identity, nil
}
