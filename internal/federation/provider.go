package federation

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// NormalizedIdentity is the provider-agnostic identity produced after a
// successful token exchange. It is transient and never persisted verbatim;
// the email is the join key to local accounts.
type NormalizedIdentity struct {
	// ExternalID is the user's id within the provider (e.g. Google's `sub`),
	// opaque and provider-scoped.
	ExternalID  string
	Email       string
	DisplayName string
}

// NewNormalizedIdentity applies the canonical email normalization: local
// account lookup joins on a lower-cased, trimmed email.
func NewNormalizedIdentity(externalID, email, displayName string) *NormalizedIdentity {
	return &NormalizedIdentity{
		ExternalID:  externalID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
	}
}

// Provider is the interface one external identity provider implements.
// Adding a provider means one more implementation here plus a registry case,
// never a longer branch inside the flow.
type Provider interface {
	// Name returns the provider tag ("google", "github", ...).
	Name() string

	// OAuth2Config returns the provider's oauth2.Config bound to the given
	// backend callback URL. Fails with ErrProviderNotConfigured when the
	// credential pair is absent.
	OAuth2Config(redirectURL string) (*oauth2.Config, error)

	// AuthCodeURL builds the provider authorization URL for a login. The
	// state parameter is the transaction id; PKCE options are appended by
	// the caller.
	AuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error)

	// ExchangeCode swaps the authorization code for provider tokens.
	ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// FetchIdentity calls the provider's user-info surface and normalizes
	// the response.
	FetchIdentity(ctx context.Context, token *oauth2.Token) (*NormalizedIdentity, error)
}

// ProviderConfig carries the externally supplied per-provider settings.
// Credentials are configuration, never embedded in code.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	// Tenant is the directory tenant for Microsoft, "common" when empty.
	Tenant string
	// BaseURL is the org-specific issuer base for Okta.
	BaseURL string
	Scopes  []string
}

// Configured reports whether the credential pair is present.
func (c ProviderConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// BaseProvider carries the pieces shared by every OAuth2 provider: the
// credential config and a fixed endpoint pair. Specific providers embed it
// and override FetchIdentity.
type BaseProvider struct {
	config   ProviderConfig
	endpoint oauth2.Endpoint
}

func NewBaseProvider(config ProviderConfig, endpoint oauth2.Endpoint) *BaseProvider {
	return &BaseProvider{config: config, endpoint: endpoint}
}

func (b *BaseProvider) Name() string {
	return b.config.Name
}

func (b *BaseProvider) OAuth2Config(redirectURL string) (*oauth2.Config, error) {
	if !b.config.Configured() {
		return nil, ErrProviderNotConfigured
	}
	return &oauth2.Config{
		ClientID:     b.config.ClientID,
		ClientSecret: b.config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       b.config.Scopes,
		Endpoint:     b.endpoint,
	}, nil
}

func (b *BaseProvider) AuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	conf, err := b.OAuth2Config(redirectURL)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, opts...), nil
}

func (b *BaseProvider) ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	conf, err := b.OAuth2Config(redirectURL)
	if err != nil {
		return nil, err
	}
	return conf.Exchange(ctx, code, opts...)
}

// httpClient returns a client that authenticates requests with the given
// token, for user-info calls.
func (b *BaseProvider) httpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
}
