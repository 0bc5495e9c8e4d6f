package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

var oktaDefaultScopes = []string{"openid", "email", "profile"}

// OktaProvider implements Provider against an org-specific Okta domain. The
// endpoint pair and user-info URL are derived from the configured base URL
// (e.g. https://dev-123456.okta.com).
type OktaProvider struct {
	*BaseProvider
	base        string
	userInfoURL string
}

func NewOktaProvider(config ProviderConfig) *OktaProvider {
	config.Name = ProviderOkta
	if len(config.Scopes) == 0 {
		config.Scopes = oktaDefaultScopes
	}
	base := strings.TrimRight(config.BaseURL, "/")
	endpoint := oauth2.Endpoint{
		AuthURL:  base + "/oauth2/v1/authorize",
		TokenURL: base + "/oauth2/v1/token",
	}
	return &OktaProvider{
		BaseProvider: NewBaseProvider(config, endpoint),
		base:         base,
		userInfoURL:  base + "/oauth2/v1/userinfo",
	}
}

// OAuth2Config fails closed when the org base URL is missing, in addition
// to the credential checks shared with every provider.
func (o *OktaProvider) OAuth2Config(redirectURL string) (*oauth2.Config, error) {
	if o.base == "" {
		return nil, ErrProviderNotConfigured
	}
	return o.BaseProvider.OAuth2Config(redirectURL)
}

func (o *OktaProvider) AuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	conf, err := o.OAuth2Config(redirectURL)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, opts...), nil
}

func (o *OktaProvider) ExchangeCode(ctx context.Context, redirectURL, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	conf, err := o.OAuth2Config(redirectURL)
	if err != nil {
		return nil, err
	}
	return conf.Exchange(ctx, code, opts...)
}

func (o *OktaProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*NormalizedIdentity, error) {
	resp, err := o.httpClient(ctx, token).Get(o.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("okta: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("okta: userinfo status %d: %s", resp.StatusCode, string(body))
	}

	var profile struct {
		Sub               string `json:"sub"`
		Name              string `json:"name"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("okta: decode userinfo: %w", err)
	}

	email := profile.Email
	if email == "" {
		email = profile.PreferredUsername
	}
	displayName := profile.Name
	if displayName == "" {
		displayName = email
	}
	return NewNormalizedIdentity(profile.Sub, email, displayName), nil
}

var _ Provider = (*OktaProvider)(nil)
