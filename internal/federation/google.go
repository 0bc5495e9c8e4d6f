package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth2 "golang.org/x/oauth2/google"
)

// GoogleUserInfoEndpoint is a variable so tests can point it at a local
// server.
var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleEndpoint is the OAuth2 endpoint pair used for Google logins.
var GoogleEndpoint = googleoauth2.Endpoint

var googleDefaultScopes = []string{"openid", "email", "profile"}

// GoogleProvider implements Provider for Google OIDC logins.
type GoogleProvider struct {
	*BaseProvider
}

func NewGoogleProvider(config ProviderConfig) *GoogleProvider {
	config.Name = ProviderGoogle
	if len(config.Scopes) == 0 {
		config.Scopes = googleDefaultScopes
	}
	return &GoogleProvider{BaseProvider: NewBaseProvider(config, GoogleEndpoint)}
}

func (g *GoogleProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*NormalizedIdentity, error) {
	resp, err := g.httpClient(ctx, token).Get(GoogleUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("google: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("google: userinfo status %d: %s", resp.StatusCode, string(body))
	}

	var profile struct {
		Sub        string `json:"sub"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Email      string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("google: decode userinfo: %w", err)
	}

	displayName := profile.Name
	if displayName == "" {
		displayName = profile.Email
	}
	return NewNormalizedIdentity(profile.Sub, profile.Email, displayName), nil
}

var _ Provider = (*GoogleProvider)(nil)
