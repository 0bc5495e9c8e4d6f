package federation_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safenode-dev/safenode/internal/federation"
	"github.com/safenode-dev/safenode/internal/oauthflow"
)

func testRegistry() *federation.Registry {
	return federation.NewRegistry(map[string]federation.ProviderConfig{
		federation.ProviderGoogle: {
			ClientID:     "google-client-id",
			ClientSecret: "google-secret",
		},
		federation.ProviderMicrosoft: {
			ClientID:     "ms-client-id",
			ClientSecret: "ms-secret",
			Tenant:       "contoso",
		},
		// GitHub entry present but without credentials: must fail closed.
		federation.ProviderGitHub: {},
	})
}

func TestRegistry_Get(t *testing.T) {
	registry := testRegistry()

	p, err := registry.Get(federation.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, federation.ProviderGoogle, p.Name())

	_, err = registry.Get("gitlab")
	assert.ErrorIs(t, err, federation.ErrUnknownProvider)

	_, err = registry.Get(federation.ProviderGitHub)
	assert.ErrorIs(t, err, federation.ErrProviderNotConfigured)

	// SAML is part of the enumeration but has no verifier behind it.
	_, err = registry.Get(federation.ProviderSAML)
	assert.ErrorIs(t, err, federation.ErrProviderNotConfigured)
}

func TestService_AuthorizationURL(t *testing.T) {
	service := federation.NewService(testRegistry(), "https://api.safenode.example/auth/sso/callback")

	verifier := oauthflow.NewPKCEVerifier()
	rawURL, err := service.AuthorizationURL(federation.ProviderGoogle, "txn-state-1", verifier)
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "google-client-id", q.Get("client_id"))
	assert.Equal(t, "txn-state-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://api.safenode.example/auth/sso/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "email")

	// Only the S256 digest of the verifier travels to the provider.
	assert.Equal(t, oauthflow.ChallengeS256(verifier), q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestService_AuthorizationURL_NotConfigured(t *testing.T) {
	service := federation.NewService(testRegistry(), "https://api.safenode.example/auth/sso/callback")

	_, err := service.AuthorizationURL(federation.ProviderApple, "state", "verifier")
	assert.ErrorIs(t, err, federation.ErrProviderNotConfigured)
}

func TestMicrosoftProvider_TenantTemplating(t *testing.T) {
	registry := testRegistry()
	p, err := registry.Get(federation.ProviderMicrosoft)
	require.NoError(t, err)

	rawURL, err := p.AuthCodeURL("state", "https://api.safenode.example/cb")
	require.NoError(t, err)
	assert.True(t, strings.Contains(rawURL, "/contoso/"), "tenant must be injected into the endpoint: %s", rawURL)
}

func TestMicrosoftProvider_DefaultTenant(t *testing.T) {
	p := federation.NewMicrosoftProvider(federation.ProviderConfig{
		ClientID:     "ms-client-id",
		ClientSecret: "ms-secret",
	})

	rawURL, err := p.AuthCodeURL("state", "https://api.safenode.example/cb")
	require.NoError(t, err)
	assert.True(t, strings.Contains(rawURL, "/common/"), "unspecified tenant must fall back to the wildcard: %s", rawURL)
}

func TestKnownProvider(t *testing.T) {
	for _, name := range []string{"google", "microsoft", "github", "apple", "okta", "saml"} {
		assert.True(t, federation.KnownProvider(name), name)
	}
	assert.False(t, federation.KnownProvider("facebook"))
	assert.False(t, federation.KnownProvider(""))
}
