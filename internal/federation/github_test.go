package federation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/safenode-dev/safenode/internal/federation"
)

func githubConfig() federation.ProviderConfig {
	return federation.ProviderConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
	}
}

func overrideGithubEndpoints(t *testing.T, server *httptest.Server) {
	t.Helper()
	origUser := federation.GithubUserInfoEndpoint
	origEmails := federation.GithubUserEmailsEndpoint
	federation.GithubUserInfoEndpoint = server.URL + "/user"
	federation.GithubUserEmailsEndpoint = server.URL + "/user/emails"
	t.Cleanup(func() {
		federation.GithubUserInfoEndpoint = origUser
		federation.GithubUserEmailsEndpoint = origEmails
	})
}

func TestGitHubProvider_FetchIdentity_PublicEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": 1234, "login": "octocat", "name": "Octo Cat", "email": "Octo@Example.COM"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	overrideGithubEndpoints(t, server)

	provider := federation.NewGitHubProvider(githubConfig())
	identity, err := provider.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.NoError(t, err)

	assert.Equal(t, "1234", identity.ExternalID)
	assert.Equal(t, "octo@example.com", identity.Email)
	assert.Equal(t, "Octo Cat", identity.DisplayName)
}

func TestGitHubProvider_FetchIdentity_PrimaryEmailFromSecondaryCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			// No public email on the profile.
			_, _ = w.Write([]byte(`{"id": 42, "login": "octocat", "name": ""}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[
				{"email": "secondary@example.com", "primary": false},
				{"email": "primary@example.com", "primary": true}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	overrideGithubEndpoints(t, server)

	provider := federation.NewGitHubProvider(githubConfig())
	identity, err := provider.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.NoError(t, err)

	assert.Equal(t, "primary@example.com", identity.Email)
	// Login stands in when the profile name is blank.
	assert.Equal(t, "octocat", identity.DisplayName)
}

func TestGitHubProvider_FetchIdentity_FallsBackToFirstEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id": 42, "login": "octocat"}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[
				{"email": "first@example.com", "primary": false},
				{"email": "second@example.com", "primary": false}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	overrideGithubEndpoints(t, server)

	provider := federation.NewGitHubProvider(githubConfig())
	identity, err := provider.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.NoError(t, err)

	assert.Equal(t, "first@example.com", identity.Email)
}

func TestGitHubProvider_FetchIdentity_UserInfoFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()
	overrideGithubEndpoints(t, server)

	provider := federation.NewGitHubProvider(githubConfig())
	_, err := provider.FetchIdentity(context.Background(), &oauth2.Token{AccessToken: "tok"})
	assert.Error(t, err)
}
