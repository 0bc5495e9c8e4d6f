package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	githuboauth2 "golang.org/x/oauth2/github"
)

// Endpoints are variables so tests can point them at a local server.
var (
	GithubUserInfoEndpoint   = "https://api.github.com/user"
	GithubUserEmailsEndpoint = "https://api.github.com/user/emails"
	GithubEndpoint           = githuboauth2.Endpoint
)

var githubDefaultScopes = []string{"read:user", "user:email"}

// GitHubProvider implements Provider for GitHub. GitHub is plain OAuth2,
// not OIDC, and its profile endpoint may omit a public email, which is why
// a secondary call against the emails endpoint is needed.
type GitHubProvider struct {
	*BaseProvider
}

func NewGitHubProvider(config ProviderConfig) *GitHubProvider {
	config.Name = ProviderGitHub
	if len(config.Scopes) == 0 {
		config.Scopes = githubDefaultScopes
	}
	return &GitHubProvider{BaseProvider: NewBaseProvider(config, GithubEndpoint)}
}

func (g *GitHubProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*NormalizedIdentity, error) {
	client := g.httpClient(ctx, token)

	resp, err := client.Get(GithubUserInfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("github: user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github: user status %d: %s", resp.StatusCode, string(body))
	}

	var profile struct {
		ID    json.Number `json:"id"`
		Login string      `json:"login"`
		Name  string      `json:"name"`
		Email string      `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("github: decode user: %w", err)
	}

	email := profile.Email
	if email == "" {
		email, err = g.fetchPrimaryEmail(ctx, client)
		if err != nil {
			return nil, err
		}
	}

	displayName := profile.Name
	if displayName == "" {
		displayName = profile.Login
	}
	return NewNormalizedIdentity(profile.ID.String(), email, displayName), nil
}

// fetchPrimaryEmail lists the account's emails and picks the one marked
// primary, falling back to the first entry.
func (g *GitHubProvider) fetchPrimaryEmail(_ context.Context, client *http.Client) (string, error) {
	resp, err := client.Get(GithubUserEmailsEndpoint)
	if err != nil {
		return "", fmt.Errorf("github: emails request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("github: emails status %d: %s", resp.StatusCode, string(body))
	}

	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("github: decode emails: %w", err)
	}
	if len(emails) == 0 {
		return "", fmt.Errorf("github: account has no email addresses")
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	return emails[0].Email, nil
}

var _ Provider = (*GitHubProvider)(nil)
