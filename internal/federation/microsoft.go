package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	microsoftoauth2 "golang.org/x/oauth2/microsoft"
)

// MicrosoftGraphMeEndpoint is a variable so tests can point it at a local
// server.
var MicrosoftGraphMeEndpoint = "https://graph.microsoft.com/v1.0/me"

// microsoftDefaultTenant is the multi-tenant wildcard used when no directory
// tenant is configured.
const microsoftDefaultTenant = "common"

var microsoftDefaultScopes = []string{"openid", "email", "profile", "User.Read"}

// MicrosoftProvider implements Provider for Microsoft Entra ID. The
// authorize and token URLs are tenant-templated; the configured tenant id is
// injected into the endpoint pair, defaulting to the "common" wildcard.
type MicrosoftProvider struct {
	*BaseProvider
}

func NewMicrosoftProvider(config ProviderConfig) *MicrosoftProvider {
	config.Name = ProviderMicrosoft
	if config.Tenant == "" {
		config.Tenant = microsoftDefaultTenant
	}
	if len(config.Scopes) == 0 {
		config.Scopes = microsoftDefaultScopes
	}
	return &MicrosoftProvider{
		BaseProvider: NewBaseProvider(config, microsoftoauth2.AzureADEndpoint(config.Tenant)),
	}
}

func (m *MicrosoftProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*NormalizedIdentity, error) {
	resp, err := m.httpClient(ctx, token).Get(MicrosoftGraphMeEndpoint)
	if err != nil {
		return nil, fmt.Errorf("microsoft: graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("microsoft: graph status %d: %s", resp.StatusCode, string(body))
	}

	var profile struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("microsoft: decode graph response: %w", err)
	}

	// Personal and guest accounts often carry no `mail`; the UPN is the
	// routable address in that case.
	email := profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}
	return NewNormalizedIdentity(profile.ID, email, profile.DisplayName), nil
}

var _ Provider = (*MicrosoftProvider)(nil)
