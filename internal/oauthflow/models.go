package oauthflow

import "time"

// Transaction is the server-held state of one in-flight SSO login. It is
// created on initiation, consumed exactly once by the provider callback, and
// swept after TransactionTTL regardless.
//
// The transaction id doubles as the OAuth2 `state` parameter; the PKCE
// verifier never leaves the process, only its S256 digest is sent to the
// provider.
type Transaction struct {
	ID                  string    `json:"id"`
	Provider            string    `json:"provider"`
	FrontendRedirectURI string    `json:"frontend_redirect_uri"`
	PKCEVerifier        string    `json:"pkce_verifier"`
	CreatedAt           time.Time `json:"created_at"`
}
