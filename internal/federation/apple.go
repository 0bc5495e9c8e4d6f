package federation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// AppleEndpoint is the Sign in with Apple endpoint pair. Apple has no
// user-info endpoint: identity claims arrive in the ID token returned by the
// code exchange.
var AppleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://appleid.apple.com/auth/authorize",
	TokenURL: "https://appleid.apple.com/auth/token",
}

var appleDefaultScopes = []string{"name", "email"}

// AppleProvider implements Provider for Sign in with Apple. The configured
// client secret must be the pre-generated Apple client secret JWT.
type AppleProvider struct {
	*BaseProvider
}

func NewAppleProvider(config ProviderConfig) *AppleProvider {
	config.Name = ProviderApple
	if len(config.Scopes) == 0 {
		config.Scopes = appleDefaultScopes
	}
	return &AppleProvider{BaseProvider: NewBaseProvider(config, AppleEndpoint)}
}

// FetchIdentity reads the identity claims out of the ID token. The token
// was obtained directly from Apple's token endpoint over TLS in the same
// exchange, so its payload is read without a second signature check.
func (a *AppleProvider) FetchIdentity(_ context.Context, token *oauth2.Token) (*NormalizedIdentity, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("apple: token response contained no id_token")
	}

	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("apple: malformed id_token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("apple: decode id_token payload: %w", err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("apple: unmarshal id_token claims: %w", err)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("apple: id_token carried no subject")
	}

	// Apple sends the user's name only in the `user` form field of the very
	// first authorization, never in the ID token, so the email stands in as
	// the display name.
	return NewNormalizedIdentity(claims.Sub, claims.Email, claims.Email), nil
}

var _ Provider = (*AppleProvider)(nil)
