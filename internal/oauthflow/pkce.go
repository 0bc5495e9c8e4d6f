package oauthflow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// randomToken returns a URL-safe string with n bytes of entropy from the
// platform CSPRNG. rand.Read never fails on supported platforms.
func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// NewTransactionID returns an unguessable transaction id (256 bits).
func NewTransactionID() string {
	return randomToken(32)
}

// NewPKCEVerifier returns a high-entropy PKCE code verifier per RFC 7636.
func NewPKCEVerifier() string {
	return randomToken(32)
}

// ChallengeS256 derives the code_challenge sent to the provider from a
// verifier: base64url(SHA-256(verifier)) without padding.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
