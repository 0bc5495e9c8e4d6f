package errors

import "fmt"

// AuthError is the machine-readable error shape returned by the identity
// core. Code is stable and distinct from the HTTP status, so clients can
// tell "log in again" apart from "retry shortly".
type AuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Session validation rejection codes.
const (
	CodeMissingToken         = "MISSING_TOKEN"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeTokenVersionMismatch = "TOKEN_VERSION_MISMATCH"
	CodeAuthError            = "AUTH_ERROR"
)

// SSO flow error strings. These travel as redirect query parameters, never
// as JSON bodies, so they stay lower_snake per OAuth2 convention.
const (
	InvalidProvider       = "invalid_provider"
	MissingRedirectURI    = "missing_redirect_uri"
	ProviderNotConfigured = "provider_not_configured"
	InvalidOrExpiredState = "invalid_or_expired_state"
	TokenExchangeFailed   = "token_exchange_failed"
	NoAccessToken         = "no_access_token"
	UserInfoFetchFailed   = "userinfo_fetch_failed"
	SSOFailed             = "sso_failed"
)

// Common constructors.

func NewMissingToken() *AuthError {
	return &AuthError{Code: CodeMissingToken, Description: "Authentication token is required"}
}

func NewInvalidToken(description string) *AuthError {
	return &AuthError{Code: CodeInvalidToken, Description: description}
}

func NewUserNotFound() *AuthError {
	return &AuthError{Code: CodeUserNotFound, Description: "Account for this token no longer exists"}
}

func NewTokenVersionMismatch() *AuthError {
	return &AuthError{Code: CodeTokenVersionMismatch, Description: "Token was invalidated, log in again"}
}

func NewAuthError(description string) *AuthError {
	return &AuthError{Code: CodeAuthError, Description: description}
}

func NewInvalidProvider(description string) *AuthError {
	return &AuthError{Code: InvalidProvider, Description: description}
}

func NewMissingRedirectURI() *AuthError {
	return &AuthError{Code: MissingRedirectURI, Description: "redirect_uri query parameter is required"}
}

func NewProviderNotConfigured(description string) *AuthError {
	return &AuthError{Code: ProviderNotConfigured, Description: description}
}
