package federation

import "errors"

var (
	ErrUnknownProvider       = errors.New("unknown identity provider")
	ErrProviderNotConfigured = errors.New("identity provider is not configured")
	ErrTokenExchangeFailed   = errors.New("failed to exchange authorization code for token")
	ErrNoAccessToken         = errors.New("token response contained no access token")
	ErrUserInfoFetchFailed   = errors.New("failed to fetch user info from provider")
)
