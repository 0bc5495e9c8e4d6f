package echo

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	serrors "github.com/safenode-dev/safenode/errors"
	"github.com/safenode-dev/safenode/internal/metrics"
	"github.com/safenode-dev/safenode/middleware"
	"github.com/safenode-dev/safenode/services"
)

// LoginHandler initiates an SSO login: it records a transaction and
// redirects the browser to the provider's authorization endpoint.
func (a *AuthAPI) LoginHandler(c echo.Context) error {
	provider := c.Param("provider")
	redirectURI := c.QueryParam("redirect_uri")

	authURL, err := a.sso.InitiateLogin(c.Request().Context(), provider, redirectURI)
	if err != nil {
		var authErr *serrors.AuthError
		if errors.As(err, &authErr) {
			return c.JSON(http.StatusBadRequest, authErr)
		}
		log.Error().Err(err).Str("provider", provider).Msg("SSO initiation failed")
		return c.JSON(http.StatusInternalServerError, serrors.NewAuthError("Failed to initiate login"))
	}

	return c.Redirect(http.StatusFound, authURL)
}

// CallbackHandler completes an SSO login. The provider redirects here with
// {code, state} on success or {error, error_description} on refusal. Either
// way the browser ends up on a frontend route: provider-initiated failures
// are never surfaced as JSON bodies or 5xx responses.
func (a *AuthAPI) CallbackHandler(c echo.Context) error {
	req := bindCallbackRequest(c)

	if req.Error != "" {
		log.Warn().Str("error", req.Error).
			Str("description", req.ErrorDescription).
			Msg("Provider reported SSO failure")
		return a.redirectError(c, req.Error)
	}

	if req.Code == "" || req.State == "" {
		return a.redirectError(c, serrors.SSOFailed)
	}

	result, err := a.sso.CompleteLogin(c.Request().Context(), req.State, req.Code)
	if err != nil {
		errCode := services.RedirectErrorCode(err)
		log.Warn().Err(err).Str("error_code", errCode).Msg("SSO callback failed")
		return a.redirectError(c, errCode)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  time.Now().Add(a.tokens.SessionTTL()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	target, err := url.Parse(result.FrontendRedirectURI)
	if err != nil {
		return a.redirectError(c, serrors.SSOFailed)
	}
	q := target.Query()
	q.Set("token", result.Token)
	q.Set("user_id", result.Account.ID)
	target.RawQuery = q.Encode()

	return c.Redirect(http.StatusFound, target.String())
}

// MeHandler returns the validated principal.
func (a *AuthAPI) MeHandler(c echo.Context) error {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, serrors.NewMissingToken())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":             account.ID,
		"email":          account.Email,
		"display_name":   account.DisplayName,
		"email_verified": account.EmailVerified,
		"last_login_at":  account.LastLoginAt,
	})
}

// LogoutAllHandler bumps the account's token version, invalidating every
// session token minted before this call, including the one presented here.
func (a *AuthAPI) LogoutAllHandler(c echo.Context) error {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, serrors.NewMissingToken())
	}

	version, err := a.accounts.IncrementTokenVersion(c.Request().Context(), account.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", account.ID).Msg("Token version bump failed")
		return c.JSON(http.StatusInternalServerError, serrors.NewAuthError("Failed to revoke sessions"))
	}

	metrics.TokenVersionBumpsTotal.Inc()
	log.Info().Str("user_id", account.ID).Int64("token_version", version).
		Msg("All sessions revoked")
	return c.JSON(http.StatusOK, map[string]any{"token_version": version})
}

// callbackRequest carries the parameters a provider callback can arrive
// with: query parameters on a GET redirect, or a form or JSON body on a
// POST.
type callbackRequest struct {
	Code             string `query:"code" form:"code" json:"code"`
	State            string `query:"state" form:"state" json:"state"`
	Error            string `query:"error" form:"error" json:"error"`
	ErrorDescription string `query:"error_description" form:"error_description" json:"error_description"`
}

// bindCallbackRequest reads the callback parameters from wherever the
// provider put them. Bind covers query parameters on GET and form or JSON
// bodies on POST; the query fallback covers providers that append query
// parameters to a POST redirect. A malformed body falls through with empty
// fields and fails as missing parameters.
func bindCallbackRequest(c echo.Context) callbackRequest {
	var req callbackRequest
	_ = c.Bind(&req)
	if req.Code == "" {
		req.Code = c.QueryParam("code")
	}
	if req.State == "" {
		req.State = c.QueryParam("state")
	}
	if req.Error == "" {
		req.Error = c.QueryParam("error")
	}
	if req.ErrorDescription == "" {
		req.ErrorDescription = c.QueryParam("error_description")
	}
	return req
}

// redirectError sends the browser to the frontend error surface. The error
// code rides in the query string so the page can render a message without a
// second round trip.
func (a *AuthAPI) redirectError(c echo.Context, errCode string) error {
	metrics.SSOLoginFailedTotal.WithLabelValues(errCode).Inc()
	target, err := url.Parse(a.frontendErrorURL)
	if err != nil {
		return c.Redirect(http.StatusFound, a.frontendErrorURL)
	}
	q := target.Query()
	q.Set("error", errCode)
	target.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, target.String())
}
