//nolint:varnamelen
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/safenode-dev/safenode/domain"
	"github.com/safenode-dev/safenode/middleware"
	"github.com/safenode-dev/safenode/services"
)

// AuthAPI exposes the SSO flow and the protected session endpoints over
// HTTP.
type AuthAPI struct {
	sso      *services.SSOService
	tokens   *services.TokenService
	accounts domain.AccountRepository

	// frontendErrorURL is the generic error page failed SSO attempts land
	// on, with an `error` query parameter.
	frontendErrorURL string
}

func NewAuthAPI(
	sso *services.SSOService,
	tokens *services.TokenService,
	accounts domain.AccountRepository,
	frontendErrorURL string,
) *AuthAPI {
	return &AuthAPI{
		sso:              sso,
		tokens:           tokens,
		accounts:         accounts,
		frontendErrorURL: frontendErrorURL,
	}
}

// RegisterRoutes registers the identity core's routes. Every other route
// group in the backend hangs off the same RequireSession middleware.
func (a *AuthAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.HealthzHandler)

	e.GET("/auth/sso/:provider/login", a.LoginHandler)
	// Providers redirect back with GET query parameters; Apple posts a form.
	e.GET("/auth/sso/callback", a.CallbackHandler)
	e.POST("/auth/sso/callback", a.CallbackHandler)

	protected := e.Group("/auth", middleware.RequireSession(a.tokens))
	protected.GET("/me", a.MeHandler)
	protected.POST("/logout-all", a.LogoutAllHandler)
}

func (a *AuthAPI) HealthzHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
