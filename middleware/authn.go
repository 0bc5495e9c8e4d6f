package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/safenode-dev/safenode/domain"
	serrors "github.com/safenode-dev/safenode/errors"
	"github.com/safenode-dev/safenode/services"
)

// SessionCookieName is the same-origin alternative to the Authorization
// header.
const SessionCookieName = "safenode_session"

// principalContextKey is where the validated account is stored on the echo
// context.
const principalContextKey = "safenode_principal"

// RequireSession gates a route group on a valid session token. Rejections
// are 401s carrying a machine-readable code; the account resolved during
// validation is attached to the request context for downstream handlers.
func RequireSession(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, serrors.NewMissingToken())
			}

			account, authErr := tokens.ValidateSession(c.Request().Context(), raw)
			if authErr != nil {
				return c.JSON(http.StatusUnauthorized, authErr)
			}

			c.Set(principalContextKey, account)
			return next(c)
		}
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the session cookie.
func extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AccountFromContext returns the account attached by RequireSession.
func AccountFromContext(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(principalContextKey).(*domain.Account)
	return account, ok
}
