package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/user-service/internal/api/metrics"
	"github.com/usermgmt/user-service/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextKeyUsername = "username"
	ContextKeyRoles    = "roles"
)

// Auth validates the bearer token and injects the caller's username and
// roles into the context.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := tokens.ResolveBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header")
			}

			if !tokens.Verify(raw) {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			username, err := tokens.ExtractUsername(raw)
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			roles, err := tokens.ExtractRoles(raw)
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyUsername, username)
			c.Set(ContextKeyRoles, roles)

			return next(c)
		}
	}
}
