package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/model"
)

// RequireRole returns middleware that only admits callers whose
// resolved role is in the allowed set. It must run after Authenticate.
// Callers with any other role get 403 with a stable error kind.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := CallerIdentity(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not_authenticated", "message": "missing identity"})
			}
			if !allowed[ident.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "insufficient role"})
			}
			return next(c)
		}
	}
}
