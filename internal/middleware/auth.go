// Package middleware provides the HTTP request processing shared by all
// handlers: identity resolution, role enforcement, rate limiting and
// response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campushq/campus-events/internal/identity"
)

// identityKey is the echo context key under which the resolved caller
// identity is stored.
const identityKey = "identity"

// Authenticate returns middleware that resolves the Bearer token via
// the identity resolver and stores the resulting Identity in the
// request context. Requests without a valid, known identity are
// rejected with 401; the core never sees an unauthenticated caller.
func Authenticate(resolver *identity.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not_authenticated", "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			ident, err := resolver.Resolve(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not_authenticated", "message": "invalid token"})
			}
			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

// CallerIdentity extracts the resolved identity stored by Authenticate.
// The second return is false when the middleware did not run, which on
// a correctly wired router means a programming error.
func CallerIdentity(c echo.Context) (identity.Identity, bool) {
	ident, ok := c.Get(identityKey).(identity.Identity)
	return ident, ok
}
