package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/model"
)

// RequireRole returns a middleware that lets the request through only when
// the identity attached by AccessGuard carries one of roles.  A missing
// identity or a user without a role is rejected with 403 as well.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	// set of allowed roles for constant-time lookups
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := IdentityFrom(c)
			if !ok || !p.HasRole(allowed) {
				return apperr.Forbidden("")
			}
			return next(c)
		}
	}
}
