package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

type RefreshVerifier interface {
	VerifyRefresh(token string) (*utils.TokenPayload, error)
}

// RefreshGuard protects the refresh endpoint.  Only the refresh_token
// cookie is accepted, never a header.
func RefreshGuard(v RefreshVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(RefreshCookie)
			if err != nil || ck.Value == "" {
				return apperr.Unauthorized("Credenciales de renovación no encontradas.")
			}
			p, err := v.VerifyRefresh(ck.Value)
			if err != nil {
				return apperr.Unauthorized("Credenciales de renovación inválidas o expiradas")
			}
			c.Set(refreshIdentityKey, RefreshIdentity{Payload: p, RefreshToken: ck.Value})
			return next(c)
		}
	}
}
