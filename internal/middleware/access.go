package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

// AccessCookie and RefreshCookie name the session cookies.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// AccessVerifier checks access tokens.  *utils.TokenIssuer satisfies it.
type AccessVerifier interface {
	VerifyAccess(token string) (*utils.TokenPayload, error)
}

// AccessGuard authenticates every non-public request.  The token comes from
// "Authorization: Bearer", or from the access_token cookie when the header
// is absent or malformed.  The verified payload is stored under "identity".
// isPublic may be nil, in which case every route is protected.
func AccessGuard(v AccessVerifier, isPublic func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublic != nil && isPublic(c) {
				return next(c)
			}
			raw := bearerToken(c)
			if raw == "" {
				if ck, err := c.Cookie(AccessCookie); err == nil {
					raw = ck.Value
				}
			}
			if raw == "" {
				return apperr.Unauthorized("")
			}
			p, err := v.VerifyAccess(raw)
			if err != nil {
				return apperr.Unauthorized("")
			}
			c.Set(identityKey, p)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
