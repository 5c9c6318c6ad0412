package middleware

// identity.go holds the context keys the guards write and the accessors
// handlers use to read the authenticated caller.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/utils"
)

const (
	identityKey        = "identity"
	refreshIdentityKey = "refresh_identity"
)

// RefreshIdentity is what the refresh guard attaches: the verified payload
// plus the raw token so the session service can compare it.
type RefreshIdentity struct {
	Payload      *utils.TokenPayload
	RefreshToken string
}

// IdentityFrom returns the payload attached by AccessGuard.
func IdentityFrom(c echo.Context) (*utils.TokenPayload, bool) {
	p, ok := c.Get(identityKey).(*utils.TokenPayload)
	return p, ok && p != nil
}

// RefreshIdentityFrom returns the identity attached by RefreshGuard.
func RefreshIdentityFrom(c echo.Context) (RefreshIdentity, bool) {
	id, ok := c.Get(refreshIdentityKey).(RefreshIdentity)
	return id, ok && id.Payload != nil
}

// userID returns the caller's id for rate-limit keys, or "anon".
func userID(c echo.Context) string {
	if p, ok := IdentityFrom(c); ok {
		return strconv.FormatInt(p.UserID, 10)
	}
	return "anon"
}
