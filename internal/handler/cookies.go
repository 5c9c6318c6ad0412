package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/middleware"
	"github.com/iliyamo/stock-inventory/internal/service"
)

// RefreshCookiePath limits the refresh cookie to the refresh endpoint.
const RefreshCookiePath = "/auth/refresh"

// Cookies writes and clears the session cookies.  Both are HttpOnly and
// SameSite=Lax; Secure is set in production.
type Cookies struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (ck Cookies) Set(c echo.Context, s service.Session) {
	c.SetCookie(ck.cookie(middleware.AccessCookie, s.AccessToken, "/", ck.AccessTTL))
	c.SetCookie(ck.cookie(middleware.RefreshCookie, s.RefreshToken, RefreshCookiePath, ck.RefreshTTL))
}

// Clear expires both cookies on the paths they were set with.
func (ck Cookies) Clear(c echo.Context) {
	for _, cookie := range []*http.Cookie{
		ck.cookie(middleware.AccessCookie, "", "/", 0),
		ck.cookie(middleware.RefreshCookie, "", RefreshCookiePath, 0),
	} {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.SetCookie(cookie)
	}
}

func (ck Cookies) cookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
