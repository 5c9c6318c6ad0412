package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/middleware"
	"github.com/iliyamo/stock-inventory/internal/service"
)

// AuthHandler serves login, refresh, logout and the caller's profile.
type AuthHandler struct {
	Sessions *service.SessionService
	Cookies  Cookies
}

func NewAuthHandler(s *service.SessionService, ck Cookies) *AuthHandler {
	return &AuthHandler{Sessions: s, Cookies: ck}
}

// loginRequest only checks presence; a malformed email is just a wrong
// credential and fails with 401 like any other.
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and sets both session cookies.  A failed login
// sets no cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, sess)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Sesión iniciada correctamente.",
		"userProfile": sess.Profile,
	})
}

// Refresh rotates the session presented in the refresh_token cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	id, ok := middleware.RefreshIdentityFrom(c)
	if !ok {
		return apperr.Unauthorized("Credenciales de renovación no encontradas.")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Sessions.Refresh(ctx, id.Payload.UserID, id.RefreshToken)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, sess)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Sesión actualizada correctamente.",
		"userProfile": sess.Profile,
	})
}

// Logout closes the caller's session and expires both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, p.UserID); err != nil {
		return err
	}
	h.Cookies.Clear(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Sesión cerrada correctamente."})
}

// Me returns the caller's current profile.
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.Sessions.Profile(ctx, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"userProfile": profile})
}
