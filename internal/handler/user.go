package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/service"
)

type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(u *service.UserService) *UserHandler { return &UserHandler{Users: u} }

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=30"`
	LastName string `json:"lastName" validate:"required,max=30"`
	Password string `json:"password" validate:"required,min=7,max=72,special"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,clphone"`
}

// Signup registers a new account without a company or role.
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.Users.Register(ctx, service.Registration{
		Name:     strings.TrimSpace(req.Name),
		LastName: strings.TrimSpace(req.LastName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Usuario registrado correctamente"})
}
