package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/service"
)

type CompanyUserHandler struct {
	Members *service.CompanyUserService
}

func NewCompanyUserHandler(m *service.CompanyUserService) *CompanyUserHandler {
	return &CompanyUserHandler{Members: m}
}

type roleRequest struct {
	RoleID *int `json:"roleId" validate:"required"`
}

func (h *CompanyUserHandler) List(c echo.Context) error {
	_, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Members.List(ctx, companyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// Remove detaches a member from the caller's company.
func (h *CompanyUserHandler) Remove(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Members.Remove(ctx, p.UserID, companyID, userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Usuario eliminado con éxito"})
}

func (h *CompanyUserHandler) ChangeRole(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Members.ChangeRole(ctx, p.UserID, companyID, userID, model.Role(*req.RoleID)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Rol modificado con éxito"})
}
