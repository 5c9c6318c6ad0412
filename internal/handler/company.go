package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/service"
)

// CompanyHandler manages the caller's company.  Create and delete change
// the caller's role and company, so a new session is issued afterwards.
type CompanyHandler struct {
	Companies *service.CompanyService
	Sessions  *service.SessionService
	Cookies   Cookies
}

func NewCompanyHandler(cs *service.CompanyService, ss *service.SessionService, ck Cookies) *CompanyHandler {
	return &CompanyHandler{Companies: cs, Sessions: ss, Cookies: ck}
}

type companyRequest struct {
	Name  string `json:"name" validate:"required,max=30"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,clphone"`
}

type companyPatchRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=30"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,clphone"`
}

func (h *CompanyHandler) Create(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req companyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err = h.Companies.Create(ctx, p.UserID, model.NewCompany{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return err
	}
	sess, err := h.Sessions.ReissueForUser(ctx, p.UserID)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, sess)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Compañía creada con éxito",
		"userProfile": sess.Profile,
	})
}

func (h *CompanyHandler) Update(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	var req companyPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	patch := model.CompanyPatch{Name: trimmed(req.Name), Email: trimmed(req.Email), Phone: trimmed(req.Phone)}
	if patch.Email != nil {
		lower := strings.ToLower(*patch.Email)
		patch.Email = &lower
	}
	if err := h.Companies.Update(ctx, p.UserID, companyID, patch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Compañía actualizada con éxito"})
}

func (h *CompanyHandler) Delete(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Companies.Delete(ctx, p.UserID, companyID); err != nil {
		return err
	}
	sess, err := h.Sessions.ReissueForUser(ctx, p.UserID)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, sess)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Compañia eliminada con éxito",
		"userProfile": sess.Profile,
	})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
