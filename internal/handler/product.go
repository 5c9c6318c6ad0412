package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/service"
)

const msgNegativePrice = "El precio no puede ser negativo."

// ProductHandler serves product CRUD for the caller's company.  The company
// id is always taken from the token, never from the request.
type ProductHandler struct {
	Products *service.ProductService
}

func NewProductHandler(p *service.ProductService) *ProductHandler { return &ProductHandler{Products: p} }

type productRequest struct {
	Name        string           `json:"name" validate:"required,max=50"`
	Description string           `json:"description" validate:"max=300"`
	SKU         string           `json:"sku" validate:"required,max=15"`
	Stock       *int             `json:"stock" validate:"required,min=0"`
	Category    *int64           `json:"category" validate:"required,min=1"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
}

type productPatchRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string          `json:"description" validate:"omitempty,max=300"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=15"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	Category    *int64           `json:"category" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
}

type productQueryRequest struct {
	Limit  int    `query:"limit" validate:"omitempty,min=1"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Filter string `query:"filter"`
	Search string `query:"search"`
}

func negativePrice(p *decimal.Decimal) error {
	if p != nil && p.IsNegative() {
		return apperr.Validation(msgNegativePrice, map[string]string{"price": msgNegativePrice})
	}
	return nil
}

func (h *ProductHandler) Create(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := negativePrice(req.Price); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err = h.Products.Create(ctx, p.UserID, model.NewProduct{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		SKU:         strings.TrimSpace(req.SKU),
		Stock:       *req.Stock,
		CategoryID:  *req.Category,
		Price:       *req.Price,
		CompanyID:   companyID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Producto añadido correctamente."})
}

func (h *ProductHandler) List(c echo.Context) error {
	return h.page(c, h.Products.List)
}

func (h *ProductHandler) Search(c echo.Context) error {
	return h.page(c, h.Products.Search)
}

type pageFunc func(ctx context.Context, companyID int64, q model.ProductQuery) (model.ProductPage, error)

func (h *ProductHandler) page(c echo.Context, fetch pageFunc) error {
	_, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	var req productQueryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := fetch(ctx, companyID, model.ProductQuery{Limit: req.Limit, Page: req.Page, Filter: req.Filter, Search: req.Search})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) Get(c echo.Context) error {
	_, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Products.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update applies a partial update; absent fields keep their value.
func (h *ProductHandler) Update(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req productPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := negativePrice(req.Price); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	patch := model.ProductPatch{
		Name:        trimmed(req.Name),
		Description: trimmed(req.Description),
		SKU:         trimmed(req.SKU),
		Stock:       req.Stock,
		CategoryID:  req.Category,
		Price:       req.Price,
	}
	if err := h.Products.Update(ctx, p.UserID, companyID, id, patch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Producto actualizado correctamente."})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	p, companyID, err := companyCaller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Products.Delete(ctx, p.UserID, companyID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Producto eliminado."})
}
