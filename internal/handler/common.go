package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/middleware"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bind decodes the request into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation(MsgInvalidBody, nil)
	}
	return c.Validate(dst)
}

// caller returns the identity attached by the access guard.
func caller(c echo.Context) (*utils.TokenPayload, error) {
	p, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, apperr.Unauthorized("")
	}
	return p, nil
}

// companyCaller returns the identity and its company; callers without a
// company cannot reach company-scoped data.
func companyCaller(c echo.Context) (*utils.TokenPayload, int64, error) {
	p, err := caller(c)
	if err != nil {
		return nil, 0, err
	}
	if p.CompanyID == nil {
		return nil, 0, apperr.Forbidden("")
	}
	return p, *p.CompanyID, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Identificador inválido.", map[string]string{name: "Identificador inválido."})
	}
	return id, nil
}
