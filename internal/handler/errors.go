package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/logging"
)

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ErrorHandler renders every error returned by handlers and middleware as
// {"message", "errors"}.  Internal causes are logged, never sent.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := render(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c).Error("request failed", "err", err, "status", status)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func render(err error) (int, errorBody) {
	if e, ok := apperr.As(err); ok {
		return e.Status(), errorBody{Message: e.Message, Errors: e.Fields}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			msg = apperr.InternalMessage
		}
		return he.Code, errorBody{Message: msg}
	}
	return http.StatusInternalServerError, errorBody{Message: apperr.InternalMessage}
}
