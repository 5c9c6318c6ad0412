package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/service"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestValidatorSpanishMessages(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&signupRequest{Name: "Ana", LastName: "Rojas", Password: "abc", Email: "no-es-correo", Phone: "123"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "La contraseña debe tener al menos 7 caracteres", e.Fields["password"])
	assert.Equal(t, "El correo electrónico debe ser válido", e.Fields["email"])
	assert.Equal(t, "El número de teléfono no es válido", e.Fields["phone"])
	assert.Equal(t, e.Fields["password"], e.Message)

	err = v.Validate(&signupRequest{Name: "Ana", LastName: "Rojas", Password: "sinespecial", Email: "ana@acme.cl", Phone: "+56912345678"})
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "La contraseña debe incluir al menos un carácter especial", e.Message)

	assert.NoError(t, v.Validate(&signupRequest{Name: "Ana", LastName: "Rojas", Password: "testuser!", Email: "ana@acme.cl", Phone: "+56 9 1234 5678"}))
}

func TestValidatorCompanyNameLength(t *testing.T) {
	err := NewValidator().Validate(&companyRequest{Name: strings.Repeat("a", 31), Email: "a@b.cl", Phone: "912345678"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "El nombre no debe superar los 30 caracteres", e.Fields["name"])
}

func TestValidatorProductRequired(t *testing.T) {
	err := NewValidator().Validate(&productRequest{Name: "Tornillo"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "El SKU del producto es obligatorio.", e.Fields["sku"])
	assert.Equal(t, "Debes introducir un número de stock.", e.Fields["stock"])
	assert.Equal(t, "Debes introducir una categoría.", e.Fields["category"])
	assert.Equal(t, "Debes introducir el precio del producto.", e.Fields["price"])
}

func TestValidChileanPhone(t *testing.T) {
	for _, ok := range []string{"+56912345678", "56912345678", "912345678", "+56 2 2345 6789"} {
		assert.True(t, ValidChileanPhone(ok), ok)
	}
	for _, bad := range []string{"", "12345", "+1 555 123 4567", "+5691234567a", "012345678"} {
		assert.False(t, ValidChileanPhone(bad), bad)
	}
}

func TestErrorHandlerRendering(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("bad", map[string]string{"email": "bad"}), 400, "bad"},
		{"unauthorized", apperr.Unauthorized(""), 401, "Unauthorized"},
		{"forbidden", apperr.Forbidden(""), 403, "Forbidden resource"},
		{"not found", apperr.NotFound("El producto no fue encontrado."), 404, "El producto no fue encontrado."},
		{"internal hides cause", apperr.Internal(errors.New("deadlock")), 500, "Hubo un error."},
		{"unknown", errors.New("boom"), 500, "Hubo un error."},
		{"echo 404", echo.ErrNotFound, 404, "Not Found"},
		{"echo 405", echo.ErrMethodNotAllowed, 405, "Method Not Allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.msg, body.Message)
			assert.NotContains(t, rec.Body.String(), "deadlock")
		})
	}
}

func TestCookiesSetAndClear(t *testing.T) {
	ck := Cookies{Secure: true, AccessTTL: 16 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}
	e := newEcho()

	rec := httptest.NewRecorder()
	ck.Set(e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec),
		service.Session{AccessToken: "a.b.c", RefreshToken: "d.e.f"})
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	access, refresh := cookies[0], cookies[1]
	assert.Equal(t, "access_token", access.Name)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 16*60, access.MaxAge)
	assert.Equal(t, "refresh_token", refresh.Name)
	assert.Equal(t, "/auth/refresh", refresh.Path)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)
	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}

	rec = httptest.NewRecorder()
	ck.Clear(e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 2)
	for _, c := range cleared {
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
	assert.Equal(t, "/auth/refresh", cleared[1].Path)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := newEcho()

	rec := httptest.NewRecorder()
	require.NoError(t, Health(pinger{})(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, Health(pinger{err: errors.New("down")})(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBindRejectsMalformedBody(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{nope"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var body loginRequest
	err := bind(c, &body)
	e2, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgInvalidBody, e2.Message)
}

func TestProductQueryValidation(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/products?limit=-1", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var q productQueryRequest
	err := bind(c, &q)
	e2, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "El límite debe ser mayor o igual a 1.", e2.Message)
}

func TestPathID(t *testing.T) {
	e := newEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/products/abc", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	_, err := pathID(c, "id")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	c.SetParamValues("42")
	id, err := pathID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
