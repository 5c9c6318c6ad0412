package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("x", nil), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{Unauthorized(""), http.StatusUnauthorized},
		{Forbidden(""), http.StatusForbidden},
		{NotFound("nope"), http.StatusNotFound},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.Status(), tc.err.Message)
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("deadlock found")
	err := Internal(cause)

	assert.Equal(t, InternalMessage, err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("signin: %w", Unauthorized("Credenciales inválidas."))

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "Credenciales inválidas.", e.Message)
	assert.True(t, Is(wrapped, KindUnauthorized))
	assert.False(t, Is(wrapped, KindForbidden))
}
