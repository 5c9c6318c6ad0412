package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-inventory/internal/model"
)

func samplePayload() TokenPayload {
	company := int64(12)
	role := model.RoleAdmin
	return TokenPayload{UserID: 7, Name: "Ana", LastName: "Rojas", CompanyID: &company, Role: &role}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := Sign(samplePayload(), secret, time.Minute)
	require.NoError(t, err)

	got, err := Verify(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "Rojas", got.LastName)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(12), *got.CompanyID)
	require.NotNil(t, got.Role)
	assert.Equal(t, model.RoleAdmin, *got.Role)
	assert.Equal(t, "7", got.Subject)
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := Sign(samplePayload(), []byte("one"), time.Minute)
	require.NoError(t, err)

	_, err = Verify(tok, []byte("two"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpired(t *testing.T) {
	tok, err := Sign(samplePayload(), []byte("k"), -time.Minute)
	require.NoError(t, err)

	_, err = Verify(tok, []byte("k"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := Verify("not.a.token", []byte("k"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	p := samplePayload()
	p.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, p).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = Verify(tok, []byte("k"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuerKeepsKindsApart(t *testing.T) {
	iss := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)

	access, err := iss.SignAccess(samplePayload())
	require.NoError(t, err)
	refresh, err := iss.SignRefresh(samplePayload())
	require.NoError(t, err)

	_, err = iss.VerifyAccess(access)
	assert.NoError(t, err)
	_, err = iss.VerifyRefresh(refresh)
	assert.NoError(t, err)

	_, err = iss.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = iss.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignProducesDistinctTokens(t *testing.T) {
	iss := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	a, err := iss.SignRefresh(samplePayload())
	require.NoError(t, err)
	b, err := iss.SignRefresh(samplePayload())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNullableClaimsSurvive(t *testing.T) {
	p := TokenPayload{UserID: 3, Name: "Sin", LastName: "Empresa"}
	tok, err := Sign(p, []byte("k"), time.Minute)
	require.NoError(t, err)

	got, err := Verify(tok, []byte("k"))
	require.NoError(t, err)
	assert.Nil(t, got.CompanyID)
	assert.Nil(t, got.Role)
	assert.False(t, got.HasRole(map[model.Role]bool{model.RoleCeo: true}))
}
