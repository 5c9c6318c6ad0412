package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/logging"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/repository"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

const testCost = 4

func testIssuer() *utils.TokenIssuer {
	return utils.NewTokenIssuer("access-secret", "refresh-secret", 16*time.Minute, 7*24*time.Hour)
}

func testUser(t *testing.T, password string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, testCost)
	require.NoError(t, err)
	company := int64(3)
	role := model.RoleAdmin
	return model.User{
		ID: 1, Name: "Test", LastName: "User", Email: "testuser@gmail.com",
		Phone: "+56911111111", PasswordHash: hash, CompanyID: &company, RoleID: &role,
	}
}

func assertUnauthorized(t *testing.T, err error, msg string) {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, apperr.KindUnauthorized, e.Kind)
	assert.Equal(t, msg, e.Message)
}

func TestSignInIssuesSession(t *testing.T) {
	u := testUser(t, "testuser!")
	users := new(mockUsers)
	tokens := new(mockTokens)
	users.On("GetByEmail", mock.Anything, "testuser@gmail.com").Return(u, nil)
	tokens.On("UpdateRefreshToken", mock.Anything, mock.MatchedBy(func(h *string) bool { return h != nil && *h != "" }), int64(1)).Return(nil)

	issuer := testIssuer()
	svc := NewSessionService(users, tokens, issuer, testCost, logging.Discard())
	sess, err := svc.SignIn(context.Background(), "testuser@gmail.com", "testuser!")
	require.NoError(t, err)

	assert.Equal(t, int64(1), sess.Profile.UserID)
	require.NotNil(t, sess.Profile.RolID)
	assert.Equal(t, model.RoleAdmin, *sess.Profile.RolID)

	ap, err := issuer.VerifyAccess(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *ap.CompanyID)
	_, err = issuer.VerifyRefresh(sess.RefreshToken)
	require.NoError(t, err)
	_, err = issuer.VerifyAccess(sess.RefreshToken)
	assert.Error(t, err, "refresh token must not pass as access token")

	stored := tokens.Calls[0].Arguments.Get(1).(*string)
	assert.True(t, utils.VerifyToken(*stored, sess.RefreshToken))
	tokens.AssertExpectations(t)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	u := testUser(t, "testuser!")
	users := new(mockUsers)
	tokens := new(mockTokens)
	users.On("GetByEmail", mock.Anything, "testuser@gmail.com").Return(u, nil)
	users.On("GetByEmail", mock.Anything, "nobody@gmail.com").Return(model.User{}, repository.ErrNotFound)

	svc := NewSessionService(users, tokens, testIssuer(), testCost, logging.Discard())

	_, err := svc.SignIn(context.Background(), "testuser@gmail.com", "wrong-pass!")
	assertUnauthorized(t, err, "Credenciales inválidas.")

	_, err = svc.SignIn(context.Background(), "nobody@gmail.com", "testuser!")
	assertUnauthorized(t, err, "Credenciales inválidas.")

	tokens.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignInStoreFailureIsInternal(t *testing.T) {
	users := new(mockUsers)
	users.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, errors.New("connection refused"))

	svc := NewSessionService(users, new(mockTokens), testIssuer(), testCost, logging.Discard())
	_, err := svc.SignIn(context.Background(), "testuser@gmail.com", "testuser!")
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestSignInPersistFailureIsInternal(t *testing.T) {
	u := testUser(t, "testuser!")
	users := new(mockUsers)
	tokens := new(mockTokens)
	users.On("GetByEmail", mock.Anything, mock.Anything).Return(u, nil)
	tokens.On("UpdateRefreshToken", mock.Anything, mock.Anything, int64(1)).
		Return(apperr.Internal(errors.New("tx aborted")))

	svc := NewSessionService(users, tokens, testIssuer(), testCost, logging.Discard())
	_, err := svc.SignIn(context.Background(), "testuser@gmail.com", "testuser!")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.InternalMessage, e.Message)
}

func TestRefreshRotatesAndDetectsReplay(t *testing.T) {
	store := newMemUsers(testUser(t, "testuser!"))
	svc := NewSessionService(store, store, testIssuer(), testCost, logging.Discard())
	ctx := context.Background()

	first, err := svc.SignIn(ctx, "testuser@gmail.com", "testuser!")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, 1, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	// replaying the rotated token closes the session
	_, err = svc.Refresh(ctx, 1, first.RefreshToken)
	assertUnauthorized(t, err, "Acceso denegado")
	assert.Nil(t, store.storedHash(1))

	// and the newest token is dead too
	_, err = svc.Refresh(ctx, 1, second.RefreshToken)
	assertUnauthorized(t, err, "Acceso denegado")
}

func TestRefreshPicksUpRoleChanges(t *testing.T) {
	u := testUser(t, "testuser!")
	store := newMemUsers(u)
	issuer := testIssuer()
	svc := NewSessionService(store, store, issuer, testCost, logging.Discard())
	ctx := context.Background()

	sess, err := svc.SignIn(ctx, u.Email, "testuser!")
	require.NoError(t, err)

	ceo := model.RoleCeo
	store.mu.Lock()
	row := store.users[1]
	row.RoleID = &ceo
	store.users[1] = row
	store.mu.Unlock()

	next, err := svc.Refresh(ctx, 1, sess.RefreshToken)
	require.NoError(t, err)
	p, err := issuer.VerifyAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCeo, *p.Role)
}

func TestRefreshWithoutSession(t *testing.T) {
	store := newMemUsers(testUser(t, "testuser!"))
	svc := NewSessionService(store, store, testIssuer(), testCost, logging.Discard())

	_, err := svc.Refresh(context.Background(), 1, "whatever")
	assertUnauthorized(t, err, "Acceso denegado")

	_, err = svc.Refresh(context.Background(), 42, "whatever")
	assertUnauthorized(t, err, "Acceso denegado")
}

func TestLogoutClearsSession(t *testing.T) {
	store := newMemUsers(testUser(t, "testuser!"))
	svc := NewSessionService(store, store, testIssuer(), testCost, logging.Discard())
	ctx := context.Background()

	sess, err := svc.SignIn(ctx, "testuser@gmail.com", "testuser!")
	require.NoError(t, err)
	require.NotNil(t, store.storedHash(1))

	require.NoError(t, svc.Logout(ctx, 1))
	assert.Nil(t, store.storedHash(1))

	_, err = svc.Refresh(ctx, 1, sess.RefreshToken)
	assertUnauthorized(t, err, "Acceso denegado")
}

func TestProfileAndReissue(t *testing.T) {
	store := newMemUsers(testUser(t, "testuser!"))
	svc := NewSessionService(store, store, testIssuer(), testCost, logging.Discard())
	ctx := context.Background()

	p, err := svc.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Test", p.Name)

	_, err = svc.Profile(ctx, 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	sess, err := svc.ReissueForUser(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotNil(t, store.storedHash(1))
}

func TestDummyHashFallsBackOnBadCost(t *testing.T) {
	var buf bytes.Buffer
	svc := NewSessionService(new(mockUsers), new(mockTokens), testIssuer(), 32, logging.New(&buf, "debug", "json"))

	h := svc.dummy()
	require.NotEmpty(t, h)
	assert.False(t, utils.VerifyPassword(h, "testuser!"))
	assert.Contains(t, buf.String(), "dummy hash at configured cost failed")
}
