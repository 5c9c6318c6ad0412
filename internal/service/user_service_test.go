package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/logging"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

func registration() Registration {
	return Registration{Name: "Ana", LastName: "Rojas", Email: "ana@acme.cl", Phone: "+56912345678", Password: "secreta!"}
}

func TestRegisterHashesPassword(t *testing.T) {
	users := new(mockUsers)
	rec := &recorder{}
	users.On("GetByEmail", mock.Anything, "ana@acme.cl").Return(model.User{}, repository.ErrNotFound)
	users.On("GetByPhone", mock.Anything, "+56912345678").Return(model.User{}, repository.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u model.NewUser) bool {
		return u.Email == "ana@acme.cl" && u.PasswordHash != "secreta!" && utils.VerifyPassword(u.PasswordHash, "secreta!")
	})).Return(int64(12), nil)

	svc := NewUserService(users, testCost, rec, logging.Discard())
	id, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, []string{queue.UserRegistered}, rec.types())
	users.AssertExpectations(t)
}

func TestRegisterConflicts(t *testing.T) {
	cases := []struct {
		name        string
		emailTaken  bool
		phoneTaken  bool
		wantMessage string
	}{
		{"email", true, false, "El correo electrónico ya se encuentra registrado"},
		{"phone", false, true, "El número de teléfono ya se encuentra registrado"},
		{"both reports email", true, true, "El correo electrónico ya se encuentra registrado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(mockUsers)
			found := func(taken bool) error {
				if taken {
					return nil
				}
				return repository.ErrNotFound
			}
			users.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{ID: 1}, found(tc.emailTaken))
			users.On("GetByPhone", mock.Anything, mock.Anything).Return(model.User{ID: 2}, found(tc.phoneTaken))

			svc := NewUserService(users, testCost, NoopPublisher{}, logging.Discard())
			_, err := svc.Register(context.Background(), registration())
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindConflict, e.Kind)
			assert.Equal(t, tc.wantMessage, e.Message)
			users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}
