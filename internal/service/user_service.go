package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

const (
	msgEmailTaken = "El correo electrónico ya se encuentra registrado"
	msgPhoneTaken = "El número de teléfono ya se encuentra registrado"
)

// Registration is a validated signup request.
type Registration struct {
	Name     string
	LastName string
	Email    string
	Phone    string
	Password string
}

type UserService struct {
	users UserStore
	cost  int
	pub   Publisher
	log   *slog.Logger
}

func NewUserService(users UserStore, cost int, pub Publisher, log *slog.Logger) *UserService {
	return &UserService{users: users, cost: cost, pub: pub, log: log}
}

// Register creates an account.  Email and phone must both be unused; when
// both collide the email message is reported.
func (s *UserService) Register(ctx context.Context, r Registration) (int64, error) {
	var emailTaken, phoneTaken bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		emailTaken, err = exists(s.users.GetByEmail(gctx, r.Email))
		return err
	})
	g.Go(func() error {
		var err error
		phoneTaken, err = exists(s.users.GetByPhone(gctx, r.Phone))
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, internal("signup uniqueness", err)
	}
	if emailTaken {
		return 0, apperr.Conflict(msgEmailTaken)
	}
	if phoneTaken {
		return 0, apperr.Conflict(msgPhoneTaken)
	}

	hash, err := utils.HashPassword(r.Password, s.cost)
	if err != nil {
		return 0, internal("hash password", err)
	}
	id, err := s.users.Create(ctx, model.NewUser{
		Name:         r.Name,
		LastName:     r.LastName,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, apperr.Conflict(msgEmailTaken)
		}
		return 0, internal("create user", err)
	}
	publish(ctx, s.pub, s.log, queue.NewEvent(queue.UserRegistered, 0, id, id))
	return id, nil
}

func exists(_ model.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}
