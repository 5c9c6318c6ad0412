package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
)

const msgUserNotFound = "Usuario no encontrado."

// CompanyUserService manages the members of one company.  Every operation
// is scoped to the caller's company; targets outside it are not found.
type CompanyUserService struct {
	members CompanyUserStore
	pub     Publisher
	log     *slog.Logger
}

func NewCompanyUserService(members CompanyUserStore, pub Publisher, log *slog.Logger) *CompanyUserService {
	return &CompanyUserService{members: members, pub: pub, log: log}
}

func (s *CompanyUserService) List(ctx context.Context, companyID int64) ([]model.CompanyUser, error) {
	users, err := s.members.List(ctx, companyID)
	if err != nil {
		return nil, internal("list company users", err)
	}
	return users, nil
}

// Remove detaches userID from the company and closes their session.
func (s *CompanyUserService) Remove(ctx context.Context, actorID, companyID, userID int64) error {
	if err := s.members.Remove(ctx, companyID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return internal("remove company user", err)
	}
	publish(ctx, s.pub, s.log, queue.NewEvent(queue.UserRemoved, companyID, actorID, userID))
	return nil
}

// ChangeRole assigns role to userID.
func (s *CompanyUserService) ChangeRole(ctx context.Context, actorID, companyID, userID int64, role model.Role) error {
	if !role.Valid() {
		return apperr.Validation("El rol no es válido", map[string]string{"roleId": "El rol no es válido"})
	}
	if err := s.members.UpdateRole(ctx, companyID, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return internal("change role", err)
	}
	ev := queue.NewEvent(queue.UserRoleChanged, companyID, actorID, userID)
	ev.Data = map[string]string{"role": role.String(), "role_id": strconv.Itoa(int(role))}
	publish(ctx, s.pub, s.log, ev)
	return nil
}
