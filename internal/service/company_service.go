package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
)

const (
	msgCompanyNameTaken = "Ya existe una empresa con este nombre"
	msgAlreadyInCompany = "El usuario ya pertenece a una empresa"
	msgCompanyNotFound  = "Empresa no encontrada."
)

type CompanyService struct {
	companies CompanyStore
	users     UserStore
	cache     CacheInvalidator
	pub       Publisher
	log       *slog.Logger
}

func NewCompanyService(companies CompanyStore, users UserStore, cache CacheInvalidator, pub Publisher, log *slog.Logger) *CompanyService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &CompanyService{companies: companies, users: users, cache: cache, pub: pub, log: log}
}

// Create registers a company owned by ownerID, who becomes its Ceo.  The
// owner must not belong to a company yet.
func (s *CompanyService) Create(ctx context.Context, ownerID int64, c model.NewCompany) (int64, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperr.Unauthorized("")
		}
		return 0, internal("company owner lookup", err)
	}
	if owner.CompanyID != nil {
		return 0, apperr.Conflict(msgAlreadyInCompany)
	}

	taken, err := s.companies.NameTaken(ctx, c.Name)
	if err != nil {
		return 0, internal("company name check", err)
	}
	if taken {
		return 0, apperr.Conflict(msgCompanyNameTaken)
	}

	id, err := s.companies.Create(ctx, ownerID, c)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, apperr.Conflict(msgCompanyNameTaken)
		}
		return 0, internal("create company", err)
	}
	ev := queue.NewEvent(queue.CompanyCreated, id, ownerID, id)
	ev.Data = map[string]string{"name": c.Name}
	publish(ctx, s.pub, s.log, ev)
	return id, nil
}

// Update applies a partial update to the caller's company.
func (s *CompanyService) Update(ctx context.Context, actorID, companyID int64, p model.CompanyPatch) error {
	if err := s.companies.Update(ctx, companyID, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound(msgCompanyNotFound)
		case errors.Is(err, repository.ErrDuplicate):
			return apperr.Conflict(msgCompanyNameTaken)
		}
		return internal("update company", err)
	}
	publish(ctx, s.pub, s.log, queue.NewEvent(queue.CompanyUpdated, companyID, actorID, companyID))
	return nil
}

// Delete removes the company, its products and every membership.
func (s *CompanyService) Delete(ctx context.Context, actorID, companyID int64) error {
	if err := s.companies.Delete(ctx, companyID); err != nil {
		return internal("delete company", err)
	}
	if err := s.cache.Invalidate(ctx, companyID); err != nil {
		s.log.Warn("product cache not invalidated", "company_id", companyID, "err", err)
	}
	publish(ctx, s.pub, s.log, queue.NewEvent(queue.CompanyDeleted, companyID, actorID, companyID))
	return nil
}
