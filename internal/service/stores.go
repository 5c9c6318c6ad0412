// Package service holds the business rules: sessions, registration,
// companies, company membership and products.  Services depend on the
// narrow store interfaces below, which the repository package satisfies.
package service

import (
	"context"
	"log/slog"

	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
)

type UserStore interface {
	Create(ctx context.Context, u model.NewUser) (int64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
}

type RefreshTokenStore interface {
	UpdateRefreshToken(ctx context.Context, hash *string, userID int64) error
}

type CompanyStore interface {
	NameTaken(ctx context.Context, name string) (bool, error)
	GetByID(ctx context.Context, id int64) (model.Company, error)
	Create(ctx context.Context, ownerID int64, c model.NewCompany) (int64, error)
	Update(ctx context.Context, companyID int64, p model.CompanyPatch) error
	Delete(ctx context.Context, companyID int64) error
}

type CompanyUserStore interface {
	List(ctx context.Context, companyID int64) ([]model.CompanyUser, error)
	Remove(ctx context.Context, companyID, userID int64) error
	UpdateRole(ctx context.Context, companyID, userID int64, role model.Role) error
}

type ProductStore interface {
	List(ctx context.Context, companyID int64, q model.ProductQuery) ([]model.Product, error)
	Count(ctx context.Context, companyID int64) (int64, error)
	Search(ctx context.Context, companyID int64, q model.ProductQuery) ([]model.Product, error)
	CountSearch(ctx context.Context, companyID int64, term string) (int64, error)
	GetByID(ctx context.Context, companyID, productID int64) (model.Product, error)
	Create(ctx context.Context, p model.NewProduct) (int64, error)
	Update(ctx context.Context, companyID, productID int64, p model.ProductPatch) error
	Delete(ctx context.Context, companyID, productID int64) error
}

// CacheInvalidator drops cached reads for a company after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, companyID int64) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, int64) error { return nil }

// publish sends ev and only logs a failure.
func publish(ctx context.Context, pub Publisher, log *slog.Logger, ev queue.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("event not published", "type", ev.Type, "err", err)
	}
}
