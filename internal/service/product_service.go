package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
)

// Paging defaults for product listings.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

const (
	msgProductNotFound   = "Producto no encontrado."
	msgProductNotUpdated = "El producto no fue encontrado."
	msgProductNotDeleted = "El producto no ha podido ser eliminado. Intente de nuevo más tarde."
	msgCategoryNotFound  = "La categoría no existe."
)

// ProductService runs company-scoped product CRUD.  The company id always
// comes from the caller's identity.
type ProductService struct {
	products ProductStore
	cache    CacheInvalidator
	pub      Publisher
	log      *slog.Logger
}

func NewProductService(products ProductStore, cache CacheInvalidator, pub Publisher, log *slog.Logger) *ProductService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &ProductService{products: products, cache: cache, pub: pub, log: log}
}

// NormalizeQuery applies paging defaults, caps the limit and replaces an
// unknown filter with the default order.
func NormalizeQuery(q model.ProductQuery) model.ProductQuery {
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	switch q.Filter {
	case "nombre", "precio", "categoria":
	default:
		q.Filter = repository.DefaultOrder
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// List returns one page of the company's products and the company total.
func (s *ProductService) List(ctx context.Context, companyID int64, q model.ProductQuery) (model.ProductPage, error) {
	q = NormalizeQuery(q)
	return s.page(ctx, "list products",
		func(ctx context.Context) ([]model.Product, error) { return s.products.List(ctx, companyID, q) },
		func(ctx context.Context) (int64, error) { return s.products.Count(ctx, companyID) })
}

// Search returns one page of matching products and the matching total.
func (s *ProductService) Search(ctx context.Context, companyID int64, q model.ProductQuery) (model.ProductPage, error) {
	q = NormalizeQuery(q)
	return s.page(ctx, "search products",
		func(ctx context.Context) ([]model.Product, error) { return s.products.Search(ctx, companyID, q) },
		func(ctx context.Context) (int64, error) { return s.products.CountSearch(ctx, companyID, q.Search) })
}

func (s *ProductService) page(ctx context.Context, op string,
	items func(context.Context) ([]model.Product, error),
	count func(context.Context) (int64, error),
) (model.ProductPage, error) {
	var page model.ProductPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page.Products, err = items(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page.Total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ProductPage{}, internal(op, err)
	}
	return page, nil
}

func (s *ProductService) Get(ctx context.Context, companyID, productID int64) (model.Product, error) {
	p, err := s.products.GetByID(ctx, companyID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, apperr.NotFound(msgProductNotFound)
		}
		return model.Product{}, internal("get product", err)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, actorID int64, p model.NewProduct) (int64, error) {
	id, err := s.products.Create(ctx, p)
	if err != nil {
		if errors.Is(err, repository.ErrBadReference) {
			return 0, apperr.Validation(msgCategoryNotFound, map[string]string{"category": msgCategoryNotFound})
		}
		return 0, internal("create product", err)
	}
	s.changed(ctx, queue.ProductCreated, p.CompanyID, actorID, id, map[string]string{"sku": p.SKU})
	return id, nil
}

func (s *ProductService) Update(ctx context.Context, actorID, companyID, productID int64, p model.ProductPatch) error {
	if err := s.products.Update(ctx, companyID, productID, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound(msgProductNotUpdated)
		case errors.Is(err, repository.ErrBadReference):
			return apperr.Validation(msgCategoryNotFound, map[string]string{"category": msgCategoryNotFound})
		}
		return internal("update product", err)
	}
	s.changed(ctx, queue.ProductUpdated, companyID, actorID, productID, nil)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, actorID, companyID, productID int64) error {
	if err := s.products.Delete(ctx, companyID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgProductNotDeleted)
		}
		return internal("delete product", err)
	}
	s.changed(ctx, queue.ProductDeleted, companyID, actorID, productID, nil)
	return nil
}

// changed invalidates the company's cached listings and emits the event.
func (s *ProductService) changed(ctx context.Context, typ string, companyID, actorID, productID int64, data map[string]string) {
	if err := s.cache.Invalidate(ctx, companyID); err != nil {
		s.log.Warn("product cache not invalidated", "company_id", companyID, "err", err)
	}
	ev := queue.NewEvent(typ, companyID, actorID, productID)
	ev.Data = data
	publish(ctx, s.pub, s.log, ev)
}
