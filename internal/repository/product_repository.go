package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stock-inventory/internal/database"
	"github.com/iliyamo/stock-inventory/internal/model"
)

// ProductRepo provides company-scoped persistence for products.
type ProductRepo struct{ store *database.Store }

func NewProductRepo(store *database.Store) *ProductRepo { return &ProductRepo{store: store} }

// orderColumns is the whitelist of sortable columns.  Only values from this
// map are ever placed into the ORDER BY clause.
var orderColumns = map[string]string{
	"nombre":    "p.nombre",
	"precio":    "p.precio",
	"categoria": "p.categoria",
}

// DefaultOrder is used when the requested filter is not whitelisted.
const DefaultOrder = "nombre"

// OrderColumn resolves a filter name to its SQL column, falling back to
// the default order.
func OrderColumn(filter string) string {
	if col, ok := orderColumns[filter]; ok {
		return col
	}
	return orderColumns[DefaultOrder]
}

const productSelect = `SELECT p.producto_id, p.nombre, p.descripcion, p.SKU, p.stock, p.precio, c.categoria
  FROM productos p JOIN categorias c ON c.categoria_id = p.categoria`

// searchPredicate is shared by the search page and its count so both agree
// on which rows match.
const searchPredicate = ` AND (
       MATCH(p.nombre, p.SKU, p.descripcion) AGAINST (? IN NATURAL LANGUAGE MODE)
    OR p.nombre LIKE CONCAT('%', ?, '%')
    OR p.SKU LIKE CONCAT('%', ?, '%')
    OR c.categoria LIKE CONCAT('%', ?, '%')
    OR CAST(p.precio AS CHAR) LIKE CONCAT('%', ?, '%')
    OR CAST(p.stock AS CHAR) LIKE CONCAT('%', ?, '%'))`

func searchArgs(term string) []any {
	return []any{term, term, term, term, term, term}
}

// List returns one page of a company's products.
func (r *ProductRepo) List(ctx context.Context, companyID int64, q model.ProductQuery) ([]model.Product, error) {
	query := productSelect + " WHERE p.empresa_id = ? ORDER BY " + OrderColumn(q.Filter) + " DESC LIMIT ? OFFSET ?"
	return r.query(ctx, query, companyID, q.Limit, q.Offset())
}

// Count returns how many products a company has.
func (r *ProductRepo) Count(ctx context.Context, companyID int64) (int64, error) {
	var n int64
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM productos p WHERE p.empresa_id = ?", companyID).Scan(&n)
	return n, err
}

// Search returns one page of a company's products matching q.Search.
func (r *ProductRepo) Search(ctx context.Context, companyID int64, q model.ProductQuery) ([]model.Product, error) {
	query := productSelect + " WHERE p.empresa_id = ?" + searchPredicate +
		" ORDER BY " + OrderColumn(q.Filter) + " DESC LIMIT ? OFFSET ?"
	args := append([]any{companyID}, searchArgs(q.Search)...)
	args = append(args, q.Limit, q.Offset())
	return r.query(ctx, query, args...)
}

// CountSearch counts a company's products matching term.
func (r *ProductRepo) CountSearch(ctx context.Context, companyID int64, term string) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) FROM productos p JOIN categorias c ON c.categoria_id = p.categoria WHERE p.empresa_id = ?" + searchPredicate
	args := append([]any{companyID}, searchArgs(term)...)
	err := r.store.DB().QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// GetByID returns one product of the company.
func (r *ProductRepo) GetByID(ctx context.Context, companyID, productID int64) (model.Product, error) {
	items, err := r.query(ctx, productSelect+" WHERE p.producto_id = ? AND p.empresa_id = ? LIMIT 1", productID, companyID)
	if err != nil {
		return model.Product{}, err
	}
	if len(items) == 0 {
		return model.Product{}, ErrNotFound
	}
	return items[0], nil
}

// Create inserts a product and returns its id.
func (r *ProductRepo) Create(ctx context.Context, p model.NewProduct) (int64, error) {
	res, err := r.store.DB().ExecContext(ctx,
		"INSERT INTO productos (nombre, descripcion, empresa_id, SKU, stock, categoria, precio) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.Name, p.Description, p.CompanyID, p.SKU, p.Stock, p.CategoryID, p.Price)
	if err != nil {
		if isBadReference(err) {
			return 0, ErrBadReference
		}
		return 0, err
	}
	return res.LastInsertId()
}

// Update applies a partial update to a company's product.
func (r *ProductRepo) Update(ctx context.Context, companyID, productID int64, p model.ProductPatch) error {
	res, err := r.store.DB().ExecContext(ctx,
		`UPDATE productos SET nombre = IFNULL(?, nombre), descripcion = IFNULL(?, descripcion), SKU = IFNULL(?, SKU),
		        stock = IFNULL(?, stock), categoria = IFNULL(?, categoria), precio = IFNULL(?, precio)
		  WHERE producto_id = ? AND empresa_id = ?`,
		p.Name, p.Description, p.SKU, p.Stock, p.CategoryID, p.Price, productID, companyID)
	if err != nil {
		if isBadReference(err) {
			return ErrBadReference
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a company's product.
func (r *ProductRepo) Delete(ctx context.Context, companyID, productID int64) error {
	res, err := r.store.DB().ExecContext(ctx,
		"DELETE FROM productos WHERE producto_id = ? AND empresa_id = ?", productID, companyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) query(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Product{}
	for rows.Next() {
		var (
			p    model.Product
			desc sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.SKU, &p.Stock, &p.Price, &p.Category); err != nil {
			return nil, err
		}
		p.Description = desc.String
		items = append(items, p)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return items, nil
}
