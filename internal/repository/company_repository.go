package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/stock-inventory/internal/database"
	"github.com/iliyamo/stock-inventory/internal/model"
)

// CompanyRepo provides persistence for companies.  Create and Delete touch
// several tables and run as single transactions.
type CompanyRepo struct {
	store *database.Store
}

func NewCompanyRepo(store *database.Store) *CompanyRepo { return &CompanyRepo{store: store} }

// NameTaken reports whether a company already uses name.
func (r *CompanyRepo) NameTaken(ctx context.Context, name string) (bool, error) {
	var id int64
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT empresa_id FROM empresas WHERE nombre = ? LIMIT 1", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID returns a company by id.
func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (model.Company, error) {
	var c model.Company
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT empresa_id, nombre, email, telefono, creador_id, fecha FROM empresas WHERE empresa_id = ? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatorID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}

// Create inserts the company, promotes the owner to Ceo and attaches the
// owner to the new company, all in one transaction.  Returns the new id.
func (r *CompanyRepo) Create(ctx context.Context, ownerID int64, c model.NewCompany) (int64, error) {
	res, err := r.store.Transaction(ctx,
		database.Stmt("INSERT INTO empresas (nombre, fecha, email, telefono, creador_id) VALUES (?, ?, ?, ?, ?)",
			c.Name, time.Now().UTC(), c.Email, c.Phone, ownerID),
		database.Stmt("UPDATE usuarios SET rol_id = ? WHERE usuario_id = ?", int(model.RoleCeo), ownerID),
		database.Stmt("UPDATE usuarios SET empresa_id = ? WHERE usuario_id = ?", database.LastInsertID, ownerID),
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, txError("create company", err)
	}
	return res.LastInsertID, nil
}

// Update applies a partial update; nil fields keep the stored value.
func (r *CompanyRepo) Update(ctx context.Context, companyID int64, p model.CompanyPatch) error {
	res, err := r.store.DB().ExecContext(ctx,
		"UPDATE empresas SET nombre = IFNULL(?, nombre), email = IFNULL(?, email), telefono = IFNULL(?, telefono) WHERE empresa_id = ?",
		p.Name, p.Email, p.Phone, companyID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete detaches every member (role and company), removes
// the company's products and finally the company row.
func (r *CompanyRepo) Delete(ctx context.Context, companyID int64) error {
	_, err := r.store.Transaction(ctx,
		database.Stmt("UPDATE usuarios SET rol_id = NULL, empresa_id = NULL WHERE empresa_id = ?", companyID),
		database.Stmt("DELETE FROM productos WHERE empresa_id = ?", companyID),
		database.Stmt("DELETE FROM empresas WHERE empresa_id = ?", companyID),
	)
	if err != nil {
		return txError("delete company", err)
	}
	return nil
}
