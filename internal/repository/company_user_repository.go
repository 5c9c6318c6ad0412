package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/stock-inventory/internal/database"
	"github.com/iliyamo/stock-inventory/internal/model"
)

// CompanyUserRepo manages membership of users in a company.  Every write is
// scoped by company so staff can only touch their own members.
type CompanyUserRepo struct{ store *database.Store }

func NewCompanyUserRepo(store *database.Store) *CompanyUserRepo {
	return &CompanyUserRepo{store: store}
}

// List returns the members of a company with their role names.
func (r *CompanyUserRepo) List(ctx context.Context, companyID int64) ([]model.CompanyUser, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT u.usuario_id, u.nombre, u.apellidos, u.email, u.rol_id, r.nombre
		   FROM usuarios u LEFT JOIN roles r ON u.rol_id = r.rol_id
		  WHERE u.empresa_id = ? ORDER BY u.usuario_id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.CompanyUser{}
	for rows.Next() {
		var (
			u        model.CompanyUser
			roleID   sql.NullInt64
			roleName sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.LastName, &u.Email, &roleID, &roleName); err != nil {
			return nil, err
		}
		if roleID.Valid {
			rl := model.Role(roleID.Int64)
			u.RoleID = &rl
		}
		u.Role = roleName.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// Remove detaches a member from the company.  Role, company and any open
// refresh session are cleared together.
func (r *CompanyUserRepo) Remove(ctx context.Context, companyID, userID int64) error {
	res, err := r.store.DB().ExecContext(ctx,
		"UPDATE usuarios SET empresa_id = NULL, rol_id = NULL, credencial_renovacion = NULL WHERE usuario_id = ? AND empresa_id = ?",
		userID, companyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole changes a member's role.
func (r *CompanyUserRepo) UpdateRole(ctx context.Context, companyID, userID int64, role model.Role) error {
	res, err := r.store.DB().ExecContext(ctx,
		"UPDATE usuarios SET rol_id = ? WHERE usuario_id = ? AND empresa_id = ?",
		int(role), userID, companyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
