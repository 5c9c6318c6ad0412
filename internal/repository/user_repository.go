package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/stock-inventory/internal/database"
	"github.com/iliyamo/stock-inventory/internal/model"
)

type UserRepo struct{ store *database.Store }

func NewUserRepo(store *database.Store) *UserRepo { return &UserRepo{store: store} }

const userColumns = "usuario_id, nombre, apellidos, email, telefono, contrasena, empresa_id, rol_id, credencial_renovacion, fecha"

// Create inserts a registered user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u model.NewUser) (int64, error) {
	res, err := r.store.DB().ExecContext(ctx,
		"INSERT INTO usuarios (nombre, apellidos, contrasena, email, telefono, fecha) VALUES (?, ?, ?, ?, ?, ?)",
		u.Name, u.LastName, u.PasswordHash, normalizeEmail(u.Email), u.Phone, time.Now().UTC())
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM usuarios WHERE email = ? LIMIT 1", normalizeEmail(email))
}

// GetByPhone fetches a user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM usuarios WHERE telefono = ? LIMIT 1", strings.TrimSpace(phone))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM usuarios WHERE usuario_id = ? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var (
		u       model.User
		company sql.NullInt64
		role    sql.NullInt64
		hash    sql.NullString
	)
	err := r.store.DB().QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash,
		&company, &role, &hash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if company.Valid {
		u.CompanyID = &company.Int64
	}
	if role.Valid {
		rl := model.Role(role.Int64)
		u.RoleID = &rl
	}
	if hash.Valid {
		u.RefreshTokenHash = &hash.String
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
