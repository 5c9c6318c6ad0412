package repository

import (
	"context"

	"github.com/iliyamo/stock-inventory/internal/database"
)

// TokenRepo persists the single refresh-token verifier kept per user in
// usuarios.credencial_renovacion.
type TokenRepo struct{ store *database.Store }

func NewTokenRepo(store *database.Store) *TokenRepo { return &TokenRepo{store: store} }

// UpdateRefreshToken stores hash as the user's refresh verifier, or clears
// it when hash is nil.  Runs as a one-statement transaction; a failure is
// returned as an internal error.
func (r *TokenRepo) UpdateRefreshToken(ctx context.Context, hash *string, userID int64) error {
	_, err := r.store.Transaction(ctx, database.Stmt(
		"UPDATE usuarios SET credencial_renovacion = ? WHERE usuario_id = ?", hash, userID))
	if err != nil {
		return txError("update refresh token", err)
	}
	return nil
}
