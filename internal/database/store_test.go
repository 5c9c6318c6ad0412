package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestTransactionThreadsLastInsertID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO empresas").
		WithArgs("Acme", int64(9)).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectExec("UPDATE usuarios SET rol_id").
		WithArgs(4, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE usuarios SET empresa_id").
		WithArgs(int64(41), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := store.Transaction(context.Background(),
		Stmt("INSERT INTO empresas (nombre, creador_id) VALUES (?, ?)", "Acme", int64(9)),
		Stmt("UPDATE usuarios SET rol_id = ? WHERE usuario_id = ?", 4, int64(9)),
		Stmt("UPDATE usuarios SET empresa_id = ? WHERE usuario_id = ?", LastInsertID, int64(9)),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(41), res.LastInsertID)
	assert.Equal(t, int64(3), res.RowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE usuarios").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM productos").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := store.Transaction(context.Background(),
		Stmt("UPDATE usuarios SET rol_id = NULL, empresa_id = NULL WHERE empresa_id = ?", int64(3)),
		Stmt("DELETE FROM productos WHERE empresa_id = ?", int64(3)),
		Stmt("DELETE FROM empresas WHERE empresa_id = ?", int64(3)),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTxAborted)
	assert.Contains(t, err.Error(), "lock wait timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRejectsDanglingInsertID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := store.Transaction(context.Background(),
		Stmt("UPDATE usuarios SET empresa_id = ? WHERE usuario_id = ?", LastInsertID, int64(1)),
	)
	assert.ErrorIs(t, err, ErrTxAborted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionCommitFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE usuarios SET credencial_renovacion").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, err := store.Transaction(context.Background(),
		Stmt("UPDATE usuarios SET credencial_renovacion = ? WHERE usuario_id = ?", nil, int64(1)),
	)
	assert.ErrorIs(t, err, ErrTxAborted)
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"app:pw@tcp(db:3306)/stock?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		DSN("app", "pw", "db", "3306", "stock"))
	assert.Equal(t,
		"app@tcp(db:3306)/stock?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		DSN("app", "", "db", "3306", "stock"))
}
