package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrTxAborted wraps every failure inside Transaction.  Nothing from the
// batch is committed when it is returned.
var ErrTxAborted = errors.New("transaction aborted")

// lastInsertID is the type of LastInsertID.
type lastInsertID struct{}

// LastInsertID is a placeholder argument.  Inside a Transaction batch it is
// replaced by the id generated by the most recent INSERT of the same batch.
var LastInsertID = lastInsertID{}

// Statement is one parameterized SQL statement of a batch.
type Statement struct {
	Query string
	Args  []any
}

// Stmt is shorthand for building a Statement.
func Stmt(query string, args ...any) Statement {
	return Statement{Query: query, Args: args}
}

// TxResult summarizes a committed batch.
type TxResult struct {
	LastInsertID int64
	RowsAffected int64
}

// Querier is the read surface shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the relational credential and inventory store.  It wraps the
// pool handle opened in main; it does not own or close it.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the pool for plain single-statement reads and writes.
func (s *Store) DB() Querier { return s.db }

// Transaction runs stmts in order as one all-or-nothing unit.  A panic or
// error rolls back and is reported as ErrTxAborted.
func (s *Store) Transaction(ctx context.Context, stmts ...Statement) (res TxResult, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TxResult{}, fmt.Errorf("%w: begin: %w", ErrTxAborted, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			res, err = TxResult{}, fmt.Errorf("%w: panic: %v", ErrTxAborted, p)
			return
		}
		if err != nil {
			_ = tx.Rollback()
			res = TxResult{}
		}
	}()

	var haveID bool
	for i, st := range stmts {
		args := make([]any, len(st.Args))
		for j, a := range st.Args {
			if _, ok := a.(lastInsertID); ok {
				if !haveID {
					return TxResult{}, fmt.Errorf("%w: statement %d references an insert id before any INSERT", ErrTxAborted, i)
				}
				a = res.LastInsertID
			}
			args[j] = a
		}

		r, execErr := tx.ExecContext(ctx, st.Query, args...)
		if execErr != nil {
			return TxResult{}, fmt.Errorf("%w: statement %d: %w", ErrTxAborted, i, execErr)
		}
		if n, e := r.RowsAffected(); e == nil {
			res.RowsAffected += n
		}
		if isInsert(st.Query) {
			if id, e := r.LastInsertId(); e == nil && id > 0 {
				res.LastInsertID = id
				haveID = true
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return TxResult{}, fmt.Errorf("%w: commit: %w", ErrTxAborted, err)
	}
	return res, nil
}

func isInsert(q string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(q)), "INSERT")
}
