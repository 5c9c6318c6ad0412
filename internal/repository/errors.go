// Package repository holds the SQL access for users, sessions, companies
// and products.  Repositories return the sentinel values below; services
// translate them into user-facing errors.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/stock-inventory/internal/apperr"
	"github.com/iliyamo/stock-inventory/internal/database"
)

// ErrNotFound is returned when the target row does not exist, or when an
// update/delete scoped to a company matched no rows.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key (email, phone, company name)
// already holds the value being written.
var ErrDuplicate = errors.New("duplicate entry")

// ErrBadReference is returned when a foreign key (category, company) points
// at a row that does not exist.
var ErrBadReference = errors.New("referenced row does not exist")

// isBadReference detects MySQL error 1452 (ER_NO_REFERENCED_ROW_2).
func isBadReference(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1452
}

// isDuplicate detects MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

// txError maps a failed batch to the generic internal error, keeping the
// cause for logging.
func txError(op string, err error) error {
	if errors.Is(err, database.ErrTxAborted) {
		return apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
