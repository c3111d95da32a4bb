package storage

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned by single-record lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrNoUser is returned when a user-scoped operation gets no user id.
	ErrNoUser = errors.New("no user id supplied")

	ErrInvalidAmount = errors.New("amount must be greater than 0")
	ErrInvalidType   = errors.New("invalid transaction type")

	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateCategory = errors.New("category already exists")
)

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// column (given as "table.column"), or on any column when column is empty.
func isUniqueViolation(err error, column string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE && se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	msg := se.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}
