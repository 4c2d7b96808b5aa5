// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver-specific error codes.  Both the
// MySQL and the in-memory implementations return the same sentinels.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with an existing
// primary or unique key (MySQL error 1062).
var ErrDuplicate = errors.New("duplicate key")

// ErrReferenced is returned when a delete or update is rejected because
// other rows still reference the target (MySQL error 1451).
var ErrReferenced = errors.New("row is referenced")

// ErrMissingParent is returned when an insert or update names a foreign
// key that does not resolve (MySQL error 1452).
var ErrMissingParent = errors.New("referenced row does not exist")

// MySQL server error numbers mapped onto the sentinels above.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlRowIsReferenced2 = 1217
	mysqlNoReferencedRow2 = 1216
)

// translate converts driver errors into repository sentinels.  Errors that
// are not integrity violations are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicate
		case mysqlRowIsReferenced, mysqlRowIsReferenced2:
			return ErrReferenced
		case mysqlNoReferencedRow, mysqlNoReferencedRow2:
			return ErrMissingParent
		}
	}
	return err
}
