// Package repository implements the data access layer over MySQL: the
// registration and check-in ledgers, the read side of the event catalog
// and identity directory, and the reporting aggregates. No business
// rules live here; invariant enforcement belongs to the admission
// controller. The repositories only guarantee durable, consistent
// storage plus the uniqueness constraints that act as the last line of
// defense against a raced double-insert.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEventNotFound is returned by catalog reads when no event with the
// requested ID exists. Handlers translate this into an HTTP 404.
var ErrEventNotFound = errors.New("event not found")

// ErrUserNotFound is returned by directory reads when no user with the
// requested ID exists.
var ErrUserNotFound = errors.New("user not found")

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062), i.e. a write that tripped one of the ledger uniqueness
// constraints.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
