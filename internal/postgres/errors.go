package postgres

import (
	"database/sql"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err was raised by a unique index
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if ierr.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// IsUniqueViolationOn reports whether err was raised by the named unique index
func IsUniqueViolationOn(err error, index string) bool {
	var pqErr *pq.Error
	if ierr.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == index
	}
	return false
}

// IsNoRows reports whether a single row lookup matched nothing
func IsNoRows(err error) bool {
	return ierr.Is(err, sql.ErrNoRows)
}
