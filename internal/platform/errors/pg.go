package errors

// Postgres-specific helpers for classifying pgx errors surfaced by the run ledger

import (
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the ledger reports on
const (
	pgErrUniqueViolation = "23505"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError.
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// SQLState returns the SQLSTATE of a Postgres error, or "" for anything else
func SQLState(err error) string {
	if pgErr, ok := ExtractPgError(err); ok {
		return pgErr.Code
	}
	return ""
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	return err != nil && SQLState(err) == code
}

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// FromPostgres wraps a pg error as a storage error.
// If err is nil, returns nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, ErrorCodeStorage, msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, ErrorCodeStorage, fmt.Sprintf(format, a...))
}
