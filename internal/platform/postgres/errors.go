package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgstmt/internal/store"
)

// PostgreSQL error codes
const (
	// syntaxErrorCode is raised by the parser, typically at prepare time.
	syntaxErrorCode = "42601"

	// undefinedTableCode and undefinedColumnCode are raised when a statement
	// references objects that do not exist.
	undefinedTableCode  = "42P01"
	undefinedColumnCode = "42703"

	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	notNullViolationCode    = "23502"

	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"

	// connectionExceptionClass covers 08000-08P01.
	connectionExceptionClass = "08"
)

// MapError maps a database error to an appropriate store error, wrapping the
// original so errors.As can still reach the *pgconn.PgError.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case syntaxErrorCode, undefinedTableCode, undefinedColumnCode:
			return fmt.Errorf("%w: %w", store.ErrInvalidQuery, err)
		case uniqueViolationCode:
			return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf(
				"%w: foreign key violation (%s): %w",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case notNullViolationCode:
			return fmt.Errorf(
				"%w: not null violation (%s): %w",
				store.ErrInvalidEntity,
				pgErr.ColumnName,
				err,
			)
		}
	}

	// Return the original error for errors that don't have specific mappings
	return err
}

// IsSyntaxError checks if the error is a PostgreSQL syntax error.
func IsSyntaxError(err error) bool {
	return hasCode(err, syntaxErrorCode)
}

// IsUndefinedTable checks if the error reports a missing table.
func IsUndefinedTable(err error) bool {
	return hasCode(err, undefinedTableCode)
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolationCode)
}

// IsRetryable reports whether repeating the operation that produced err may
// succeed: connection exceptions, serialization failures, deadlocks and
// errors pgconn marks as safe to retry. Query errors such as syntax errors
// are permanent, since the statement text never changes.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == serializationFailureCode, pgErr.Code == deadlockDetectedCode:
			return true
		case strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return true
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
