package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/phrazzld/pgstmt/internal/bench"
	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/phrazzld/pgstmt/internal/store"
	"github.com/phrazzld/pgstmt/pkg/client"
)

// ErrInvalidRequest marks a request rejected before any work was done.
var ErrInvalidRequest = errors.New("invalid request")

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, bench.ErrUnknownWorkload):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case postgres.IsRetryable(err):
		return http.StatusServiceUnavailable
	case postgres.IsUniqueViolation(err), errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes driver output or SQL. Database errors are classified by SQLSTATE
// before the statement cache sentinels, which only say where a call failed.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}
	mapped := postgres.MapError(err)

	switch {
	case errors.Is(err, bench.ErrUnknownWorkload):
		return "Unknown workload"
	case errors.Is(err, ErrInvalidRequest):
		return "Invalid request parameters"
	case errors.Is(err, context.DeadlineExceeded):
		return "Benchmark run timed out"
	case errors.Is(err, context.Canceled):
		return "Benchmark run was canceled"
	case postgres.IsRetryable(err):
		return "Database temporarily unavailable"
	case postgres.IsUndefinedTable(err):
		return "Benchmark schema is missing; run migrations"
	case postgres.IsSyntaxError(err):
		return "Benchmark query has a syntax error"
	case errors.Is(mapped, store.ErrInvalidQuery):
		return "Benchmark query was rejected by the database"
	case errors.Is(mapped, store.ErrDuplicate):
		return "Benchmark data already exists"
	case errors.Is(mapped, store.ErrInvalidEntity):
		return "Benchmark data violates a constraint"
	case errors.Is(err, client.ErrPreparationFailed):
		return "Failed to prepare statement"
	case errors.Is(err, client.ErrConnMismatch):
		return "Statement used on the wrong connection"
	case errors.Is(err, client.ErrExecutionFailed):
		return "Statement execution failed"
	case errors.Is(err, store.ErrTransactionFailed):
		return "Database transaction failed"
	case store.IsNotFoundError(err):
		return "Benchmark data is inconsistent"
	default:
		return "An unexpected error occurred"
	}
}
