// Package logger provides structured logging functionality for pgstmt.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, and carries request- or run-scoped loggers through
// context.Context.
package logger
