// Package postgres contains the PostgreSQL-specific plumbing: opening a
// pgx-backed *sql.DB with pool settings, applying the benchmark schema with
// goose, and classifying server errors into store errors.
package postgres
