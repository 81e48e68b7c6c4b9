// Package testdb provides helpers for tests that need a live PostgreSQL
// database. Tests using it skip themselves unless DATABASE_URL (or
// PGSTMT_TEST_DB_URL) points at a server they may freely write to.
package testdb
