package client

import (
	"context"
	"database/sql"
)

// Preparer prepares SQL text into a statement handle.
// It is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Stmt is a cached statement: a fixed query text plus the handle prepared
// from it on first use.
//
// A Stmt is not safe for concurrent use. Keep one per call site, or use
// SharedStmt when several goroutines need the same entry.
type Stmt struct {
	e entry[Preparer, *sql.Stmt]
}

// NewStmt returns an entry for query. It does not touch the database.
func NewStmt(query string) *Stmt {
	return &Stmt{e: entry[Preparer, *sql.Stmt]{query: query}}
}

// Query returns the SQL text the entry was created with.
func (s *Stmt) Query() string {
	return s.e.query
}

// Prepared reports whether the entry holds a prepared handle.
func (s *Stmt) Prepared() bool {
	return s.e.ready
}

// Prepare returns a statement usable against p.
//
// The first successful call prepares the query on p and caches the result;
// later calls return the same *sql.Stmt without a round-trip. A failed
// preparation caches nothing, so the next call prepares again. The returned
// error matches ErrPreparationFailed and the underlying driver error.
//
// Once a handle is cached, calling Prepare with any Preparer other than the
// one it was prepared on returns ErrConnMismatch.
func (s *Stmt) Prepare(ctx context.Context, p Preparer) (*sql.Stmt, error) {
	return s.e.resolve(ctx, p, prepareSQL)
}

func prepareSQL(ctx context.Context, p Preparer, query string) (*sql.Stmt, error) {
	return p.PrepareContext(ctx, query)
}
