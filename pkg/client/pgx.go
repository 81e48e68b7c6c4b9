package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPreparer prepares a named statement on a native pgx connection.
// It is implemented by *pgx.Conn and pgx.Tx.
type PgxPreparer interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
}

// StatementName returns the server-side name used for query. It is stable
// across connections and program runs.
func StatementName(query string) string {
	digest := sha256.Sum256([]byte(query))
	return "pgstmt_" + hex.EncodeToString(digest[0:24])
}

// PgxStmt is the pgx-native counterpart of Stmt. The prepared statement is
// registered on the connection under Name, so callers can pass either the
// returned description's Name or SQL to conn.Query.
//
// A PgxStmt is not safe for concurrent use; neither is a *pgx.Conn.
type PgxStmt struct {
	name string
	e    entry[PgxPreparer, *pgconn.StatementDescription]
}

// NewPgxStmt returns an entry for query. It does not touch the database.
func NewPgxStmt(query string) *PgxStmt {
	return &PgxStmt{
		name: StatementName(query),
		e:    entry[PgxPreparer, *pgconn.StatementDescription]{query: query},
	}
}

// Query returns the SQL text the entry was created with.
func (s *PgxStmt) Query() string {
	return s.e.query
}

// Name returns the server-side statement name.
func (s *PgxStmt) Name() string {
	return s.name
}

// Prepared reports whether the entry holds a statement description.
func (s *PgxStmt) Prepared() bool {
	return s.e.ready
}

// Prepare has the same contract as Stmt.Prepare.
func (s *PgxStmt) Prepare(ctx context.Context, p PgxPreparer) (*pgconn.StatementDescription, error) {
	return s.e.resolve(ctx, p, func(ctx context.Context, p PgxPreparer, query string) (*pgconn.StatementDescription, error) {
		return p.Prepare(ctx, s.name, query)
	})
}
