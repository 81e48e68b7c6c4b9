package client

import (
	"context"
	"database/sql"
	"errors"
)

// Row is the scanning side of *sql.Row and *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

// RowScanner turns the current row into an R.
type RowScanner[R any] func(row Row) (R, error)

// Query is a typed query bound to a shared statement entry: P supplies the
// parameters and scan builds one R per row. The entry binds to the first
// Preparer it sees, so keep one Query per connection or transaction.
type Query[P any, R any] struct {
	stmt *SharedStmt
	scan RowScanner[R]
}

// NewQuery returns a Query for sql. Nothing is prepared until first use.
func NewQuery[P any, R any](sql string, scan RowScanner[R]) *Query[P, R] {
	return &Query[P, R]{
		stmt: NewSharedStmt(sql),
		scan: scan,
	}
}

// Stmt returns the underlying cache entry.
func (q *Query[P, R]) Stmt() *SharedStmt {
	return q.stmt
}

// All runs the query and collects every row.
func (q *Query[P, R]) All(ctx context.Context, p Preparer, params P) ([]R, error) {
	var out []R
	err := q.Each(ctx, p, params, func(r R) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each runs the query and calls fn for every row in order. The rows are read
// once; an error from fn stops iteration and is returned unchanged.
func (q *Query[P, R]) Each(ctx context.Context, p Preparer, params P, fn func(R) error) error {
	args, err := Args(params)
	if err != nil {
		return err
	}
	stmt, err := q.stmt.Prepare(ctx, p)
	if err != nil {
		return err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return execError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		r, err := q.scan(rows)
		if err != nil {
			return execError(err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return execError(err)
	}
	return nil
}

// One runs the query and scans the first row. It returns sql.ErrNoRows,
// unwrapped, when the query matches nothing.
func (q *Query[P, R]) One(ctx context.Context, p Preparer, params P) (R, error) {
	var zero R
	args, err := Args(params)
	if err != nil {
		return zero, err
	}
	stmt, err := q.stmt.Prepare(ctx, p)
	if err != nil {
		return zero, err
	}

	r, err := q.scan(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, err
		}
		return zero, execError(err)
	}
	return r, nil
}

// Exec is a typed statement that returns no rows.
type Exec[P any] struct {
	stmt *SharedStmt
}

// NewExec returns an Exec for sql. Nothing is prepared until first use.
func NewExec[P any](sql string) *Exec[P] {
	return &Exec[P]{stmt: NewSharedStmt(sql)}
}

// Stmt returns the underlying cache entry.
func (e *Exec[P]) Stmt() *SharedStmt {
	return e.stmt
}

// Exec runs the statement and returns the number of affected rows.
func (e *Exec[P]) Exec(ctx context.Context, p Preparer, params P) (int64, error) {
	args, err := Args(params)
	if err != nil {
		return 0, err
	}
	stmt, err := e.stmt.Prepare(ctx, p)
	if err != nil {
		return 0, err
	}

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, execError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, execError(err)
	}
	return n, nil
}
