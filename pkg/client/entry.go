package client

import (
	"context"
	"errors"
	"reflect"
)

var errNilConn = errors.New("nil connection")

// entry holds the lazily prepared state behind Stmt and PgxStmt. C is the
// connection type the handle is bound to and H is the driver's handle type.
//
// C must be comparable at runtime: resolving against a connection whose
// dynamic type is not comparable panics.
type entry[C comparable, H any] struct {
	query  string
	owner  C
	handle H
	ready  bool
}

// resolve returns the cached handle, preparing it on conn first if needed.
// Nothing is stored when prepare fails.
func (e *entry[C, H]) resolve(
	ctx context.Context,
	conn C,
	prepare func(ctx context.Context, conn C, query string) (H, error),
) (H, error) {
	var (
		none C
		zero H
	)
	if conn == none || isNilConn(conn) {
		return zero, prepareError(errNilConn)
	}

	if e.ready {
		if e.owner != conn {
			return zero, ErrConnMismatch
		}
		return e.handle, nil
	}

	h, err := prepare(ctx, conn, e.query)
	if err != nil {
		return zero, prepareError(err)
	}

	e.owner = conn
	e.handle = h
	e.ready = true
	return h, nil
}

// isNilConn reports whether conn holds a nil pointer behind a non-nil
// interface, such as a (*sql.DB)(nil) passed as a Preparer.
func isNilConn(conn any) bool {
	if conn == nil {
		return true
	}
	v := reflect.ValueOf(conn)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
