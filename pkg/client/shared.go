package client

import (
	"context"
	"database/sql"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SharedStmt is a Stmt that may be used from multiple goroutines.
//
// Callers that arrive while the first preparation is still in flight wait
// for it and receive the same handle or the same error, so the driver sees a
// single prepare no matter how many goroutines race on first use.
type SharedStmt struct {
	query string
	group singleflight.Group

	mu    sync.RWMutex
	owner Preparer
	stmt  *sql.Stmt

	// observe, when set, is called after every driver round-trip.
	observe func(err error)
}

// NewSharedStmt returns a concurrency-safe entry for query. It does not touch
// the database.
func NewSharedStmt(query string) *SharedStmt {
	return &SharedStmt{query: query}
}

// Query returns the SQL text the entry was created with.
func (s *SharedStmt) Query() string {
	return s.query
}

// Prepared reports whether the entry holds a prepared handle.
func (s *SharedStmt) Prepared() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stmt != nil
}

// Prepare has the same contract as Stmt.Prepare.
//
// The context of the goroutine that starts a preparation is the one passed to
// the driver; if it is cancelled, every goroutine waiting on that flight gets
// the cancellation error and the entry stays empty.
func (s *SharedStmt) Prepare(ctx context.Context, p Preparer) (*sql.Stmt, error) {
	if isNilConn(p) {
		return nil, prepareError(errNilConn)
	}
	if stmt, ok, err := s.cached(p); ok || err != nil {
		return stmt, err
	}

	if _, err, _ := s.group.Do(s.query, func() (any, error) {
		return nil, s.flight(ctx, p)
	}); err != nil {
		return nil, err
	}

	// The flight only reports that a handle is stored; whether it belongs
	// to p is decided per caller, since joiners may hold other connections.
	stmt, _, err := s.cached(p)
	return stmt, err
}

// flight prepares the statement on p unless a handle is already stored,
// in which case it succeeds without touching the driver.
func (s *SharedStmt) flight(ctx context.Context, p Preparer) error {
	s.mu.RLock()
	stored := s.stmt != nil
	s.mu.RUnlock()
	if stored {
		return nil
	}

	stmt, err := p.PrepareContext(ctx, s.query)
	if s.observe != nil {
		s.observe(err)
	}
	if err != nil {
		return prepareError(err)
	}

	s.mu.Lock()
	s.owner = p
	s.stmt = stmt
	s.mu.Unlock()
	return nil
}

// cached returns the stored handle when it belongs to p. ok is false when
// nothing is stored yet.
func (s *SharedStmt) cached(p Preparer) (stmt *sql.Stmt, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stmt == nil {
		return nil, false, nil
	}
	if s.owner != p {
		return nil, false, ErrConnMismatch
	}
	return s.stmt, true, nil
}

// close releases the server-side statement. Only Registry calls it; plain
// entries leave disposal to the connection.
func (s *SharedStmt) close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stmt == nil {
		return nil
	}
	return s.stmt.Close()
}
