package client

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// RegistryStats is a point-in-time snapshot of a Registry's counters.
type RegistryStats struct {
	// Entries is the number of distinct query texts held.
	Entries int `json:"entries"`
	// Hits counts lookups that found an already prepared entry.
	Hits int64 `json:"hits"`
	// Misses counts entries created. A retry on an entry whose earlier
	// preparation failed is neither a hit nor a miss.
	Misses   int64 `json:"misses"`
	Prepares int64 `json:"prepares"`
	Failures int64 `json:"failures"`
}

// Registry keeps one SharedStmt per distinct query text, all bound to the
// same Preparer. It suits callers that build SQL at runtime, where a fixed
// call-site Stmt is not possible.
//
// A Registry is safe for concurrent use.
type Registry struct {
	db     Preparer
	logger *slog.Logger

	mu    sync.RWMutex
	stmts map[string]*SharedStmt

	hits     atomic.Int64
	misses   atomic.Int64
	prepares atomic.Int64
	failures atomic.Int64
}

// NewRegistry creates a registry that prepares statements on db.
// If logger is nil, slog.Default() is used.
func NewRegistry(db Preparer, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		db:     db,
		logger: logger.With(slog.String("component", "stmt_registry")),
	}
}

// Prepare returns the prepared statement for query, preparing it on first use.
func (r *Registry) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	s, ok := r.lookup(query)
	switch {
	case !ok:
		var raced bool
		if s, raced = r.set(query, NewSharedStmt(query)); !raced {
			r.misses.Add(1)
		}
	case s.Prepared():
		r.hits.Add(1)
	}
	return s.Prepare(ctx, r.db)
}

// Stats returns the current counters.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	n := len(r.stmts)
	r.mu.RUnlock()
	return RegistryStats{
		Entries:  n,
		Hits:     r.hits.Load(),
		Misses:   r.misses.Load(),
		Prepares: r.prepares.Load(),
		Failures: r.failures.Load(),
	}
}

// Close closes every prepared statement and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	stmts := r.stmts
	r.stmts = nil
	r.mu.Unlock()

	var errs []error
	for _, s := range stmts {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.logger.Debug("statement registry closed", slog.Int("entries", len(stmts)))
	return errors.Join(errs...)
}

func (r *Registry) lookup(query string) (*SharedStmt, bool) {
	r.mu.RLock()
	s, ok := r.stmts[query]
	r.mu.RUnlock()
	return s, ok
}

// set stores s for query and returns the entry that ended up in the map.
// The boolean is true when an existing entry won because another goroutine
// got there first.
func (r *Registry) set(query string, s *SharedStmt) (*SharedStmt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stmts == nil {
		r.stmts = make(map[string]*SharedStmt)
	}
	if existing, ok := r.stmts[query]; ok {
		return existing, true
	}
	s.observe = r.observe
	r.stmts[query] = s
	return s, false
}

func (r *Registry) observe(err error) {
	r.prepares.Add(1)
	if err != nil {
		r.failures.Add(1)
		r.logger.Warn("statement preparation failed", slog.String("error", err.Error()))
	}
}
