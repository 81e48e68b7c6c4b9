package bench

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result summarizes repeated runs of one workload.
type Result struct {
	ID         uuid.UUID     `json:"id"`
	Workload   string        `json:"workload"`
	Iterations int           `json:"iterations"`
	Workers    int           `json:"workers"`
	Total      time.Duration `json:"total_ns"`
	Mean       time.Duration `json:"mean_ns"`
	Min        time.Duration `json:"min_ns"`
	Max        time.Duration `json:"max_ns"`
}

// LogValue implements slog.LogValuer.
func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", r.ID.String()),
		slog.String("workload", r.Workload),
		slog.Int("iterations", r.Iterations),
		slog.Int("workers", r.Workers),
		slog.Duration("total", r.Total),
		slog.Duration("mean", r.Mean),
		slog.Duration("min", r.Min),
		slog.Duration("max", r.Max),
	)
}

// Runner times workloads.
type Runner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunner creates a Runner. db is only needed by RunParallel, which takes a
// dedicated connection per worker. If logger is nil, slog.Default() is used.
func NewRunner(db *sql.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:     db,
		logger: logger.With(slog.String("component", "bench_runner")),
	}
}

// Run executes the named workload iterations times on suite, sequentially,
// and stops at the first error.
func (r *Runner) Run(ctx context.Context, suite *Suite, workload string, iterations int) (Result, error) {
	if iterations <= 0 {
		return Result{}, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	fn, err := suite.Workload(workload)
	if err != nil {
		return Result{}, err
	}

	durations, err := timeIterations(ctx, fn, iterations)
	if err != nil {
		return Result{}, fmt.Errorf("workload %s: %w", workload, err)
	}

	res := summarize(workload, 1, durations)
	r.logger.Info("workload finished", slog.Any("result", res))
	return res, nil
}

// RunParallel splits iterations across workers goroutines. Each worker pins
// its own connection and builds its own Suite, so every cached statement is
// prepared once per connection and never shared.
func (r *Runner) RunParallel(ctx context.Context, workload string, iterations, workers int) (Result, error) {
	if iterations <= 0 {
		return Result{}, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	if workers <= 0 {
		r.logger.Warn("invalid worker count specified, using default",
			"specified_count", workers,
			"default_count", 1)
		workers = 1
	}
	if workers > iterations {
		workers = iterations
	}
	if r.db == nil {
		return Result{}, fmt.Errorf("parallel run of %s needs a database", workload)
	}

	var (
		mu  sync.Mutex
		all = make([]time.Duration, 0, iterations)
	)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := iterations / workers
		if w < iterations%workers {
			share++
		}
		g.Go(func() error {
			durations, err := r.runWorker(gctx, workload, share)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, durations...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("workload %s: %w", workload, err)
	}

	res := summarize(workload, workers, all)
	r.logger.Info("parallel workload finished", slog.Any("result", res))
	return res, nil
}

func (r *Runner) runWorker(ctx context.Context, workload string, iterations int) ([]time.Duration, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	suite := NewSuite(conn, r.logger)
	defer func() {
		if err := suite.Close(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("failed to close worker statements", slog.String("error", err.Error()))
		}
	}()

	fn, err := suite.Workload(workload)
	if err != nil {
		return nil, err
	}
	return timeIterations(ctx, fn, iterations)
}

func timeIterations(ctx context.Context, fn func(context.Context) error, iterations int) ([]time.Duration, error) {
	durations := make([]time.Duration, 0, iterations)
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		if err := fn(ctx); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		durations = append(durations, time.Since(start))
	}
	return durations, nil
}

func summarize(workload string, workers int, durations []time.Duration) Result {
	res := Result{
		ID:         uuid.New(),
		Workload:   workload,
		Iterations: len(durations),
		Workers:    workers,
	}
	for i, d := range durations {
		res.Total += d
		if i == 0 || d < res.Min {
			res.Min = d
		}
		if d > res.Max {
			res.Max = d
		}
	}
	if len(durations) > 0 {
		res.Mean = res.Total / time.Duration(len(durations))
	}
	return res
}
