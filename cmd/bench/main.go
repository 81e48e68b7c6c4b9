// Package main runs the prepared-statement benchmark workloads once against
// a freshly seeded database and logs a result per workload.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/phrazzld/pgstmt/internal/bench"
	"github.com/phrazzld/pgstmt/internal/config"
	"github.com/phrazzld/pgstmt/internal/platform/logger"
	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/phrazzld/pgstmt/internal/redact"
)

type options struct {
	configPath string
	workload   string
	iterations int
	workers    int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a config file (default: ./config.yaml if present)")
	flag.StringVar(&opts.workload, "workload", "", "Run only this workload")
	flag.IntVar(&opts.iterations, "iterations", 0, "Override bench.iterations")
	flag.IntVar(&opts.workers, "workers", 0, "Override bench.workers")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("benchmark failed", slog.String("error", redact.Error(err)))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(&cfg.Bench, opts)

	workloads := bench.WorkloadNames(cfg.Bench.InsertSizes)
	if opts.workload != "" {
		if !slices.Contains(workloads, opts.workload) {
			return fmt.Errorf("%w: %q", bench.ErrUnknownWorkload, opts.workload)
		}
		workloads = []string{opts.workload}
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.Bench.Migrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		version, err := postgres.MigrationVersion(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		log.Info("database schema ready", slog.Int64("version", version))
	}

	runner := bench.NewRunner(db, log)
	for _, name := range workloads {
		// Every workload starts from the same dataset; the insert
		// workloads would otherwise grow it for the ones after them.
		if _, err := bench.Seed(ctx, db, bench.SeedConfig{
			Users:           cfg.Bench.Users,
			PostsPerUser:    cfg.Bench.PostsPerUser,
			CommentsPerPost: cfg.Bench.CommentsPerPost,
		}, log); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}

		res, err := runWorkload(ctx, db, runner, log, name, cfg.Bench)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s iterations=%-6d workers=%-3d mean=%-12s min=%-12s max=%s\n",
			res.Workload, res.Iterations, res.Workers, res.Mean, res.Min, res.Max)
	}
	return nil
}

// runWorkload runs name sequentially on one pinned connection, or split
// across cfg.Workers connections.
func runWorkload(ctx context.Context, db *sql.DB, runner *bench.Runner, log *slog.Logger, name string, cfg config.BenchConfig) (bench.Result, error) {
	if cfg.Workers > 1 {
		return runner.RunParallel(ctx, name, cfg.Iterations, cfg.Workers)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return bench.Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	suite := bench.NewSuite(conn, log)
	defer func() {
		if err := suite.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to close statements", slog.String("error", err.Error()))
		}
	}()
	return runner.Run(ctx, suite, name, cfg.Iterations)
}

func applyOverrides(cfg *config.BenchConfig, opts options) {
	if opts.iterations > 0 {
		cfg.Iterations = opts.iterations
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
