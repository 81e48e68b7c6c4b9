package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pgstmt/internal/bench"
	"github.com/phrazzld/pgstmt/internal/config"
	"github.com/phrazzld/pgstmt/internal/platform/postgres"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	suite  *bench.Suite
	runner *bench.Runner
}

// newApplication migrates and optionally seeds db, then builds the suite the
// HTTP handlers run against.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB, seed bool) (*application, error) {
	if cfg.Bench.Migrate {
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		version, err := postgres.MigrationVersion(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema version: %w", err)
		}
		logger.Info("database schema ready", slog.Int64("version", version))
	}
	if seed {
		if _, err := bench.Seed(ctx, db, seedConfig(cfg.Bench), logger); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		suite:  bench.NewSuite(db, logger),
		runner: bench.NewRunner(db, logger),
	}
	logger.Info("application initialized")
	return app, nil
}

func seedConfig(cfg config.BenchConfig) bench.SeedConfig {
	return bench.SeedConfig{
		Users:           cfg.Users,
		PostsPerUser:    cfg.PostsPerUser,
		CommentsPerPost: cfg.CommentsPerPost,
	}
}

// Run serves HTTP until ctx is canceled or a shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases prepared statements and the connection pool.
func (app *application) cleanup(ctx context.Context) {
	if app.suite != nil {
		if err := app.suite.Close(ctx); err != nil {
			app.logger.Error("error closing prepared statements", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
