// Package main implements the pgstmt benchmark server, which runs the
// prepared-statement workloads on request and reports statement cache state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/pgstmt/internal/config"
	"github.com/phrazzld/pgstmt/internal/platform/logger"
	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/phrazzld/pgstmt/internal/redact"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: ./config.yaml if present)")
	seed := flag.Bool("seed", false, "Replace the benchmark data before serving")
	flag.Parse()

	if err := run(context.Background(), *configPath, *seed); err != nil {
		slog.Error("server exited with error", slog.String("error", redact.Error(err)))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, seed bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, log, db, seed)
	if err != nil {
		_ = db.Close()
		return err
	}
	return app.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
