package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/pgstmt/internal/bench"
	"github.com/phrazzld/pgstmt/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverrides(t *testing.T) {
	cfg := config.BenchConfig{Iterations: 100, Workers: 1}

	applyOverrides(&cfg, options{})
	assert.Equal(t, config.BenchConfig{Iterations: 100, Workers: 1}, cfg)

	applyOverrides(&cfg, options{iterations: 5, workers: 4})
	assert.Equal(t, config.BenchConfig{Iterations: 5, Workers: 4}, cfg)
}

func TestRun_RejectsUnknownWorkloadBeforeConnecting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://bench@localhost:1/bench\n"), 0o600))

	err := run(context.Background(), options{configPath: path, workload: "bulk_load"})

	assert.ErrorIs(t, err, bench.ErrUnknownWorkload)
}
