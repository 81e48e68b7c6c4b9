package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIMetadata(t *testing.T) {
	env := map[string]string{
		"CI_PROVIDER":   "github",
		"GITHUB_RUN_ID": "42",
	}

	attrs := ciMetadata(func(k string) string { return env[k] })

	got := map[string]string{}
	for _, a := range attrs {
		got[a.Key] = a.Value.String()
	}
	assert.Equal(t, map[string]string{"ci_provider": "github", "ci_run_id": "42"}, got)
}

func TestCIHandler_AddsMetadata(t *testing.T) {
	var buf bytes.Buffer
	h := newCIHandler(
		slog.NewJSONHandler(&buf, nil),
		[]slog.Attr{slog.String("ci_run_id", "42")},
	)
	l := slog.New(h).With("component", "bench_runner")

	l.Info("workload finished", "workload", "trivial")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "42", record["ci_run_id"])
	assert.Equal(t, "bench_runner", record["component"])
	assert.Equal(t, "trivial", record["workload"])
}
