package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// ciEnvVars lists the CI variables copied onto every record, keyed by the
// attribute name they are logged under.
var ciEnvVars = map[string]string{
	"ci_provider": "CI_PROVIDER",
	"ci_job":      "GITHUB_JOB",
	"ci_run_id":   "GITHUB_RUN_ID",
	"ci_ref":      "GITHUB_REF",
	"ci_sha":      "GITHUB_SHA",
}

// CIHandler is a slog.Handler that adds CI environment metadata to log
// records, so benchmark output from different CI runs can be told apart.
type CIHandler struct {
	handler  slog.Handler
	metadata []slog.Attr
}

// NewCIHandler creates a CIHandler writing JSON to out.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	return newCIHandler(slog.NewJSONHandler(out, opts), ciMetadata(os.Getenv))
}

func newCIHandler(h slog.Handler, metadata []slog.Attr) *CIHandler {
	return &CIHandler{handler: h, metadata: metadata}
}

// ciMetadata collects the non-empty CI variables using getenv.
func ciMetadata(getenv func(string) string) []slog.Attr {
	var attrs []slog.Attr
	for key, env := range ciEnvVars {
		if v := getenv(env); v != "" {
			attrs = append(attrs, slog.String(key, v))
		}
	}
	return attrs
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newCIHandler(h.handler.WithAttrs(attrs), h.metadata)
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return newCIHandler(h.handler.WithGroup(name), h.metadata)
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone the record to avoid modifying the original
	enhanced := record.Clone()
	enhanced.AddAttrs(h.metadata...)
	return h.handler.Handle(ctx, enhanced)
}
