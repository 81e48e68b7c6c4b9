package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/pgstmt/internal/api/shared"
	"github.com/phrazzld/pgstmt/internal/bench"
	"github.com/phrazzld/pgstmt/internal/platform/logger"
	"github.com/phrazzld/pgstmt/pkg/client"
)

// RunRequest holds the parameters of POST /api/runs/{workload}.
type RunRequest struct {
	Workload   string `validate:"required"`
	Iterations int    `validate:"gt=0,lte=100000"`
	Workers    int    `validate:"gt=0,lte=64"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Statements map[string]bool     `json:"statements"`
	Registry   client.RegistryStats `json:"registry"`
}

// BenchHandler serves workload runs against a long-lived Suite, so repeated
// requests reuse the statements prepared by earlier ones.
type BenchHandler struct {
	// mu serializes sequential runs; the suite's statements are single-owner.
	mu     sync.Mutex
	suite  *bench.Suite
	runner *bench.Runner

	// statsMu guards statements, a copy of the suite's statement state taken
	// under mu so Stats never waits for a run to finish.
	statsMu    sync.RWMutex
	statements map[string]bool

	defaultIterations int
	validator         *validator.Validate
	logger            *slog.Logger
}

// NewBenchHandler creates a BenchHandler. Requests without an iterations
// parameter run defaultIterations times.
func NewBenchHandler(suite *bench.Suite, runner *bench.Runner, defaultIterations int, logger *slog.Logger) *BenchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultIterations <= 0 {
		defaultIterations = 1
	}
	h := &BenchHandler{
		suite:             suite,
		runner:            runner,
		defaultIterations: defaultIterations,
		validator:         validator.New(),
		logger:            logger.With(slog.String("component", "bench_handler")),
	}
	h.snapshotStatements()
	return h
}

// snapshotStatements copies the suite's statement state. Callers hold mu or
// otherwise own the suite.
func (h *BenchHandler) snapshotStatements() {
	statements := h.suite.Statements()
	h.statsMu.Lock()
	h.statements = statements
	h.statsMu.Unlock()
}

// Stats handles GET /api/stats. Statement state reflects the last completed
// sequential run; registry counters are live.
func (h *BenchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.statsMu.RLock()
	resp := StatsResponse{
		Statements: h.statements,
		Registry:   h.suite.RegistryStats(),
	}
	h.statsMu.RUnlock()

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Run handles POST /api/runs/{workload}?iterations=N&workers=M. With more
// than one worker the run uses dedicated connections and a fresh suite per
// worker instead of the shared one.
func (h *BenchHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, err := h.parseRunRequest(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	var res bench.Result
	if req.Workers > 1 {
		res, err = h.runner.RunParallel(r.Context(), req.Workload, req.Iterations, req.Workers)
	} else {
		h.mu.Lock()
		res, err = h.runner.Run(r.Context(), h.suite, req.Workload, req.Iterations)
		h.snapshotStatements()
		h.mu.Unlock()
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("benchmark run completed", slog.Any("result", res))
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

func (h *BenchHandler) parseRunRequest(r *http.Request) (RunRequest, error) {
	req := RunRequest{Workload: chi.URLParam(r, "workload")}

	var err error
	if req.Iterations, err = queryInt(r, "iterations", h.defaultIterations); err != nil {
		return RunRequest{}, err
	}
	if req.Workers, err = queryInt(r, "workers", 1); err != nil {
		return RunRequest{}, err
	}
	if err := h.validator.Struct(req); err != nil {
		return RunRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}
