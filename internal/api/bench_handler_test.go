package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/pgstmt/internal/bench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectUsers = "SELECT id, name, hair_color FROM users"

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewBenchHandler(bench.NewSuite(db, nil), bench.NewRunner(db, nil), 2, nil)
	r := chi.NewRouter()
	r.Get("/api/stats", h.Stats)
	r.Post("/api/runs/{workload}", h.Run)
	return r, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "hair_color"}).AddRow(1, "User 0", "black")
}

func TestBenchHandler_RunThenStats(t *testing.T) {
	router, mock := newTestRouter(t)
	prep := mock.ExpectPrepare(selectUsers)
	prep.ExpectQuery().WillReturnRows(userRows())
	prep.ExpectQuery().WillReturnRows(userRows())
	prep.ExpectQuery().WillReturnRows(userRows())

	// Default iterations first, then an explicit count reusing the statement.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/runs/trivial", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res bench.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "trivial", res.Workload)
	assert.Equal(t, 2, res.Iterations)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/runs/trivial?iterations=1", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.True(t, stats.Statements[selectUsers])
	assert.Zero(t, stats.Registry.Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBenchHandler_RunRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{"unknown workload", "/api/runs/bulk_load", http.StatusNotFound, "Unknown workload"},
		{"insert of zero rows", "/api/runs/insert_0", http.StatusNotFound, "Unknown workload"},
		{"non-numeric iterations", "/api/runs/trivial?iterations=many", http.StatusBadRequest, "Invalid request parameters"},
		{"zero iterations", "/api/runs/trivial?iterations=0", http.StatusBadRequest, "Invalid request parameters"},
		{"too many workers", "/api/runs/trivial?workers=500", http.StatusBadRequest, "Invalid request parameters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, mock := newTestRouter(t)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tc.target, nil))

			assert.Equal(t, tc.status, w.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tc.body, resp["error"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBenchHandler_RunRedactsDriverErrors(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectPrepare(selectUsers).
		WillReturnError(errors.New(`relation "users" does not exist at db.internal.example.com:5432`))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/runs/trivial", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to prepare statement")
	assert.NotContains(t, w.Body.String(), "relation")
	assert.NotContains(t, w.Body.String(), "example.com")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBenchHandler_StatsDuringRun(t *testing.T) {
	db, _, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := NewBenchHandler(bench.NewSuite(db, nil), bench.NewRunner(db, nil), 1, nil)

	// Hold the run lock as an in-flight sequential run would.
	h.mu.Lock()
	defer h.mu.Unlock()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		w := httptest.NewRecorder()
		h.Stats(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		done <- w
	}()

	select {
	case w := <-done:
		require.Equal(t, http.StatusOK, w.Code)
		var stats StatsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.Contains(t, stats.Statements, selectUsers)
		assert.False(t, stats.Statements[selectUsers])
	case <-time.After(2 * time.Second):
		t.Fatal("stats blocked behind a running workload")
	}
}
