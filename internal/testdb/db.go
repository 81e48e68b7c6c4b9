package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/pgstmt/internal/config"
	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup work such as connecting and migrating.
const TestTimeout = 10 * time.Second

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDatabaseURL returns DATABASE_URL, falling back to PGSTMT_TEST_DB_URL.
func GetTestDatabaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	return os.Getenv("PGSTMT_TEST_DB_URL")
}

// Config returns database settings for the test database.
func Config() config.DatabaseConfig {
	return config.DatabaseConfig{
		URL:             GetTestDatabaseURL(),
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Minute,
		PingTimeout:     TestTimeout,
	}
}

// OpenTestDB connects to the test database and migrates it to the latest
// schema. The pool is closed when the test ends. Without a configured
// database the test is skipped.
func OpenTestDB(t testing.TB) *sql.DB {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, Config(), nil)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db, nil), "failed to migrate test database")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so nothing
// fn writes outlives the test.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
