//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/phrazzld/pgstmt/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testdb.OpenTestDB(t)
	ctx := context.Background()

	// OpenTestDB has already migrated; a second run applies nothing.
	require.NoError(t, postgres.Migrate(ctx, db, nil))

	version, err := postgres.MigrationVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var exists bool
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT to_regclass('public.comments') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)
}
