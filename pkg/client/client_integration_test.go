//go:build integration

package client_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/pgstmt/internal/platform/postgres"
	"github.com/phrazzld/pgstmt/internal/testdb"
	"github.com/phrazzld/pgstmt/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStmtAgainstDatabase(t *testing.T) {
	db := testdb.OpenTestDB(t)
	ctx := context.Background()

	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	stmt := client.NewStmt("SELECT $1::int + 1")
	for i := 0; i < 3; i++ {
		s, err := stmt.Prepare(ctx, conn)
		require.NoError(t, err)

		var got int
		require.NoError(t, s.QueryRowContext(ctx, i).Scan(&got))
		assert.Equal(t, i+1, got)
	}
}

func TestStmtSyntaxErrorIsRetried(t *testing.T) {
	db := testdb.OpenTestDB(t)
	ctx := context.Background()

	stmt := client.NewStmt("SELEC 1")
	for i := 0; i < 2; i++ {
		_, err := stmt.Prepare(ctx, db)
		require.ErrorIs(t, err, client.ErrPreparationFailed)
		assert.True(t, postgres.IsSyntaxError(err))
		assert.False(t, stmt.Prepared())
	}
}

func TestPgxStmtAgainstDatabase(t *testing.T) {
	testdb.OpenTestDB(t)
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, testdb.GetTestDatabaseURL())
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	stmt := client.NewPgxStmt("SELECT $1::text || '!'")
	first, err := stmt.Prepare(ctx, conn)
	require.NoError(t, err)
	second, err := stmt.Prepare(ctx, conn)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, stmt.Name(), first.Name)

	var got string
	require.NoError(t, conn.QueryRow(ctx, stmt.Name(), "hi").Scan(&got))
	assert.Equal(t, "hi!", got)
}
