package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePgxConn records Prepare calls and fails the first failN of them.
type fakePgxConn struct {
	calls []string
	failN int
	err   error
}

func (c *fakePgxConn) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	c.calls = append(c.calls, name)
	if len(c.calls) <= c.failN {
		return nil, c.err
	}
	return &pgconn.StatementDescription{Name: name, SQL: sql}, nil
}

func TestStatementName(t *testing.T) {
	a := StatementName("SELECT id FROM users")
	b := StatementName("SELECT id FROM users")
	c := StatementName("SELECT id FROM posts")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "pgstmt_"))
	assert.Len(t, a, len("pgstmt_")+48)
}

func TestPgxStmt_PreparesOnce(t *testing.T) {
	conn := &fakePgxConn{}
	s := NewPgxStmt("SELECT id FROM users")
	assert.Empty(t, conn.calls, "construction must not prepare")

	ctx := context.Background()
	var descs []*pgconn.StatementDescription
	for i := 0; i < 3; i++ {
		sd, err := s.Prepare(ctx, conn)
		require.NoError(t, err)
		descs = append(descs, sd)
	}

	assert.Equal(t, []string{s.Name()}, conn.calls)
	assert.Same(t, descs[0], descs[1])
	assert.Same(t, descs[0], descs[2])
	assert.Equal(t, "SELECT id FROM users", descs[0].SQL)
	assert.True(t, s.Prepared())
}

func TestPgxStmt_FailureRetried(t *testing.T) {
	syntaxErr := &pgconn.PgError{Code: "42601", Message: "syntax error at or near \"FORM\""}
	conn := &fakePgxConn{failN: 2, err: syntaxErr}
	s := NewPgxStmt("SELECT id FORM users")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Prepare(ctx, conn)
		require.Error(t, err)
		var pgErr *pgconn.PgError
		require.True(t, errors.As(err, &pgErr))
		assert.Equal(t, "42601", pgErr.Code)
	}
	assert.Len(t, conn.calls, 2)
	assert.False(t, s.Prepared())

	_, err := s.Prepare(ctx, conn)
	require.NoError(t, err)
	assert.Len(t, conn.calls, 3)
}

func TestPgxStmt_ConnMismatch(t *testing.T) {
	s := NewPgxStmt("SELECT 1")
	ctx := context.Background()

	_, err := s.Prepare(ctx, &fakePgxConn{})
	require.NoError(t, err)

	_, err = s.Prepare(ctx, &fakePgxConn{})
	assert.ErrorIs(t, err, ErrConnMismatch)
}

func TestPgxStmt_TypedNilConn(t *testing.T) {
	var conn *fakePgxConn
	s := NewPgxStmt("SELECT 1")

	require.NotPanics(t, func() {
		_, err := s.Prepare(context.Background(), conn)
		assert.ErrorIs(t, err, ErrPreparationFailed)
	})
	assert.False(t, s.Prepared())
}
