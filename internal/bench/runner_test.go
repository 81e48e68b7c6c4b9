package bench

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	db, mock := newMockDB(t)
	prep := mock.ExpectPrepare(selectUsersSQL)
	for i := 0; i < 3; i++ {
		prep.ExpectQuery().WillReturnRows(userRows())
	}

	r := NewRunner(nil, nil)
	res, err := r.Run(context.Background(), NewSuite(db, nil), WorkloadTrivial, 3)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, WorkloadTrivial, res.Workload)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 1, res.Workers)
	assert.LessOrEqual(t, res.Min, res.Mean)
	assert.LessOrEqual(t, res.Mean, res.Max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_RunErrors(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewRunner(nil, nil)
	suite := NewSuite(db, nil)

	_, err := r.Run(context.Background(), suite, WorkloadTrivial, 0)
	assert.ErrorContains(t, err, "iterations must be positive")

	_, err = r.Run(context.Background(), suite, "bulk_load", 1)
	assert.ErrorIs(t, err, ErrUnknownWorkload)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, suite, WorkloadTrivial, 1)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_RunParallelClampsWorkers(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectPrepare(selectUsersSQL).WillBeClosed().
		ExpectQuery().WillReturnRows(userRows())

	res, err := NewRunner(db, nil).RunParallel(context.Background(), WorkloadTrivial, 1, 4)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Workers)
	assert.Equal(t, 1, res.Iterations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_RunParallelWithoutDB(t *testing.T) {
	_, err := NewRunner(nil, nil).RunParallel(context.Background(), WorkloadTrivial, 2, 2)
	assert.ErrorContains(t, err, "needs a database")
}

func TestSummarize(t *testing.T) {
	res := summarize("insert_1", 2, []time.Duration{
		3 * time.Millisecond,
		1 * time.Millisecond,
		5 * time.Millisecond,
		3 * time.Millisecond,
	})

	assert.Equal(t, "insert_1", res.Workload)
	assert.Equal(t, 2, res.Workers)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, 12*time.Millisecond, res.Total)
	assert.Equal(t, 3*time.Millisecond, res.Mean)
	assert.Equal(t, time.Millisecond, res.Min)
	assert.Equal(t, 5*time.Millisecond, res.Max)

	empty := summarize("trivial", 1, nil)
	assert.Zero(t, empty.Mean)
	assert.Zero(t, empty.Iterations)
}
