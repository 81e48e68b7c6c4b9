package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("load posts: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "StoreError wrapping ErrNotFound",
			err:      NewStoreError("post", "load", "missing parent", ErrNotFound),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewStoreError("user", "seed", "insert failed", cause)
	assert.Equal(t, "seed operation on user failed: insert failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("comment", "seed", "no posts", nil)
	assert.Equal(t, "seed operation on comment failed: no posts", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
