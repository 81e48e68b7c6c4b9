package client

import (
	"errors"
	"fmt"
)

var (
	// ErrPreparationFailed is returned when the driver rejects or fails to
	// prepare a statement. The driver error stays in the chain.
	ErrPreparationFailed = errors.New("statement preparation failed")

	// ErrExecutionFailed is returned when a query or exec using a prepared
	// statement fails. The driver error stays in the chain.
	ErrExecutionFailed = errors.New("statement execution failed")

	// ErrConnMismatch is returned when an entry that already holds a handle
	// is resolved against a different connection than the one it was
	// prepared on.
	ErrConnMismatch = errors.New("statement prepared on a different connection")
)

// prepareError wraps a driver error so that both ErrPreparationFailed and the
// original error match with errors.Is.
func prepareError(err error) error {
	return fmt.Errorf("%w: %w", ErrPreparationFailed, err)
}

func execError(err error) error {
	return fmt.Errorf("%w: %w", ErrExecutionFailed, err)
}
