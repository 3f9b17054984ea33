package broker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionError(t *testing.T) {
	t.Parallel()

	err := &ExecutionError{Op: "place", Symbol: "EURUSD", Err: ErrDataUnavailable}
	assert.Equal(t, "execution place EURUSD: market data unavailable", err.Error())
	assert.ErrorIs(t, err, ErrDataUnavailable)

	noSym := &ExecutionError{Op: "close", Err: ErrTicketNotFound}
	assert.Equal(t, "execution close: ticket not found", noSym.Error())

	wrapped := fmt.Errorf("close T1: %w", noSym)
	var execErr *ExecutionError
	assert.True(t, errors.As(wrapped, &execErr))
	assert.ErrorIs(t, wrapped, ErrTicketNotFound)
}
