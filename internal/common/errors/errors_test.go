package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCodeAndRetryability(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{
			name:      "gateway rejected",
			err:       NewGatewayRejectedError("invalid destination"),
			code:      ErrCodeGatewayRejected,
			retryable: true,
		},
		{
			name:      "gateway unreachable",
			err:       NewGatewayUnreachableError(cause),
			code:      ErrCodeGatewayUnreached,
			retryable: true,
		},
		{
			name:      "recipient not found",
			err:       NewRecipientNotFoundError("alice.staff"),
			code:      ErrCodeRecipientNotFound,
			retryable: false,
		},
		{
			name:      "card query failed",
			err:       NewCardQueryFailedError(cause),
			code:      ErrCodeCardQueryFailed,
			retryable: true,
		},
		{
			name:      "card update failed",
			err:       NewCardUpdateFailedError("card-1", cause),
			code:      ErrCodeCardUpdateFailed,
			retryable: false,
		},
		{
			name:      "retry exhausted",
			err:       NewRetryExhaustedError(3, 2),
			code:      ErrCodeRetryExhausted,
			retryable: false,
		},
		{
			name:      "template not found",
			err:       NewTemplateNotFoundError("appointment-reminder"),
			code:      ErrCodeTemplateNotFound,
			retryable: false,
		},
		{
			name:      "template validation failed",
			err:       NewTemplateValidationFailedError("missing field: staffName"),
			code:      ErrCodeTemplateValidationFailed,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.NotEmpty(t, tt.err.Message)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestIsMatchesOnCode(t *testing.T) {
	a := NewCardUpdateFailedError("card-1", fmt.Errorf("deadlock"))
	b := NewCardUpdateFailedError("card-2", fmt.Errorf("timeout"))
	other := NewCardQueryFailedError(fmt.Errorf("timeout"))

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, other))
	assert.False(t, stderrors.Is(a, fmt.Errorf("plain error")))
}

func TestRetryExhaustedCarriesMetadata(t *testing.T) {
	err := NewRetryExhaustedError(3, 5)

	assert.Equal(t, 3, err.Metadata["attempts"])
	assert.Equal(t, 5, err.Metadata["remaining"])
	assert.Contains(t, err.Details, "attempts: 3")
	assert.Contains(t, err.Details, "remaining: 5")
}
