// Package errors provides standardized error handling for the reminder
// dispatch pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Delivery errors
	ErrCodeGatewayRejected  ErrorCode = "GATEWAY_REJECTED"
	ErrCodeGatewayUnreached ErrorCode = "GATEWAY_UNREACHABLE"

	// Recipient resolution errors
	ErrCodeRecipientNotFound ErrorCode = "RECIPIENT_NOT_FOUND"

	// Persistence errors
	ErrCodeCardQueryFailed  ErrorCode = "CARD_QUERY_FAILED"
	ErrCodeCardUpdateFailed ErrorCode = "CARD_UPDATE_FAILED"

	// Retry coordinator
	ErrCodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED"

	// Templates
	ErrCodeTemplateNotFound         ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateValidationFailed ErrorCode = "TEMPLATE_VALIDATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is supports errors.Is matching on the code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewGatewayRejectedError creates a retryable error for a provider-reported
// failure (HTTP call succeeded, provider said no).
func NewGatewayRejectedError(providerMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayRejected,
		Message:   "Messaging provider rejected the send",
		Details:   providerMessage,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayUnreachableError creates a retryable transport-level error.
func NewGatewayUnreachableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayUnreached,
		Message:   "Messaging provider unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientNotFoundError creates a non-retryable resolution error; the
// card is skipped for this pass and stays unnotified.
func NewRecipientNotFoundError(assignee string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecipientNotFound,
		Message:   "No directory entry for assignee",
		Details:   fmt.Sprintf("assignedTo: %s", assignee),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCardQueryFailedError creates a retryable persistence read error.
func NewCardQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCardQueryFailed,
		Message:   "Card store query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCardUpdateFailedError creates an error for a failed notified-flag
// update. Not retryable: the message already went out, re-sending would
// duplicate it.
func NewCardUpdateFailedError(cardID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCardUpdateFailed,
		Message:   "Failed to mark card as notified",
		Details:   fmt.Sprintf("cardId: %s, error: %s", cardID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetryExhaustedError creates the terminal error for a retry session that
// hit its ceiling with cards still pending.
func NewRetryExhaustedError(attempts, remaining int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetryExhausted,
		Message:   "Retry ceiling reached with reminders still pending",
		Details:   fmt.Sprintf("attempts: %d, remaining: %d", attempts, remaining),
		Retryable: false,
		Metadata: map[string]interface{}{
			"attempts":  attempts,
			"remaining": remaining,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in registry",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateValidationFailedError creates a non-retryable template
// validation error.
func NewTemplateValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateValidationFailed,
		Message:   "Data validation failed for template",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
