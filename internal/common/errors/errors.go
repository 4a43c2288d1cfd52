// Package errors provides standardized error handling for the intake session.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Error taxonomy for the intake session. Every one of these ultimately
// surfaces to the presentation layer as a SessionStatus string, never as a
// structured code.
const (
	ErrCodeConfigNotFound     ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeAuthSigninFailed   ErrorCode = "AUTH_SIGNIN_FAILED"
	ErrCodeNotReady           ErrorCode = "NOT_READY"
	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeDocumentWriteFail  ErrorCode = "DOCUMENT_WRITE_FAILED"

	ErrCodeStoreConnectionFailed ErrorCode = "STORE_CONNECTION_FAILED"
	ErrCodeInvalidCollectionPath ErrorCode = "INVALID_COLLECTION_PATH"
	ErrCodeNotificationSendFail  ErrorCode = "NOTIFICATION_SEND_FAILED"
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

// NewConfigNotFoundError marks the terminal condition of a missing credential
// bundle. Nothing contacts the backend after this; it is never retried.
func NewConfigNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigNotFound,
		Message:   "Backend config not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthSigninFailedError wraps a sign-in rejection from the auth service.
// Recoverable only by restart or a backend-side fix.
func NewAuthSigninFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthSigninFailed,
		Message:   "Authentication failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotReadyError is the local guard for a submit attempted before the
// identity and store handles resolved. No backend call was made.
func NewNotReadyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotReady,
		Message:   "Session not ready",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError rejects a re-entrant submit while one is running.
func NewSubmissionInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "Submission already in progress",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentWriteError wraps a failed document-create call. The form state is
// preserved by the caller so the user can resubmit; nothing retries here.
func NewDocumentWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentWriteFail,
		Message:   "Document write failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreConnectionError wraps a storage connection failure at startup.
func NewStoreConnectionError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreConnectionFailed,
		Message:   "Document store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCollectionPathError marks a malformed per-identity document path.
func NewInvalidCollectionPathError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCollectionPath,
		Message:   "Invalid collection path",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize ensures any error is represented as a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
