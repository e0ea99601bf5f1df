// Package errors provides standardized error handling for the notification engine.
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
	ErrCodeUnknownNotificationKind ErrorCode = "UNKNOWN_NOTIFICATION_KIND"
	ErrCodeTemplateChannelMissing  ErrorCode = "TEMPLATE_CHANNEL_MISSING"

	ErrCodePreferenceLookupFailed ErrorCode = "PREFERENCE_LOOKUP_FAILED"
	ErrCodePreferenceUpdateFailed ErrorCode = "PREFERENCE_UPDATE_FAILED"

	ErrCodeNotificationSendFailed    ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeNotificationPersistFailed ErrorCode = "NOTIFICATION_PERSIST_FAILED"
	ErrCodeNotificationNotFound      ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
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

// Is supports errors.Is matching on the error code.
func (e *StandardError) Is(target error) bool {
	if other, ok := target.(*StandardError); ok {
		return e.Code == other.Code
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnknownNotificationKindError creates a non-retryable catalog lookup error.
// An unknown kind is a programmer error: it means a catalog entry is missing.
func NewUnknownNotificationKindError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownNotificationKind,
		Message:   "No template registered for notification kind",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateChannelMissingError creates a non-retryable catalog construction error.
func NewTemplateChannelMissingError(kind, channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateChannelMissing,
		Message:   "Template declares a channel without a body",
		Details:   fmt.Sprintf("kind: %s, channel: %s", kind, channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreferenceLookupFailedError creates a retryable preference read error.
func NewPreferenceLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreferenceLookupFailed,
		Message:   "Database error during preference lookup",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreferenceUpdateFailedError creates a retryable preference write error.
func NewPreferenceUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreferenceUpdateFailed,
		Message:   "Database error during preference update",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable provider send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Provider call failed for channel",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationPersistFailedError creates a retryable in-app persistence error.
func NewNotificationPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationPersistFailed,
		Message:   "Failed to persist in-app notification",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationNotFoundError creates a non-retryable not-found error.
func NewNotificationNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationNotFound,
		Message:   "In-app notification not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
