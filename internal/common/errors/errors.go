// Package errors provides standardized error handling for the generation pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEmptyPrompt ErrorCode = "EMPTY_PROMPT"

	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeMalformedResponse   ErrorCode = "MALFORMED_RESPONSE"

	ErrCodeChannelExhausted ErrorCode = "CHANNEL_EXHAUSTED"
	ErrCodeChannelDisabled  ErrorCode = "CHANNEL_DISABLED"

	ErrCodeRegistryInvalid    ErrorCode = "REGISTRY_INVALID"
	ErrCodeHistoryWriteFailed ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeGenerationNotFound ErrorCode = "GENERATION_NOT_FOUND"
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

// ==========================
// 2. Error Constructors
// ==========================

// NewEmptyPromptError creates a non-retryable validation error. No remote
// call may be attempted once this is returned.
func NewEmptyPromptError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyPrompt,
		Message:   "Prompt must not be empty",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError marks a single provider attempt as failed.
// Retryable here means "the next provider in the fallback list may be tried",
// not that the same provider should be called again.
func NewProviderUnavailableError(providerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   err.Error(),
		Details:   fmt.Sprintf("provider: %s", providerID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable provider timeout error.
func NewProviderTimeoutError(providerID string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   fmt.Sprintf("provider did not respond within %s", timeout),
		Details:   fmt.Sprintf("provider: %s", providerID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a retryable decode error.
func NewMalformedResponseError(providerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   fmt.Sprintf("malformed provider response: %s", err.Error()),
		Details:   fmt.Sprintf("provider: %s", providerID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelExhaustedError wraps the LAST attempted provider's error once
// every provider in a channel's fallback list has failed. The message is
// the underlying provider error verbatim; earlier attempts are discarded.
func NewChannelExhaustedError(channel string, lastErr *StandardError) *StandardError {
	msg := "no providers configured"
	if lastErr != nil {
		msg = lastErr.Message
	}
	return &StandardError{
		Code:      ErrCodeChannelExhausted,
		Message:   msg,
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelDisabledError is returned when a channel has no usable providers,
// typically because the required credential is absent.
func NewChannelDisabledError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelDisabled,
		Message:   fmt.Sprintf("channel %s is disabled: no providers available", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryInvalidError creates a non-retryable startup error.
func NewRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInvalid,
		Message:   "Provider registry failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryWriteFailedError creates a retryable persistence error.
func NewHistoryWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryWriteFailed,
		Message:   "Failed to persist generation record",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. Cache errors are
// always downgraded to misses by callers.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Result cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationNotFoundError creates a non-retryable lookup error.
func NewGenerationNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationNotFound,
		Message:   "Generation not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Helpers
// ==========================

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
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

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// GetErrorCategory groups error codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeEmptyPrompt:
		return "validation"
	case ErrCodeProviderUnavailable, ErrCodeProviderTimeout, ErrCodeMalformedResponse:
		return "provider"
	case ErrCodeChannelExhausted, ErrCodeChannelDisabled:
		return "channel"
	case ErrCodeHistoryWriteFailed, ErrCodeCacheUnavailable:
		return "storage"
	case ErrCodeRegistryInvalid:
		return "configuration"
	default:
		return "internal"
	}
}
