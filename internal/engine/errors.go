// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserCrash    = errors.New("browser crashed")
	ErrTimeout         = errors.New("request timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNetworkError    = errors.New("network error")
	ErrParseError      = errors.New("failed to parse response")
	ErrEmptyContent    = errors.New("no content was fetched from the URL")
	ErrUnknownBackend  = errors.New("unknown backend")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeInvalidURL   ErrorCode = "INVALID_URL"
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeEmptyContent ErrorCode = "EMPTY_CONTENT"
	ErrCodeExtraction   ErrorCode = "EXTRACTION_ERROR"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeBrowser      ErrorCode = "BROWSER_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by code, anything else through the chain
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// Classify turns any fetch-side error into an EngineError. Errors that are
// already EngineErrors pass through; the rest are sorted by type first and by
// message second, because browser drivers mostly report failures as strings
// such as "net::ERR_NAME_NOT_RESOLVED".
func Classify(err error) *EngineError {
	if err == nil {
		return nil
	}

	var ee *EngineError
	if errors.As(err, &ee) {
		return ee
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return NewEngineError(ErrCodeTimeout, "deadline exceeded", err).WithRetry()
	case errors.Is(err, ErrBrowserNotFound), errors.Is(err, ErrBrowserCrash):
		return NewEngineError(ErrCodeBrowser, "browser unavailable", err)
	case errors.Is(err, ErrEmptyContent):
		return NewEngineError(ErrCodeEmptyContent, "empty document", err).WithRetry()
	case errors.Is(err, ErrInvalidURL):
		return NewEngineError(ErrCodeInvalidURL, "invalid URL", err)
	case errors.Is(err, ErrUnknownBackend):
		return NewEngineError(ErrCodeValidation, "unknown backend", err)
	case errors.Is(err, ErrNetworkError):
		return NewEngineError(ErrCodeNetworkError, "network failure", err).WithRetry()
	case errors.Is(err, ErrParseError):
		return NewEngineError(ErrCodeParseError, "parse failure", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewEngineError(ErrCodeTimeout, "network timeout", err).WithRetry()
		}
		return NewEngineError(ErrCodeNetworkError, "network failure", err).WithRetry()
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return NewEngineError(ErrCodeTimeout, "deadline exceeded", err).WithRetry()
	case strings.Contains(msg, "net::err_"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "no such host"):
		return NewEngineError(ErrCodeNetworkError, "network failure", err).WithRetry()
	case strings.Contains(msg, "parse"), strings.Contains(msg, "html"):
		return NewEngineError(ErrCodeParseError, "parse failure", err)
	}

	return NewEngineError(ErrCodeInternal, "unexpected failure", err)
}
