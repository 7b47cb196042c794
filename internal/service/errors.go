package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/law-makers/parscrape/internal/engine"
)

// Error is a scrape failure ready to be written to a client.
type Error struct {
	Status int
	Code   engine.ErrorCode
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Title is the short error label sent alongside the detail.
func (e *Error) Title() string {
	switch e.Code {
	case engine.ErrCodeValidation:
		return "Validation error"
	case engine.ErrCodeInvalidURL:
		return "Invalid URL"
	case engine.ErrCodeTimeout:
		return "Scraping timeout"
	case engine.ErrCodeNetworkError:
		return "Network error"
	case engine.ErrCodeEmptyContent:
		return "Empty content"
	case engine.ErrCodeExtraction, engine.ErrCodeParseError:
		return "HTML parsing error"
	case engine.ErrCodeBrowser:
		return "Browser unavailable"
	}
	return "Internal server error"
}

func validationError(status int, detail string, err error) *Error {
	return &Error{Status: status, Code: engine.ErrCodeValidation, Detail: detail, Err: err}
}

func invalidURLError(rawURL string, err error) *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Code:   engine.ErrCodeInvalidURL,
		Detail: fmt.Sprintf("Invalid URL: %s. URL must start with http:// or https://", rawURL),
		Err:    err,
	}
}

func extractionError() *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Code:   engine.ErrCodeExtraction,
		Detail: "HTML parsing error: extraction resulted in empty content",
	}
}

// fetchError maps a backend failure onto a client-facing error.
// timeoutSecs is quoted back in timeout messages.
func fetchError(err error, timeoutSecs int) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	ee := engine.Classify(err)
	cause := err
	if ee.Underlying != nil {
		cause = ee.Underlying
	}

	out := &Error{Code: ee.Code, Err: err}
	switch ee.Code {
	case engine.ErrCodeTimeout:
		out.Status = http.StatusGatewayTimeout
		out.Detail = fmt.Sprintf("Scraping timeout after %d seconds", timeoutSecs)
	case engine.ErrCodeNetworkError:
		out.Status = http.StatusBadGateway
		out.Detail = fmt.Sprintf("Network error: %v", cause)
	case engine.ErrCodeEmptyContent:
		out.Status = http.StatusBadGateway
		out.Detail = "No content was fetched from the URL"
	case engine.ErrCodeExtraction:
		return extractionError()
	case engine.ErrCodeParseError:
		out.Status = http.StatusInternalServerError
		out.Detail = fmt.Sprintf("HTML parsing error: %v", cause)
	case engine.ErrCodeBrowser:
		out.Status = http.StatusServiceUnavailable
		out.Detail = fmt.Sprintf("Browser unavailable: %v", cause)
	case engine.ErrCodeInvalidURL:
		out.Status = http.StatusBadRequest
		out.Detail = fmt.Sprintf("Invalid URL: %v", cause)
	case engine.ErrCodeValidation:
		out.Status = http.StatusBadRequest
		out.Detail = cause.Error()
	default:
		out.Code = engine.ErrCodeInternal
		out.Status = http.StatusInternalServerError
		out.Detail = fmt.Sprintf("Unexpected error: %v", cause)
	}
	return out
}

// GetStatusCode reports the HTTP status, letting retry policies treat
// in-process failures like service responses.
func (e *Error) GetStatusCode() int {
	return e.Status
}
