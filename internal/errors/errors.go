// Package errors provides domain-specific error types and sentinel errors
// for chart lookups, downloads and roll-number validation.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates the remote chart is absent or failed to load.
	ErrNotFound = errors.New("chart not found")

	// ErrNetwork indicates a transport-level failure talking to the chart host.
	ErrNetwork = errors.New("network error")

	// ErrDownloadBlocked indicates the chart host refused to let us read the bytes.
	ErrDownloadBlocked = errors.New("download blocked")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// User-facing messages shared by the HTTP service and the CLI.
const (
	MsgInvalidRoll     = "Invalid roll number format. Please use FAXX-ABC-000"
	MsgEmptyRoll       = "Please enter a roll number"
	MsgNotFound        = "Failed to fetch GPA chart"
	MsgNetwork         = "Network error. Please check your connection and try again."
	MsgDownloadBlocked = "If download didn't start automatically, right-click the image and select \"Save image as...\""
)

// ValidationError represents input validation failures.
// It is raised before anything is sent over the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) match every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NotFoundError reports a chart that is absent or could not be loaded.
// StatusCode is 0 when the failure happened before a response arrived.
type NotFoundError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NotFoundError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("chart not found (url=%s, status=%d)", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("chart not found (url=%s): %v", e.URL, e.Err)
	}
	return fmt.Sprintf("chart not found (url=%s)", e.URL)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotFound) match every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(url string, statusCode int, err error) *NotFoundError {
	return &NotFoundError{URL: url, StatusCode: statusCode, Err: err}
}

// NetworkError represents a transport failure (DNS, TLS, reset, timeout).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (url=%s): %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) match every NetworkError.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// NewNetworkError creates a new network error.
func NewNetworkError(url string, err error) *NetworkError {
	return &NetworkError{URL: url, Err: err}
}

// DownloadBlockedError reports a host that refused a cross-origin style read.
type DownloadBlockedError struct {
	URL        string
	StatusCode int
}

func (e *DownloadBlockedError) Error() string {
	return fmt.Sprintf("download blocked (url=%s, status=%d)", e.URL, e.StatusCode)
}

// Is makes errors.Is(err, ErrDownloadBlocked) match every DownloadBlockedError.
func (e *DownloadBlockedError) Is(target error) bool {
	return target == ErrDownloadBlocked
}

// NewDownloadBlockedError creates a new download-blocked error.
func NewDownloadBlockedError(url string, statusCode int) *DownloadBlockedError {
	return &DownloadBlockedError{URL: url, StatusCode: statusCode}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNetwork reports whether err is or wraps ErrNetwork.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsDownloadBlocked reports whether err is or wraps ErrDownloadBlocked.
func IsDownloadBlocked(err error) bool {
	return errors.Is(err, ErrDownloadBlocked)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimitExceeded reports whether err is or wraps ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// Kind returns a short label for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsInvalidInput(err):
		return "invalid"
	case IsDownloadBlocked(err):
		return "blocked"
	case IsNetwork(err):
		return "network_error"
	case IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
