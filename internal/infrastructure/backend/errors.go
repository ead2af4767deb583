package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the backend reports 404 for an invoice.
var ErrNotFound = errors.New("invoice not found")

// NetworkError wraps a transport-level failure (connection refused, DNS,
// timeout). The request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend unreachable during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response. Message carries the server-provided
// error text when the body had one.
type HTTPError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d during %s: %s", e.StatusCode, e.Op, e.Message)
	}
	return fmt.Sprintf("backend returned %d during %s", e.StatusCode, e.Op)
}

// ValidationError is a backend rejection of the submitted payload, such
// as an unsupported file on upload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "backend rejected the request"
	}
	return e.Message
}

// UserMessage extracts a short, user-presentable message from a backend
// client error. Unknown errors collapse to a generic notice so raw
// transport details never reach the page.
func UserMessage(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return fmt.Sprintf("the server responded with an error (%d)", httpErr.StatusCode)
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "the server could not be reached"
	}

	if errors.Is(err, ErrNotFound) {
		return "invoice not found"
	}

	return "an unexpected error occurred"
}
