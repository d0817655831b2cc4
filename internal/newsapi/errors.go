package newsapi

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNoBaseURL        = errors.New("api base url is not configured")
	// ErrNoRecord is returned when a create succeeds but the body carries
	// no record with an id.
	ErrNoRecord         = errors.New("response carried no news record")
)

// Error is returned for any response the caller did not expect. Message is
// the optional message field of the error body.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return ErrUnexpectedStatus
}

// UserMessage returns the text shown to the user for a failed request: the
// backend's message when it sent one, a status line otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Request failed with status code %d", apiErr.StatusCode)
	}
	return err.Error()
}

// StatusCode extracts the HTTP status of a failed request, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
