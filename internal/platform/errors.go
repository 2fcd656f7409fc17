package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the booking backend, either an
// HTTP error status or an envelope with isSuccess=false.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error %d", e.StatusCode)
}

// IsBadRequest reports whether err is an HTTP 400 from the backend. The
// reject compatibility shim keys off this.
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// IsUnauthorized reports whether err means the session token was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
