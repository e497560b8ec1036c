package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	// Body is the raw error payload, for callers that want more than Message.
	Body []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// newHTTPError extracts the server's "error" or "message" field, falling back
// to the raw body.
func newHTTPError(status int, body []byte) *HTTPError {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil {
		switch {
		case apiErr.Error != "":
			msg = apiErr.Error
		case apiErr.Message != "":
			msg = apiErr.Message
		}
	}
	return &HTTPError{StatusCode: status, Message: msg, Body: body}
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
