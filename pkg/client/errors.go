package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrMissingToken is returned when a login succeeds without a session token header.
	ErrMissingToken = errors.New("response carried no session token")
)

// APIError represents a failed Seal API request with additional context.
type APIError struct {
	Endpoint   string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("seal %s %s error (status %d): %s: %v",
			e.Endpoint, e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("seal %s %s error (status %d): %s",
		e.Endpoint, e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassOf returns the ErrorClass of the first *APIError in err's chain, or
// an empty class if there is none.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}
