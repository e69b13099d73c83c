package marketdata

import (
	"errors"
	"fmt"
)

// APIError represents a non-success response from the data provider
type APIError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates no bars exist for the requested ticker/date
type NotFoundError struct {
	Ticker string
	Date   string
}

func (e *NotFoundError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("no market data for date %s", e.Date)
	}
	return fmt.Sprintf("no market data for %s on %s", e.Ticker, e.Date)
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, message string, cause error) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
