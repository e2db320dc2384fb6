package fetch

import (
	"errors"
	"fmt"
)

// StatusError indicates a non-2xx HTTP response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s", e.Code, e.URL)
}

// ConnError indicates a transport-level failure (DNS, TCP, TLS, timeout).
type ConnError struct {
	URL string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connection failure for %s: %v", e.URL, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// Fetch outcome labels, used for metrics and error aggregation.
const (
	OutcomeSuccess    = "success"
	OutcomeHTTPStatus = "http_status"
	OutcomeConnection = "connection"
	OutcomeOther      = "other"
)

// Outcome classifies a Fetch error into a stable label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var status *StatusError
	if errors.As(err, &status) {
		return OutcomeHTTPStatus
	}
	var conn *ConnError
	if errors.As(err, &conn) {
		return OutcomeConnection
	}
	return OutcomeOther
}
