package scraper

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors.Is for any NotFoundError
var ErrNotFound = errors.New("course not found in timetable")

// NetworkError is a transport-level failure: DNS, connection, timeout or cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is returned when the timetable answers with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status: %s", e.Status)
	}
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// ParseError means the page structure was not what the extractor expects.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError means the page parsed but had no row for the CRN.
type NotFoundError struct {
	CRN string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("CRN %s not found in timetable response", e.CRN)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
