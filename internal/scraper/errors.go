package scraper

import (
	"fmt"
	"net/http"
	"time"
)

// ExtractionError means the expected markup was not found, usually because the page changed
type ExtractionError struct {
	What string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.What, e.Err)
	}
	return "extraction failed: " + e.What
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ParseError means a value was found but could not be coerced to a number or time
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedRangeError means the requested date is outside what the operator publishes
type UnsupportedRangeError struct {
	Operation string
	Target    time.Time
	Earliest  time.Time
}

func (e *UnsupportedRangeError) Error() string {
	return fmt.Sprintf("%s: %s is before the earliest available date %s",
		e.Operation, e.Target.Format(time.RFC3339), e.Earliest.Format(time.RFC3339))
}

// UnsupportedOperationError means the fetch cannot serve this kind of request at all
type UnsupportedOperationError struct {
	Operation string
	Reason    string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// TransportError represents a non-200 response from the operator site
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// Temporary reports whether the status looks transient (5xx or 429).
// Nothing in this package retries; callers decide.
func (e *TransportError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}
