package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRunningEntry is returned by Fault when no running entry matches.
	// The transport must have started the entry, so this is a programming error.
	ErrNoRunningEntry = errors.New("no running log entry for resource")

	// ErrNoHandler signals a response shape the aggregator cannot handle.
	ErrNoHandler = errors.New("no handler found")

	// ErrMissingLayoutLink is returned when a domain object carries no layout link.
	ErrMissingLayoutLink = errors.New("domain object has no layout link")

	// ErrMissingDescribedBy is returned when an object property carries no describedby link.
	ErrMissingDescribedBy = errors.New("property has no describedby link")

	// ErrDecode wraps malformed JSON or XML responses.
	ErrDecode = errors.New("failed to decode response")

	// ErrViewNotFound is returned when no open view has the given title.
	ErrViewNotFound = errors.New("view not found")

	// ErrNotLogged is returned by Load when the object was never fetched.
	ErrNotLogged = errors.New("object not found in log")
)

// NoHandlerError carries the concrete aggregator kind that received a
// payload it has no handler for.
type NoHandlerError struct {
	Kind string
	URL  string
	Err  error
}

func (e *NoHandlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] no handler found for %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("[%s] no handler found for %s", e.Kind, e.URL)
}

func (e *NoHandlerError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNoHandler, e.Err}
	}
	return []error{ErrNoHandler}
}
