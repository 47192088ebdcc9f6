// Package errors defines the error kinds returned by the go-dlock client.
// Callers match them with errors.Is; the concrete error always carries
// additional detail about what went wrong.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports a missing or invalid client configuration
	// value. It is only returned at construction time.
	ErrConfiguration = errors.New("dlock: bad configuration")
	// ErrValidation reports invalid call parameters. The request never
	// reaches the service.
	ErrValidation = errors.New("dlock: invalid parameters")
	// ErrAuthentication reports a rejected token or tenant id.
	ErrAuthentication = errors.New("dlock: authentication failed")
	// ErrUnavailable reports that the resource is currently locked by
	// someone else. It is the expected outcome of a conflict, not a bug.
	ErrUnavailable = errors.New("dlock: resource unavailable")
	// ErrNotFound reports a lock id the service does not know, typically
	// because the lock already expired or was released.
	ErrNotFound = errors.New("dlock: lock not found")
	// ErrTransport reports a network-level failure or an unreadable reply.
	ErrTransport = errors.New("dlock: transport failure")
	// ErrServer reports a service-side failure (5xx or rate limiting).
	ErrServer = errors.New("dlock: server error")
)

// StatusError is returned when the service answers with a status code that
// maps to one of the error kinds above. It unwraps to that kind so both
// errors.Is matching and HTTP-level inspection work.
type StatusError struct {
	Kind   error
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s %s -> %d body=%q", e.Kind, e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Kind }
