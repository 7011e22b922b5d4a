package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two non-HTTP failure classes.
var (
	// ErrUnreachable wraps transport-level failures: DNS, refused
	// connections, timeouts. The server never saw the request, or the
	// response never arrived.
	ErrUnreachable = errors.New("server unreachable")

	// ErrMalformed wraps responses that arrived but could not be decoded.
	ErrMalformed = errors.New("malformed server response")
)

// HTTPError is returned when the server responds with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
}

// IsAuth reports whether the error indicates an authentication failure.
func (e *HTTPError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// Class buckets client errors for the sync engine's retry policy.
type Class int

const (
	// ClassNone means no error.
	ClassNone Class = iota
	// ClassNetwork covers unreachable servers and timeouts.
	ClassNetwork
	// ClassAuth covers HTTP 401/403.
	ClassAuth
	// ClassHTTP covers all other non-2xx statuses.
	ClassHTTP
	// ClassMalformed covers undecodable responses.
	ClassMalformed
)

// String returns a log-friendly name for the class.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassNetwork:
		return "network"
	case ClassAuth:
		return "auth"
	case ClassHTTP:
		return "http"
	case ClassMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Classify buckets an error returned by any Client call.
//
// Everything except ClassNone is retryable from the engine's point of
// view; ClassAuth is distinguished so it can be logged separately and
// handled by the UI layer.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsAuth() {
			return ClassAuth
		}
		return ClassHTTP
	}

	if errors.Is(err, ErrMalformed) {
		return ClassMalformed
	}

	// Anything else is transport-level: unreachable, timeout, cancelled.
	return ClassNetwork
}
