package reverb

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError wraps a network-level failure (timeout, connection reset).
// It is surfaced after the retry policy is exhausted, never thrown raw.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitedError reports an HTTP 429 that survived the retry budget.
type RateLimitedError struct {
	Op       string
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s after %d attempt(s)", e.Op, e.Attempts)
}

// APIError reports any non-2xx status other than 429. These are treated as
// logic errors, not transient conditions, and are never retried.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api returned %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsUnauthorized reports whether err is an authorization failure, meaning
// the session token is missing, expired or revoked.
func IsUnauthorized(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}
