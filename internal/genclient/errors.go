package genclient

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// retryableStatuses are the HTTP statuses treated as transient.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// APIError is a non-200 response from the service.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is a recognized transient failure.
func (e *APIError) Retryable() bool {
	return retryableStatuses[e.StatusCode]
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the underlying network error is a recognized
// transient condition: timeouts, resets, refused or unreachable hosts, and
// temporary DNS failures.
func (e *TransportError) Retryable() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(e.Err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.IsTimeout
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.ETIMEDOUT,
		syscall.EPIPE,
	} {
		if errors.Is(e.Err, errno) {
			return true
		}
	}
	return false
}

// asRetryable classifies an error from send. It returns the APIError when
// there is one (for its retry hint) and whether the failure is transient.
func asRetryable(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, apiErr.Retryable()
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return nil, transportErr.Retryable()
	}

	return nil, false
}
