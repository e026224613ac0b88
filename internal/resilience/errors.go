// Package resilience provides the failure taxonomy and retry/circuit
// patterns for calls to the geocoding and weather upstreams.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ServiceUnavailableError is an upstream transport failure that carries a
// user-actionable message. Only Message is ever shown to users; Err keeps
// the raw cause for logs.
type ServiceUnavailableError struct {
	Service string // "nominatim" or "openweather"
	Message string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps a cause as a ServiceUnavailableError.
func Unavailable(service, message string, cause error) *ServiceUnavailableError {
	return &ServiceUnavailableError{Service: service, Message: message, Err: cause}
}

// AsServiceUnavailable extracts a ServiceUnavailableError from the chain.
func AsServiceUnavailable(err error) (*ServiceUnavailableError, bool) {
	var sue *ServiceUnavailableError
	if errors.As(err, &sue) {
		return sue, true
	}
	return nil, false
}

// TransientError marks an error as safe to retry (429, 5xx, network
// timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP
// status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether the error chain contains a TransientError or
// matches common transient network failure patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether the status code indicates a
// server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
