package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any APIError carrying HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any APIError carrying HTTP 404.
	ErrNotFound = errors.New("not found")

	errMissingToken = errors.New("response carried no access token")
)

// TransportError is a call that could not complete: the backend was unreachable,
// the response could not be read, or the server answered with a 5xx status.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Detail     string
	Cause      error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%s: server error %d: %s", e.Op, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: server error %d", e.Op, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Cause)
	default:
		return fmt.Sprintf("%s: request to %s failed", e.Op, e.URL)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// APIError is a 4xx answer from the backend. Detail holds the server-supplied reason.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// PayloadError is a 2xx response whose body did not match the expected shape.
type PayloadError struct {
	Op    string
	Cause error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: unexpected response payload: %v", e.Op, e.Cause)
}

func (e *PayloadError) Unwrap() error {
	return e.Cause
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Message picks the human-readable text for err: the server-supplied detail,
// else the transport message, else fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var te *TransportError
	if errors.As(err, &te) {
		if te.Detail != "" {
			return te.Detail
		}
		if te.Cause != nil {
			return te.Cause.Error()
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
