package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for 401 responses.
var ErrUnauthorized = errors.New("unauthorized: sign in again")

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx response. Detail carries the backend's
// "detail" message when present.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Code)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	}
	return nil
}

// UnavailableError is a transport failure: connection refused, timeout,
// malformed response.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: service unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
