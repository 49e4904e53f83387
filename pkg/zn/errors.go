package zn

import (
	"errors"
	"fmt"
)

// Sentinel errors for the response classifier and resolver. Callers use
// errors.Is to branch on them; everything else in the taxonomy carries
// structured data and is matched with errors.As.
var (
	// ErrNotFound is returned when a name resolves to zero resources.
	ErrNotFound = errors.New("resource not found")
	// ErrEmptyResponse is returned when the API answers with an empty body.
	// The server has been observed to do this in place of a proper error
	// payload; callers treat it as fatal by default.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrMalformedResponse is returned when a response body is not valid JSON.
	ErrMalformedResponse = errors.New("malformed response from API")
	// ErrCreateFailed wraps the classifier error from a failed create call.
	ErrCreateFailed = errors.New("resource creation failed")
)

// TransportError reports a network-level failure (connection refused,
// timeout) as opposed to an application-level error response from the API.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is an application-level error embedded in a response body,
// signalled by a statusCode field greater than 299.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// AmbiguousNameError is returned when more than one resource matches a name
// case-insensitively and exactly. Silently picking one would be unsafe, so
// the resolver always fails instead.
type AmbiguousNameError struct {
	Kind string
	Name string
	IDs  []string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("name %q matches %d %s resources (%v); names must identify exactly one resource",
		e.Name, len(e.IDs), e.Kind, e.IDs)
}
