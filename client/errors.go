package client

import "fmt"

// AuthError indicates no usable token was available for an authenticated
// action. It is raised locally, before any network attempt.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// TransportError indicates the request never produced an interpretable
// service response: a connection failure, a timeout, or a non-200 status
// whose body could not be decoded as the NIOS4 envelope. Body carries the
// raw response text when one was received.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport failure: %v", e.Err)
	}
	return fmt.Sprintf("transport failure: status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a business-level failure reported by the service through the
// response envelope. Code and Message are opaque strings defined by the
// service and passed through unchanged.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nios4 error %s: %s", e.Code, e.Message)
}

// ValidationError indicates a local precondition failed before any network
// call was made, such as a record submitted without a gguid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
