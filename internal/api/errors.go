package api

import (
	"errors"
	"fmt"
)

// Class buckets a failure by origin for display purposes.
type Class string

const (
	// ClassCredential is an authentication/authorization rejection from the
	// backend. The adapter clears the local token before surfacing it; it is
	// never retried automatically.
	ClassCredential Class = "credential"
	// ClassValidation is a malformed or incomplete request, detected either
	// client-side before dispatch or by the backend.
	ClassValidation Class = "validation"
	// ClassTransport is a pure transport failure: no response, timeout,
	// network unreachable. Retryable, but retrying is the caller's business.
	ClassTransport Class = "transport"
	// ClassServer is a 5xx failure.
	ClassServer Class = "server"
	// ClassGeneric covers everything else.
	ClassGeneric Class = "generic"
)

// Error is the uniform failure shape returned by every adapter call.
// StatusCode is zero for transport failures and client-side validation.
type Error struct {
	StatusCode int
	Message    string
	Class      Class
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// ClassOf extracts the failure class, defaulting to generic for foreign errors.
func ClassOf(err error) Class {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ClassGeneric
}

func validationError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Class: ClassValidation}
}

func transportError(err error) *Error {
	return &Error{
		Message: "network error, please check your connection and try again",
		Class:   ClassTransport,
		Err:     err,
	}
}

func classify(status int) Class {
	switch {
	case status == 400:
		return ClassValidation
	case status == 401 || status == 403:
		return ClassCredential
	case status >= 500:
		return ClassServer
	default:
		return ClassGeneric
	}
}

// statusMessage maps an HTTP status to the user-facing message, preferring the
// backend-supplied message where one is conventionally shown.
func statusMessage(status int, bodyMessage string) string {
	switch status {
	case 400:
		if bodyMessage != "" {
			return bodyMessage
		}
		return "bad request"
	case 401:
		return "unauthorized, please log in again"
	case 403:
		return "permission denied"
	case 404:
		return "resource not found"
	case 409:
		return "conflict, resource already exists"
	case 429:
		return "too many requests, please try again later"
	}
	if status >= 500 {
		return "server error, please try again later"
	}
	if bodyMessage != "" {
		return bodyMessage
	}
	return "an error occurred"
}
