package models

import (
	"errors"
	"fmt"
)

const (
	MsgInvalidLocation = "Please enter a valid location name."
	MsgLocationDenied  = "Location access denied. Please allow location access."
	MsgFetchFailed     = "Failed to fetch weather data"
)

// UserError is an error that knows the text shown to the user.
type UserError interface {
	error
	UserMessage() string
}

type ValidationError struct {
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid location %q", e.Input)
}

func (e *ValidationError) UserMessage() string { return MsgInvalidLocation }

type GeolocationError struct {
	Reason string
}

func (e *GeolocationError) Error() string {
	if e.Reason == "" {
		return "geolocation unavailable"
	}
	return "geolocation unavailable: " + e.Reason
}

func (e *GeolocationError) UserMessage() string { return MsgLocationDenied }

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

func (e *HTTPError) UserMessage() string { return MsgFetchFailed }

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "malformed weather payload: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) UserMessage() string { return MsgFetchFailed }

// TransportError carries a message that is safe to show: it never contains
// the request URL.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) UserMessage() string { return e.Message }

// UserMessage returns the user-facing text for err. Errors outside the
// taxonomy fall back to the generic fetch failure text.
func UserMessage(err error) string {
	var ue UserError
	if errors.As(err, &ue) {
		return ue.UserMessage()
	}
	return MsgFetchFailed
}
