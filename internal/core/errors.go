package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthFailure is returned when no usable token could be obtained or the remote rejected it
	ErrAuthFailure = errors.New("authentication failed")
	// ErrNotFound is returned when a remote object does not exist
	ErrNotFound = errors.New("remote object not found")
	// ErrParse is returned when an archive cannot be opened
	ErrParse = errors.New("failed to parse archive")
	// ErrUnsupportedFormat is returned when no parser handles a file name
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrAlreadyProcessed is returned when an email is already tracked
	ErrAlreadyProcessed = errors.New("email already processed")
	// ErrNoContent is returned when an email body is empty after cleaning
	ErrNoContent = errors.New("email body is empty")
	// ErrExtractionFailed is returned when every field completion failed
	ErrExtractionFailed = errors.New("no field could be extracted")
)

// TransportError is a failed call to a remote store
type TransportError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Code != 0 && e.Err != nil:
		return fmt.Sprintf("%s: HTTP %d: %s: %v", e.Op, e.Code, e.Message, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is maps status codes onto the sentinel errors
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrAuthFailure:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}
