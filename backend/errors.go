package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error taxonomy shared by all backends.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTransport     = errors.New("transport error")
	ErrRemoteFailure = errors.New("remote failure")
	ErrPersistence   = errors.New("persistence failure")
)

// NotFoundError reports a task or category id that is not stored.
type NotFoundError struct {
	Kind string // "task" or "category"
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// Is lets errors.Is match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidInputError reports an unknown edit field or theme name.
type InvalidInputError struct {
	What  string
	Value string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.What, e.Value)
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// RemoteError reports an unexpected status code or a response body that
// cannot be decoded. Body holds the response body verbatim.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error // decode failure, nil for status mismatches
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: remote failure: status %d", e.Op, e.StatusCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrRemoteFailure.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteFailure
}

// PersistenceError reports a local document that cannot be read, parsed or
// written. It is never recovered.
type PersistenceError struct {
	Op   string // "read", "parse", "write"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsFatal reports whether err must abort the process.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPersistence)
}
