package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a caller of the sync core can observe.
type ErrorKind string

const (
	ErrorKindNotFound     ErrorKind = "not_found"
	ErrorKindUnauthorized ErrorKind = "unauthorized"
	ErrorKindUpstream     ErrorKind = "upstream"
	ErrorKindIntegrity    ErrorKind = "integrity"
	ErrorKindTransport    ErrorKind = "transport"
)

// Error is a classified failure. Message is safe to show to callers; Err is
// the internal cause and is only ever logged.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Kind sentinels for use with errors.Is.
var (
	ErrNotFound     = &Error{Kind: ErrorKindNotFound}
	ErrUnauthorized = &Error{Kind: ErrorKindUnauthorized}
	ErrUpstream     = &Error{Kind: ErrorKindUpstream}
	ErrIntegrity    = &Error{Kind: ErrorKindIntegrity}
	ErrTransport    = &Error{Kind: ErrorKindTransport}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// PublicMessage returns the caller-facing message without the wrapped cause.
func (e *Error) PublicMessage() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func NewNotFoundError(msg string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: msg}
}

func NewUnauthorizedError(msg string, err error) *Error {
	return &Error{Kind: ErrorKindUnauthorized, Message: msg, Err: err}
}

func NewUpstreamError(msg string, err error) *Error {
	return &Error{Kind: ErrorKindUpstream, Message: msg, Err: err}
}

func NewIntegrityError(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindIntegrity, Message: fmt.Sprintf(format, args...)}
}

func NewTransportError(msg string, err error) *Error {
	return &Error{Kind: ErrorKindTransport, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// carry no classification are reported as upstream failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindUpstream
}
