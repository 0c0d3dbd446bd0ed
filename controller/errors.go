package controller

import (
	"errors"
)

// Code classifies operation failures
type Code string

// Error codes
const (
	CodeNotReady              Code = "not_ready"
	CodeInvalidDelta          Code = "invalid_delta"
	CodeAuthorizationDeclined Code = "authorization_declined"
	CodeMutationFailed        Code = "mutation_failed"
	CodeReadFailed            Code = "read_failed"
	CodeDecryptionFailed      Code = "decryption_failed"
)

// Error is an operation failure surfaced to callers and written to the
// snapshot message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is
var (
	ErrNotReady              = &Error{Code: CodeNotReady, Message: "not ready"}
	ErrInvalidDelta          = &Error{Code: CodeInvalidDelta, Message: "invalid delta"}
	ErrAuthorizationDeclined = &Error{Code: CodeAuthorizationDeclined, Message: "authorization declined"}
	ErrMutationFailed        = &Error{Code: CodeMutationFailed, Message: "mutation failed"}
	ErrReadFailed            = &Error{Code: CodeReadFailed, Message: "read failed"}
	ErrDecryptionFailed      = &Error{Code: CodeDecryptionFailed, Message: "decryption failed"}
)

// Configuration errors
var (
	ErrInvalidConfig = errors.New("invalid controller config")
	ErrNoGuard       = errors.New("no guard context configured")
)

// errStaleResult marks a result dropped because the network context changed.
// It never leaves the controller.
var errStaleResult = errors.New("stale result discarded")

// CodeOf returns the code of err, or "" if err is not an *Error
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
