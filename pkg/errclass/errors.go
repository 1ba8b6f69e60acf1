// Package errclass defines the stable, machine-readable error classes of agentmon.
package errclass

import "fmt"

// Error is a stable, machine-readable error class with an optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Cause: e.Cause}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...), Cause: e.Cause}
}

// WithCause returns a new Error with the same Code and Message wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Cause: err}
}

// Error classes surfaced by the engine and its collaborators.
var (
	// ErrDecode marks a batch whose payload is not base64, not gzip or not JSON.
	ErrDecode = &Error{Code: "E_DECODE"}
	// ErrConfigurationUnavailable marks a failed watched-path configuration refresh.
	ErrConfigurationUnavailable = &Error{Code: "E_CONFIGURATION_UNAVAILABLE"}
	// ErrLineParse marks a single log line that could not be classified.
	ErrLineParse = &Error{Code: "E_LINE_PARSE"}
	ErrAuth      = &Error{Code: "E_AUTH"}
	ErrNotFound  = &Error{Code: "E_NOT_FOUND"}
	// ErrPublishFailed marks a sink call that did not succeed.
	ErrPublishFailed = &Error{Code: "E_PUBLISH_FAILED"}
	ErrConfigInvalid = &Error{Code: "E_CONFIG_INVALID"}
)
