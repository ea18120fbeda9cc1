package core

import "github.com/pkg/errors"

// FieldError attaches a message to a single input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports rejected input. Fields carries per-field messages;
// when empty, Err alone describes the problem.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdownError marks broken program integrity, e.g. a context value a
// middleware must have set is missing. The HTTP layer responds 500 and
// triggers a graceful shutdown when it catches one.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (s shutdownError) Error() string {
	return s.message
}

// IsShutdown checks whether err, at its cause, requires a shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
