package errors

import (
	goErrors "errors"
)

// New returns a generic error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError annotates an error with the higher-level action that caused it.
// The chain of contexts reads like a stack trace of what the CLI was doing
// when the root cause occurred.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return err.Context + ": " + err.Err.Error()
}

// WithContext wraps `err` with a description of the action that failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause unwraps the error until it finds the innermost error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error. Friendly errors are shown without the wrapping
// contexts since the contexts are only meaningful to developers.
func GetPrintableMessage(err error) string {
	if friendly, ok := RootCause(err).(FriendlyError); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
