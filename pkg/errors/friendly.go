package errors

import (
	"fmt"
)

// FriendlyError is an error whose message is meant to be shown directly to
// the user, without any wrapping contexts.
type FriendlyError interface {
	FriendlyMessage() string
}

type friendlyError struct {
	message string
}

func (err friendlyError) Error() string {
	return err.message
}

func (err friendlyError) FriendlyMessage() string {
	return err.message
}

// NewFriendlyError creates a new error that will be printed to the user
// verbatim.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(format, args...)}
}
