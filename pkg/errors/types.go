package errors

import (
	"fmt"
	"strings"
	"time"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// BridgeUnavailable represents when the bridge binary couldn't be located or
// started at all. Nothing else can happen until the user fixes their
// installation, so this aborts the run.
type BridgeUnavailable struct {
	Binary string
	Err    error
}

func (err BridgeUnavailable) Error() string {
	return fmt.Sprintf("%q is not installed or not executable: %s", err.Binary, err.Err)
}

// BridgeTimeout represents a bridge command that didn't complete within its
// timeout. The subprocess has already been killed when this is returned.
type BridgeTimeout struct {
	Args    []string
	Timeout time.Duration
}

func (err BridgeTimeout) Error() string {
	return fmt.Sprintf("command %q timed out after %s",
		strings.Join(err.Args, " "), err.Timeout)
}

// NoDevicesFound represents when no device eligible for syncing is attached.
type NoDevicesFound struct{}

func (err NoDevicesFound) Error() string {
	return "no devices connected. Please connect a device and try again"
}

// SelectionCancelled represents when multiple devices were attached, and the
// user declined to pick one.
type SelectionCancelled struct{}

func (err SelectionCancelled) Error() string {
	return "device selection cancelled"
}

// NotificationFailed represents a media index broadcast that failed for one
// batch of files. The files are already on the device, so this only degrades
// their discoverability in the gallery.
type NotificationFailed struct {
	Batch int
	Err   error
}

func (err NotificationFailed) Error() string {
	return fmt.Sprintf("media index broadcast for batch %d failed: %s", err.Batch, err.Err)
}

// PersistStateFailed represents a failure to commit the last-sync timestamp.
// The previous state file is left untouched, so the next run just re-syncs
// more files than strictly necessary.
type PersistStateFailed struct {
	Path string
	Err  error
}

func (err PersistStateFailed) Error() string {
	return fmt.Sprintf("write sync state to %q: %s", err.Path, err.Err)
}
