// Package device discovers attached devices and resolves which one a sync
// run should target.
package device

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/errors"
)

// State is the connection state reported by the bridge for a device.
type State string

const (
	// StateReady means the device is connected and authorized for commands.
	StateReady State = "device"

	// StateUnauthorized means the device is connected, but the user hasn't
	// accepted the debugging prompt on the device yet.
	StateUnauthorized State = "unauthorized"

	// StateOffline means the bridge knows about the device but can't reach it.
	StateOffline State = "offline"

	// StateUnknown covers any state we don't recognize.
	StateUnknown State = "unknown"
)

// Device identifies an attached device. The ID is stable for the lifetime of
// a run. Model and Manufacturer are display-only and may be empty if
// enrichment failed.
type Device struct {
	ID           string
	State        State
	Model        string
	Manufacturer string
}

// String returns a human-readable identifier for the device.
func (d Device) String() string {
	manufacturer := d.Manufacturer
	if manufacturer == "" {
		manufacturer = "Unknown"
	}
	model := d.Model
	if model == "" {
		model = "Unknown"
	}
	return manufacturer + " " + model + " (" + d.ID + ")"
}

// List returns every device the bridge reports, in the order reported.
// Devices in states other than Ready are included so that callers can show
// them to the user, but only Ready devices can be selected for syncing.
func List(runner bridge.Runner) ([]Device, error) {
	result, err := runner.Run("devices", "-l")
	if err != nil {
		return nil, errors.WithContext(err, "list devices")
	}
	if result.ExitCode != 0 {
		return nil, errors.New("device listing failed: " + strings.TrimSpace(result.Stderr))
	}

	return parseDeviceList(result.Stdout), nil
}

// parseDeviceList parses the output of `adb devices -l`. The first line is a
// header, and each following non-empty line is `<id> <state> [key:value ...]`.
func parseDeviceList(output string) []Device {
	var devices []Device

	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		devices = append(devices, Device{
			ID:    fields[0],
			State: parseState(fields[1]),
		})
	}
	return devices
}

func parseState(raw string) State {
	switch State(strings.ToLower(raw)) {
	case StateReady, StateUnauthorized, StateOffline:
		return State(strings.ToLower(raw))
	default:
		return StateUnknown
	}
}

// Ready filters `devices` down to the ones eligible for syncing.
func Ready(devices []Device) (ready []Device) {
	for _, d := range devices {
		if d.State == StateReady {
			ready = append(ready, d)
		}
	}
	return ready
}

// Enrich fetches the device's model and manufacturer for nicer display.
// Failures here are logged and ignored -- the device is still perfectly
// usable with the display fields missing.
func Enrich(runner bridge.Runner, d Device) Device {
	if model, err := getProp(runner, d.ID, "ro.product.model"); err == nil {
		d.Model = model
	} else {
		log.WithError(err).WithField("device", d.ID).
			Warn("Failed to fetch device model")
	}

	if manufacturer, err := getProp(runner, d.ID, "ro.product.manufacturer"); err == nil {
		d.Manufacturer = manufacturer
	} else {
		log.WithError(err).WithField("device", d.ID).
			Warn("Failed to fetch device manufacturer")
	}
	return d
}

func getProp(runner bridge.Runner, id, key string) (string, error) {
	result, err := runner.Run("-s", id, "shell", "getprop", key)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", errors.New("getprop " + key + " failed")
	}
	return strings.TrimSpace(result.Stdout), nil
}
