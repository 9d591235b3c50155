package device

import (
	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/errors"
)

// Chooser asks the user to pick one of several devices. It's injected as a
// capability so that the selection logic never blocks on console I/O
// directly, and so tests can script a choice.
type Chooser interface {
	// Choose returns the index into `devices` of the chosen device, or
	// ok=false if the user cancelled.
	Choose(devices []Device) (index int, ok bool)
}

// ResolveTarget picks the device a sync run should push to. If exactly one
// Ready device is attached it's used without prompting. The returned device
// is enriched with its display metadata.
func ResolveTarget(runner bridge.Runner, chooser Chooser) (Device, error) {
	devices, err := List(runner)
	if err != nil {
		return Device{}, errors.WithContext(err, "list devices")
	}

	for _, d := range devices {
		if d.State != StateReady {
			log.WithFields(log.Fields{
				"device": d.ID,
				"state":  d.State,
			}).Warn("Ignoring device that isn't ready for syncing")
		}
	}

	ready := Ready(devices)
	if len(ready) == 0 {
		return Device{}, errors.NoDevicesFound{}
	}

	var target Device
	if len(ready) == 1 {
		target = ready[0]
	} else {
		// Enrich before prompting so that the user sees model names rather
		// than bare serial numbers.
		for i, d := range ready {
			ready[i] = Enrich(runner, d)
		}

		// An out-of-range index from a misbehaving Chooser is treated the
		// same as a cancelled prompt.
		index, ok := chooser.Choose(ready)
		if !ok || index < 0 || index >= len(ready) {
			return Device{}, errors.SelectionCancelled{}
		}
		target = ready[index]
	}

	if target.Model == "" {
		target = Enrich(runner, target)
	}

	log.WithFields(log.Fields{
		"device": target.ID,
		"model":  target.Model,
	}).Info("Selected device")
	return target, nil
}
