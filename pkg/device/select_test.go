package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/bridge/mocks"
	"github.com/droidsync/droidsync/pkg/errors"
)

// scriptedChooser returns a fixed answer, and records whether it was asked.
type scriptedChooser struct {
	index  int
	ok     bool
	called bool
}

func (c *scriptedChooser) Choose(devices []Device) (int, bool) {
	c.called = true
	return c.index, c.ok
}

func mockDeviceList(runner *mocks.Runner, output string) {
	runner.On("Run", "devices", "-l").Return(bridge.Result{Stdout: output}, nil)
}

func mockGetProp(runner *mocks.Runner, id, model, manufacturer string) {
	runner.On("Run", "-s", id, "shell", "getprop", "ro.product.model").
		Return(bridge.Result{Stdout: model + "\n"}, nil)
	runner.On("Run", "-s", id, "shell", "getprop", "ro.product.manufacturer").
		Return(bridge.Result{Stdout: manufacturer + "\n"}, nil)
}

func TestResolveTargetSingleDevice(t *testing.T) {
	runner := &mocks.Runner{}
	mockDeviceList(runner, "List of devices attached\n"+
		"0a1b2c3d device\n"+
		"ffffffff unauthorized\n")
	mockGetProp(runner, "0a1b2c3d", "Pixel 4", "Google")

	chooser := &scriptedChooser{}
	target, err := ResolveTarget(runner, chooser)
	assert.NoError(t, err)
	assert.Equal(t, "0a1b2c3d", target.ID)
	assert.Equal(t, "Pixel 4", target.Model)

	// With a single ready device there's nothing to choose between.
	assert.False(t, chooser.called)
}

func TestResolveTargetMultipleDevices(t *testing.T) {
	runner := &mocks.Runner{}
	mockDeviceList(runner, "List of devices attached\n"+
		"first device\n"+
		"second device\n")
	mockGetProp(runner, "first", "Pixel 4", "Google")
	mockGetProp(runner, "second", "Galaxy S10", "Samsung")

	chooser := &scriptedChooser{index: 1, ok: true}
	target, err := ResolveTarget(runner, chooser)
	assert.NoError(t, err)
	assert.True(t, chooser.called)
	assert.Equal(t, "second", target.ID)
	assert.Equal(t, "Galaxy S10", target.Model)
	assert.Equal(t, "Samsung", target.Manufacturer)
}

func TestResolveTargetNoDevices(t *testing.T) {
	runner := &mocks.Runner{}
	mockDeviceList(runner, "List of devices attached\n"+
		"ffffffff unauthorized\n")

	_, err := ResolveTarget(runner, &scriptedChooser{})
	assert.Equal(t, errors.NoDevicesFound{}, err)
}

func TestResolveTargetChooserOutOfRange(t *testing.T) {
	runner := &mocks.Runner{}
	mockDeviceList(runner, "List of devices attached\n"+
		"first device\n"+
		"second device\n")
	mockGetProp(runner, "first", "Pixel 4", "Google")
	mockGetProp(runner, "second", "Galaxy S10", "Samsung")

	// A chooser that answers with an index outside the device list mustn't
	// crash the selection; it counts as a cancel.
	for _, index := range []int{-1, 2} {
		_, err := ResolveTarget(runner, &scriptedChooser{index: index, ok: true})
		assert.Equal(t, errors.SelectionCancelled{}, err)
	}
}

func TestResolveTargetCancelled(t *testing.T) {
	runner := &mocks.Runner{}
	mockDeviceList(runner, "List of devices attached\n"+
		"first device\n"+
		"second device\n")
	mockGetProp(runner, "first", "Pixel 4", "Google")
	mockGetProp(runner, "second", "Galaxy S10", "Samsung")

	_, err := ResolveTarget(runner, &scriptedChooser{ok: false})
	assert.Equal(t, errors.SelectionCancelled{}, err)
}
