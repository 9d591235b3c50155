package sync

import (
	"context"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/errors"
	"github.com/droidsync/droidsync/pkg/media"
	"github.com/droidsync/droidsync/pkg/notify"
	"github.com/droidsync/droidsync/pkg/syncstate"
	"github.com/droidsync/droidsync/pkg/transfer"
)

// Confirmer asks the user whether to go ahead with a transfer after showing
// them what it would do. A nil Confirmer in the Orchestrator means "always
// proceed".
type Confirmer interface {
	ConfirmTransfer(files int, totalBytes int64) (bool, error)
}

// Options are the per-run parameters.
type Options struct {
	// SourceRoot is the local directory tree to sync from.
	SourceRoot string

	// TargetRoot is the directory on the device to sync into.
	TargetRoot string

	// FullSync ignores the last-sync timestamp and considers every file.
	FullSync bool
}

// Summary is what a finished run reports. It's always produced, whether the
// run committed, partially failed, or turned out to be a no-op.
type Summary struct {
	Device    device.Device
	Attempted int
	Succeeded int
	Failed    int

	// Committed is whether the last-sync timestamp was advanced.
	Committed bool

	// Cancelled is whether the user declined the transfer confirmation.
	Cancelled bool
}

// Orchestrator wires the sync components into one run. All fields except
// Confirmer are required.
type Orchestrator struct {
	Runner    bridge.Runner
	Chooser   device.Chooser
	Scanner   media.Scanner
	Engine    transfer.Engine
	Notifier  notify.Notifier
	State     syncstate.Store
	Clock     clockwork.Clock
	Confirmer Confirmer
}

// Run executes one sync run against a freshly resolved device.
func (o Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	target, err := device.ResolveTarget(o.Runner, o.Chooser)
	if err != nil {
		return Summary{}, errors.WithContext(err, "resolve device")
	}
	return o.RunOnDevice(ctx, target, opts)
}

// RunOnDevice executes one sync run against an already selected device.
// Watch mode uses this to avoid re-prompting for a device on every change.
func (o Orchestrator) RunOnDevice(ctx context.Context, target device.Device,
	opts Options) (Summary, error) {

	summary := Summary{Device: target}

	since, err := o.sinceTimestamp(opts)
	if err != nil {
		return summary, err
	}

	meta, err := o.Scanner.Scan(opts.SourceRoot, since)
	if err != nil {
		return summary, errors.WithContext(err, "compute sync candidates")
	}

	if meta.Count == 0 {
		log.Info("No new files to sync")
		return summary, nil
	}

	if o.Confirmer != nil {
		proceed, err := o.Confirmer.ConfirmTransfer(meta.Count, meta.TotalBytes)
		if err != nil {
			return summary, errors.WithContext(err, "confirm transfer")
		}
		if !proceed {
			log.Info("Transfer cancelled")
			summary.Cancelled = true
			return summary, nil
		}
	}

	summary.Attempted = meta.Count
	result, err := o.Engine.PushAll(ctx, target,
		opts.SourceRoot, opts.TargetRoot, meta.Paths)
	summary.Succeeded = len(result.Succeeded)
	summary.Failed = result.Failed
	if err != nil {
		return summary, errors.WithContext(err, "transfer")
	}

	// The files are on the device whether or not the broadcasts land, so
	// notification failures only cost gallery visibility.
	for _, notifyErr := range o.Notifier.Notify(target, result.Succeeded) {
		log.WithError(notifyErr).Warn("Media index notification failed")
	}

	if result.Failed > 0 {
		// Don't advance the timestamp: the failed files stay eligible for
		// the next incremental run.
		log.WithField("failed", result.Failed).
			Warn("Some files failed to transfer; not updating sync state")
		return summary, nil
	}

	now := float64(o.Clock.Now().UnixNano()) / 1e9
	if err := o.State.Write(now); err != nil {
		return summary, errors.WithContext(err, "commit sync state")
	}
	summary.Committed = true

	log.WithFields(log.Fields{
		"files":  summary.Succeeded,
		"device": target.ID,
	}).Info("Sync complete")
	return summary, nil
}

func (o Orchestrator) sinceTimestamp(opts Options) (*float64, error) {
	if opts.FullSync {
		return nil, nil
	}

	timestamp, ok, err := o.State.Read()
	if err != nil {
		return nil, errors.WithContext(err, "read sync state")
	}
	if !ok {
		// No prior sync recorded: fall back to full-sync semantics.
		return nil, nil
	}
	return &timestamp, nil
}
