package sync

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droidsync/droidsync/cmd/util"
	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/config"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/errors"
	"github.com/droidsync/droidsync/pkg/fswatch"
	"github.com/droidsync/droidsync/pkg/media"
	"github.com/droidsync/droidsync/pkg/notify"
	syncer "github.com/droidsync/droidsync/pkg/sync"
	"github.com/droidsync/droidsync/pkg/syncstate"
	"github.com/droidsync/droidsync/pkg/transfer"
)

// watchPollInterval bounds how stale a watch-mode sync can get when the
// filesystem watcher misses an event (e.g. files moved in from another
// mount).
const watchPollInterval = 60 * time.Second

type syncCmd struct {
	fullSync    bool
	autoYes     bool
	disableGUI  bool
	watch       bool
	convertHeic bool
	source      string
	target      string
}

// New creates a new `sync` command.
func New() *cobra.Command {
	var cmd syncCmd
	cobraCmd := &cobra.Command{
		Use:   "sync",
		Short: "Transfer new media files to an attached device",
		Long: `Transfer the media files that changed since the last successful sync to an
attached device, and make them visible in the device's gallery.

The first sync of a source directory transfers everything.`,
		Run: func(_ *cobra.Command, _ []string) {
			if err := cmd.run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cobraCmd.Flags().BoolVar(&cmd.fullSync, "all", false,
		"Consider every file, not just those newer than the last sync.")
	cobraCmd.Flags().BoolVarP(&cmd.autoYes, "yes", "y", false,
		"Skip the transfer confirmation prompt.")
	cobraCmd.Flags().BoolVar(&cmd.disableGUI, "no-gui", false,
		"Print progress to the console instead of the full-screen UI.")
	cobraCmd.Flags().BoolVar(&cmd.watch, "watch", false,
		"Keep running, and sync again whenever the source directory changes.")
	cobraCmd.Flags().BoolVar(&cmd.convertHeic, "convert-heic", false,
		"Convert HEIC images to JPEG before syncing, even if the config doesn't.")
	cobraCmd.Flags().StringVar(&cmd.source, "source", "",
		"Sync from this directory instead of the one in the config.")
	cobraCmd.Flags().StringVar(&cmd.target, "target", "",
		"Sync into this device directory instead of the one in the config.")
	return cobraCmd
}

func (cmd *syncCmd) run() error {
	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	opts := syncer.Options{
		SourceRoot: userConfig.Source,
		TargetRoot: userConfig.Target,
		FullSync:   cmd.fullSync,
	}
	if cmd.source != "" {
		opts.SourceRoot = cmd.source
	}
	if cmd.target != "" {
		opts.TargetRoot = cmd.target
	}

	runner, err := bridge.New()
	if err != nil {
		return err
	}

	// Device selection and the transfer confirmation happen on the plain
	// terminal. The full-screen UI only takes over once the transfer starts.
	target, err := device.ResolveTarget(runner, consoleChooser{})
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.SelectionCancelled); ok {
			fmt.Println("Sync aborted.")
			return nil
		}
		return err
	}
	fmt.Printf("Target device: %s\n", target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C stops the transfer at the next file boundary rather than
	// killing the process with a push in flight.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	defer signal.Stop(signals)
	go func() {
		defer util.HandlePanic()
		<-signals
		log.Info("Interrupted. Finishing the current file")
		cancel()
	}()

	gui := cmd.newGUI(target)
	reporter := gui.Reporter()

	guiStarted := false
	guiStopped := make(chan struct{})
	guiDone := make(chan error, 1)
	startGUI := func() {
		guiStarted = true

		// The pkg packages log through the standard logger, so route it
		// onto the UI while the UI owns the terminal.
		log.SetOutput(gui.GetLogger().Out)

		go func() {
			defer util.HandlePanic()
			err := gui.Run()

			// The user quitting the UI also stops the transfer. When we
			// shut the UI down ourselves, the run is already over. If the
			// UI couldn't take over the terminal at all, the transfer
			// keeps going with plain console output.
			select {
			case <-guiStopped:
			default:
				if err == nil {
					cancel()
				} else {
					log.SetOutput(os.Stderr)
				}
			}
			guiDone <- err
		}()
	}

	var converter media.Converter
	if userConfig.ConvertFormats || cmd.convertHeic {
		converter = media.CommandConverter{Binary: media.DefaultConverterBinary}
	}

	orchestrator := syncer.Orchestrator{
		Runner:    runner,
		Chooser:   consoleChooser{},
		Scanner:   media.Scanner{Converter: converter},
		Engine:    transfer.New(runner, clockwork.NewRealClock(), reporter),
		Notifier:  notify.New(runner, userConfig.NotifyBatchSize),
		State:     syncstate.New(userConfig.DataDir),
		Clock:     clockwork.NewRealClock(),
		Confirmer: consoleConfirmer{autoYes: cmd.autoYes, onProceed: startGUI},
	}

	summary, runErr := orchestrator.RunOnDevice(ctx, target, opts)

	if guiStarted {
		// Restore the standard logger before stopping the UI: once the UI
		// quits, nothing drains its log channel anymore.
		log.SetOutput(os.Stderr)
		close(guiStopped)
		gui.Stop()
		if guiErr := <-guiDone; guiErr != nil {
			log.WithError(guiErr).Warn("The UI exited with an error")
		}
	}

	// The counts get reported even when the run errored: a commit failure
	// after a clean transfer still moved every file.
	printSummary(summary)
	if runErr != nil {
		return runErr
	}

	if cmd.watch && !summary.Cancelled {
		return cmd.watchLoop(ctx, orchestrator, target, opts)
	}

	if summary.Failed > 0 {
		return errors.NewFriendlyError("%d files failed to transfer. They'll "+
			"be retried on the next sync.", summary.Failed)
	}
	return nil
}

// watchLoop keeps syncing until interrupted. Filesystem events trigger a run
// right away, and the ticker catches anything the watcher missed.
func (cmd *syncCmd) watchLoop(ctx context.Context, orchestrator syncer.Orchestrator,
	target device.Device, opts syncer.Options) error {

	changes, err := fswatch.Watch(opts.SourceRoot)
	if err != nil {
		return errors.WithContext(err, "watch source directory")
	}

	// Confirmation and full syncs only make sense for the initial run.
	orchestrator.Confirmer = nil
	opts.FullSync = false

	log.Info("Watching for changes. Press Ctrl-C to stop")
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			// Let a burst of writes settle before scanning.
			time.Sleep(time.Second)
		case <-ticker.C:
		}

		summary, err := orchestrator.RunOnDevice(ctx, target, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Error("Sync failed")
			continue
		}
		if summary.Attempted > 0 {
			printSummary(summary)
		}
	}
}

func (cmd *syncCmd) newGUI(target device.Device) syncGUI {
	if cmd.disableGUI || cmd.watch {
		return newNoOutputGUI()
	}
	return newSyncGUI(target)
}

func printSummary(summary syncer.Summary) {
	switch {
	case summary.Cancelled:
	case summary.Attempted == 0:
		// Scan already logged that there was nothing to do.
	case summary.Failed == 0:
		fmt.Printf("Synced %d files to %s.\n", summary.Succeeded, summary.Device)
	default:
		fmt.Printf("Synced %d of %d files to %s.\n",
			summary.Succeeded, summary.Attempted, summary.Device)
	}
}
