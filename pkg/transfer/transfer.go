// Package transfer pushes batches of local files onto a device through the
// bridge, with per-file retries and progress accounting.
package transfer

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/errors"
)

const (
	// maxAttempts is the total number of tries for each file, including the
	// first one.
	maxAttempts = 3

	// retryBackoff is how long we sleep between attempts for the same file.
	retryBackoff = 1 * time.Second

	// pushTimeout bounds a single push. It's much larger than the default
	// bridge timeout since a push moves real data.
	pushTimeout = 10 * time.Minute

	// successMarker is the transfer summary adb prints on success (e.g.
	// "510 KB/s (5120000 bytes in 9.802s)"). Exit codes are unreliable
	// across adb builds, so the marker is the real success signal. Depending
	// on the build it lands on stderr or stdout.
	successMarker = "bytes in"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Item describes one file to push. RemotePath mirrors the file's position
// relative to the source root.
type Item struct {
	LocalPath    string
	RelativePath string
	RemotePath   string
	SizeBytes    int64
}

// NewItem derives the transfer item for `localPath`. It fails if the path
// lies outside `sourceRoot` so a crafted file list can't escape the target
// directory on the device.
func NewItem(sourceRoot, targetRoot, localPath string) (Item, error) {
	relative, err := filepath.Rel(sourceRoot, localPath)
	if err != nil {
		return Item{}, errors.WithContext(err, "relativize path")
	}
	if relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return Item{}, errors.New("path escapes source root: " + localPath)
	}

	fi, err := fs.Stat(localPath)
	if err != nil {
		return Item{}, errors.FileNotFound{Path: localPath}
	}

	// Device paths always use forward slashes, regardless of the local OS.
	relative = filepath.ToSlash(relative)
	return Item{
		LocalPath:    localPath,
		RelativePath: relative,
		RemotePath:   path.Join(targetRoot, relative),
		SizeBytes:    fi.Size(),
	}, nil
}

// BatchResult summarizes a PushAll run.
type BatchResult struct {
	// Succeeded holds the device paths of files that were confirmed pushed,
	// in the order they completed.
	Succeeded []string

	// Failed counts files that exhausted their retries.
	Failed int
}

// Engine pushes files to a device. The zero value isn't usable; create one
// with New.
type Engine struct {
	runner   bridge.Runner
	clock    clockwork.Clock
	reporter Reporter
}

// New creates a transfer engine.
func New(runner bridge.Runner, clock clockwork.Clock, reporter Reporter) Engine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return Engine{runner: runner, clock: clock, reporter: reporter}
}

// PushAll pushes `localFiles` to `target`, preserving their directory
// structure relative to `sourceRoot` under `targetRoot` on the device.
// Individual failures never abort the batch -- they're retried, then counted.
// The context is checked between files; an in-flight push runs to completion
// or its own timeout.
func (e Engine) PushAll(ctx context.Context, target device.Device,
	sourceRoot, targetRoot string, localFiles []string) (BatchResult, error) {

	items := make([]Item, 0, len(localFiles))
	var totalBytes int64
	for _, localFile := range localFiles {
		item, err := NewItem(sourceRoot, targetRoot, localFile)
		if err != nil {
			return BatchResult{}, errors.WithContext(err, "compute transfer item")
		}
		items = append(items, item)
		totalBytes += item.SizeBytes
	}
	e.reporter.SetTotal(len(items), totalBytes)

	var result BatchResult
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, errors.WithContext(err, "transfer aborted")
		}

		if err := e.pushWithRetry(target, item); err != nil {
			log.WithError(err).WithField("file", item.LocalPath).
				Error("Failed to transfer file")
			e.reporter.Failed(item.LocalPath, err)
			result.Failed++
			continue
		}

		e.reporter.Completed(item.LocalPath, item.SizeBytes)
		result.Succeeded = append(result.Succeeded, item.RemotePath)
	}
	return result, nil
}

// pushWithRetry attempts a single file up to maxAttempts times, waiting
// retryBackoff between attempts. Nothing is held locked while sleeping.
func (e Engine) pushWithRetry(target device.Device, item Item) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			e.clock.Sleep(retryBackoff)
		}

		lastErr = e.pushOnce(target, item)
		if lastErr == nil {
			return nil
		}

		log.WithError(lastErr).WithFields(log.Fields{
			"file":    item.LocalPath,
			"attempt": attempt,
		}).Warn("Transfer attempt failed")
	}
	return errors.WithContext(lastErr, "exhausted retries")
}

// pushOnce creates the remote parent directory and pushes the file. Both
// steps are idempotent: mkdir -p tolerates existing directories, and push
// overwrites any previous copy of the file.
func (e Engine) pushOnce(target device.Device, item Item) error {
	remoteDir := path.Dir(item.RemotePath)
	mkdir, err := e.runner.Run("-s", target.ID, "shell", "mkdir", "-p", remoteDir)
	if err != nil {
		return errors.WithContext(err, "create remote directory")
	}
	if mkdir.ExitCode != 0 {
		return errors.New("mkdir failed: " + strings.TrimSpace(mkdir.Stderr))
	}

	push, err := e.runner.RunWithTimeout(pushTimeout,
		"-s", target.ID, "push", item.LocalPath, item.RemotePath)
	if err != nil {
		return errors.WithContext(err, "push")
	}

	if !confirmedPush(push) {
		return errors.New("no transfer summary in push output: " +
			strings.TrimSpace(push.Stderr))
	}
	return nil
}

// confirmedPush decides whether a push actually landed. The transfer summary
// marker is required; the exit code alone isn't trusted because some adb
// builds exit zero after a partial transfer, and others print the summary on
// stdout instead of stderr.
func confirmedPush(result bridge.Result) bool {
	return strings.Contains(result.Stderr, successMarker) ||
		strings.Contains(result.Stdout, successMarker)
}
