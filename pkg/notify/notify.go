// Package notify tells the device's media index about freshly pushed files
// so they show up in the gallery without a rescan or reboot.
package notify

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/errors"
)

// scanAction is the broadcast that triggers a media index rescan for a file.
const scanAction = "android.intent.action.MEDIA_SCANNER_SCAN_FILE"

// DefaultBatchSize is how many paths are packed into one broadcast.
const DefaultBatchSize = 10

// Notifier sends media index broadcasts for pushed files.
type Notifier struct {
	runner    bridge.Runner
	batchSize int
}

// New creates a Notifier. A batchSize of 0 uses DefaultBatchSize.
func New(runner bridge.Runner, batchSize int) Notifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return Notifier{runner: runner, batchSize: batchSize}
}

// Notify broadcasts a rescan for every path in `remotePaths`, which must all
// have been successfully pushed already. Batches are independent -- a failed
// broadcast is collected and the remaining batches are still attempted, since
// the files themselves are safely on the device either way.
func (n Notifier) Notify(target device.Device, remotePaths []string) []error {
	var failures []error
	batchCount := 0
	for start := 0; start < len(remotePaths); start += n.batchSize {
		end := start + n.batchSize
		if end > len(remotePaths) {
			end = len(remotePaths)
		}
		batchCount++

		if err := n.notifyBatch(target, remotePaths[start:end]); err != nil {
			failures = append(failures,
				errors.NotificationFailed{Batch: batchCount, Err: err})
		}
	}

	log.WithFields(log.Fields{
		"files":   len(remotePaths),
		"batches": batchCount,
		"failed":  len(failures),
	}).Debug("Sent media index broadcasts")
	return failures
}

func (n Notifier) notifyBatch(target device.Device, remotePaths []string) error {
	// The paths are joined into a single argument of space-separated file
	// URIs. Paths containing spaces would break this joining, but it's kept
	// for compatibility with how the media scanner broadcast is consumed.
	uris := make([]string, len(remotePaths))
	for i, p := range remotePaths {
		uris[i] = "file://" + p
	}

	result, err := n.runner.Run("-s", target.ID, "shell", "am", "broadcast",
		"-a", scanAction, "-d", strings.Join(uris, " "))
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errors.New("broadcast failed: " + strings.TrimSpace(result.Stderr))
	}
	return nil
}
