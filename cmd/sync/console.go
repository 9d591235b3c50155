package sync

import (
	"fmt"

	"github.com/buger/goterm"

	"github.com/droidsync/droidsync/cmd/util"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/transfer"
)

// consoleChooser prompts on the terminal when multiple devices are attached.
type consoleChooser struct{}

func (consoleChooser) Choose(devices []device.Device) (int, bool) {
	fmt.Println("Multiple devices detected. Please select one:")
	for i, d := range devices {
		fmt.Printf("%d. %s\n", i+1, d)
	}

	choice, ok := util.PromptIndex("Select device", len(devices))
	if !ok {
		return 0, false
	}
	return choice - 1, true
}

// consoleConfirmer shows the pre-transfer summary and asks for a go-ahead.
// When the transfer is confirmed, `onProceed` runs before the transfer starts
// so the caller can switch the terminal over to the progress display.
type consoleConfirmer struct {
	autoYes   bool
	onProceed func()
}

func (c consoleConfirmer) ConfirmTransfer(files int, totalBytes int64) (bool, error) {
	fmt.Printf("Files to transfer: %d (%s)\n", files, util.FormatBytes(totalBytes))

	proceed := true
	if !c.autoYes {
		var err error
		proceed, err = util.PromptYesOrNo("Start the transfer?", true)
		if err != nil {
			return false, err
		}
	}

	if proceed && c.onProceed != nil {
		c.onProceed()
	}
	return proceed, nil
}

// newConsoleReporter renders transfer progress as a single line that's
// rewritten in place.
func newConsoleReporter() transfer.Reporter {
	return transfer.NewCallbackReporter(func(update transfer.Update) {
		line := fmt.Sprintf("Transferring... %d/%d files (%s / %s)",
			update.FilesCompleted, update.FilesTotal,
			util.FormatBytes(update.BytesCompleted),
			util.FormatBytes(update.BytesTotal))
		if update.FilesFailed > 0 {
			line += goterm.Color(fmt.Sprintf(" %d failed", update.FilesFailed),
				goterm.RED)
		}

		// \r rewrites the line in place; the trailing spaces clear any
		// leftovers from a longer previous line.
		fmt.Printf("\r%s    ", line)
		if update.FilesCompleted+update.FilesFailed == update.FilesTotal {
			fmt.Println()
		}
	})
}
