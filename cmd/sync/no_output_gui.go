package sync

import (
	"github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/transfer"
)

// noOutputGUI implements a headless display used with --no-gui and in watch
// mode. Logs go to the standard logger, and progress is drawn as a single
// rewritten console line.
type noOutputGUI struct {
	stop chan struct{}
}

func newNoOutputGUI() noOutputGUI {
	return noOutputGUI{stop: make(chan struct{})}
}

func (gui noOutputGUI) Run() error {
	// Nothing to draw. Just block until the transfer finishes.
	<-gui.stop
	return nil
}

func (gui noOutputGUI) Stop() {
	close(gui.stop)
}

func (gui noOutputGUI) GetLogger() *logrus.Logger {
	return logrus.StandardLogger()
}

func (gui noOutputGUI) Reporter() transfer.Reporter {
	return newConsoleReporter()
}
