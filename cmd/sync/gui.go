package sync

import (
	"fmt"
	"sync"
	"time"

	"github.com/buger/goterm"
	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/cmd/util"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/errors"
	"github.com/droidsync/droidsync/pkg/transfer"
)

const (
	deviceWidgetName   = "device"
	progressWidgetName = "progress"
	statusWidgetName   = "status"
)

// syncGUI abstracts the transfer-phase display so the command works the same
// with the full-screen UI, and with plain console output during watch mode
// and integration tests.
type syncGUI interface {
	// Run implements the main GUI loop. It blocks until Stop is called or
	// the user quits.
	Run() error

	// Stop shuts the GUI down and unblocks Run.
	Stop()

	// GetLogger returns a logrus Logger that can be used to display messages
	// on the user's screen.
	GetLogger() *logrus.Logger

	// Reporter returns the progress reporter that feeds the display.
	Reporter() transfer.Reporter
}

// chanWriter provides an io.Writer interface for writing to a channel.
type chanWriter chan []byte

func (w chanWriter) Write(p []byte) (int, error) {
	cpy := make([]byte, len(p))
	copy(cpy, p)
	w <- cpy
	return len(p), nil
}

// syncGUIImpl contains the GUI implementation for normal user usage. The
// terminal is only put into full-screen mode inside Run, so the device and
// confirmation prompts before the transfer stay on the plain console.
type syncGUIImpl struct {
	target    device.Device
	logger    *logrus.Logger
	loggerOut chanWriter
	progress  *progressWidget

	// gui is set once Run has taken over the terminal. stopped records a
	// Stop that arrived before then.
	lock    sync.Mutex
	gui     *gocui.Gui
	stopped bool
}

func newSyncGUI(target device.Device) *syncGUIImpl {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.Kitchen,
	})

	// Allow 256 `Write`s without a corresponding `Read`. We give a generous
	// buffer here because if the channel becomes full, calls to write log
	// messages will block until there's space in the channel (which means
	// that any work in the same thread can't proceed until the log message
	// is written to the UI).
	loggerOut := chanWriter(make(chan []byte, 256))
	logger.SetOutput(loggerOut)

	return &syncGUIImpl{
		target:    target,
		logger:    logger,
		loggerOut: loggerOut,
		progress:  &progressWidget{},
	}
}

func (gui *syncGUIImpl) GetLogger() *logrus.Logger {
	return gui.logger
}

func (gui *syncGUIImpl) Reporter() transfer.Reporter {
	return transfer.NewCallbackReporter(func(update transfer.Update) {
		gui.progress.setUpdate(update)

		gui.lock.Lock()
		g := gui.gui
		gui.lock.Unlock()
		if g != nil {
			g.Update(gui.progress.Layout)
		}
	})
}

func (gui *syncGUIImpl) Run() error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return errors.WithContext(err, "create GUI")
	}
	defer g.Close()

	gui.lock.Lock()
	if gui.stopped {
		gui.lock.Unlock()
		return nil
	}
	gui.gui = g
	gui.lock.Unlock()

	deviceView := &deviceWidget{gui.target}
	status := &statusWidget{height: 8}

	// Stream the logrus output to the status view.
	go func() {
		defer util.HandlePanic()
		copyToView(g, statusWidgetName, gui.loggerOut)
	}()

	g.SetManager(deviceView, gui.progress, status)
	ctrlCHandler := func(_ *gocui.Gui, _ *gocui.View) error {
		return gocui.ErrQuit
	}
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, ctrlCHandler); err != nil {
		return errors.WithContext(err, "bind GUI Ctrl-C")
	}

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (gui *syncGUIImpl) Stop() {
	gui.lock.Lock()
	gui.stopped = true
	g := gui.gui
	gui.lock.Unlock()
	if g == nil {
		return
	}

	g.Update(func(_ *gocui.Gui) error {
		return gocui.ErrQuit
	})
}

// deviceWidget displays the sync target at the top of the GUI.
type deviceWidget struct {
	target device.Device
}

func (w *deviceWidget) Layout(g *gocui.Gui) error {
	maxWidth, _ := g.Size()
	height := 1

	v, err := g.SetView(deviceWidgetName, 0, 0, maxWidth-1, height+1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = "Device"
	v.Wrap = true
	v.Clear()
	fmt.Fprintf(v, "%s\n", w.target)

	return nil
}

// progressWidget displays the transfer progress. It's placed under the
// device view.
type progressWidget struct {
	update transfer.Update
	lock   sync.Mutex
}

func (w *progressWidget) setUpdate(update transfer.Update) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.update = update
}

func (w *progressWidget) Layout(g *gocui.Gui) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	x1, y1, x2, y2, err := relativeTo(g, deviceWidgetName, 2)
	if err != nil {
		return err
	}

	v, err := g.SetView(progressWidgetName, x1, y1, x2, y2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Title = "Transfer"
	v.Wrap = true
	v.Clear()

	update := w.update
	fmt.Fprintf(v, "%d/%d files (%s / %s)\n",
		update.FilesCompleted, update.FilesTotal,
		util.FormatBytes(update.BytesCompleted),
		util.FormatBytes(update.BytesTotal))

	if update.FilesFailed > 0 {
		fmt.Fprintln(v, goterm.Color(
			fmt.Sprintf("%d files failed", update.FilesFailed), goterm.RED))
	} else if update.CurrentFile != "" {
		fmt.Fprintln(v, update.CurrentFile)
	}

	return nil
}

// statusWidget is an empty view that streams droidsync logs. It's placed
// under the progress view.
type statusWidget struct {
	height int
}

func (w *statusWidget) Layout(g *gocui.Gui) error {
	x1, y1, x2, y2, err := relativeTo(g, progressWidgetName, w.height)
	if err != nil {
		return err
	}

	v, err := g.SetView(statusWidgetName, x1, y1, x2, y2)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = "Status"
	v.Wrap = true
	v.Autoscroll = true

	return nil
}

func relativeTo(g *gocui.Gui, view string, height int) (int, int, int, int, error) {
	maxWidth, _ := g.Size()

	_, _, _, origin, err := g.ViewPosition(view)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	top := origin + 1
	return 0, top, maxWidth - 1, top + height + 1, nil
}

// copyToView writes the messages in `stream` into the desired `view` in `gui`.
// It guarantees writes occur in the order of messages in `stream`.
func copyToView(gui *gocui.Gui, view string, stream chanWriter) {
	for b := range stream {
		b := b
		done := make(chan struct{})
		gui.Update(func(gui *gocui.Gui) error {
			defer close(done)
			v, err := gui.View(view)
			if err != nil {
				return err
			}

			if _, err := v.Write(b); err != nil {
				return err
			}
			return nil
		})
		<-done
	}
}
