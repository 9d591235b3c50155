package transfer

import (
	"sync"
)

// Reporter receives progress updates during a transfer batch. Implementations
// must be safe for concurrent use.
type Reporter interface {
	// SetTotal announces the number of files and bytes in the batch before
	// any transfers start.
	SetTotal(files int, bytes int64)

	// Completed reports that a file finished transferring. Only completed
	// files count towards progress, so the reported byte total never exceeds
	// the sum of the sizes of files that actually landed on the device.
	Completed(path string, bytes int64)

	// Failed reports that a file was given up on after retries.
	Failed(path string, err error)
}

// NopReporter discards all progress updates.
type NopReporter struct{}

func (NopReporter) SetTotal(int, int64)     {}
func (NopReporter) Completed(string, int64) {}
func (NopReporter) Failed(string, error)    {}

// Callback is invoked by a CallbackReporter with a snapshot of the overall
// batch progress.
type Callback func(update Update)

// Update is a snapshot of overall batch progress.
type Update struct {
	FilesTotal     int
	BytesTotal     int64
	FilesCompleted int
	BytesCompleted int64
	FilesFailed    int
	CurrentFile    string
	Err            error
}

// CallbackReporter accumulates progress and forwards monotonic snapshots to
// a callback. It's the bridge between the transfer engine and the UI.
type CallbackReporter struct {
	callback Callback

	mu             sync.Mutex
	filesTotal     int
	bytesTotal     int64
	filesCompleted int
	bytesCompleted int64
	filesFailed    int
}

// NewCallbackReporter creates a CallbackReporter that forwards updates to
// `callback`.
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{callback: callback}
}

func (r *CallbackReporter) SetTotal(files int, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesTotal = files
	r.bytesTotal = bytes
	r.callback(r.snapshot("", nil))
}

func (r *CallbackReporter) Completed(path string, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesCompleted++
	r.bytesCompleted += bytes
	r.callback(r.snapshot(path, nil))
}

func (r *CallbackReporter) Failed(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesFailed++
	r.callback(r.snapshot(path, err))
}

// snapshot must be called with the lock held.
func (r *CallbackReporter) snapshot(current string, err error) Update {
	return Update{
		FilesTotal:     r.filesTotal,
		BytesTotal:     r.bytesTotal,
		FilesCompleted: r.filesCompleted,
		BytesCompleted: r.bytesCompleted,
		FilesFailed:    r.filesFailed,
		CurrentFile:    current,
		Err:            err,
	}
}
