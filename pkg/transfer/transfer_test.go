package transfer

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/bridge/mocks"
	"github.com/droidsync/droidsync/pkg/device"
	"github.com/droidsync/droidsync/pkg/errors"
)

var (
	pushFailed = bridge.Result{ExitCode: 1, Stderr: "error: device offline"}
	pushOK     = bridge.Result{Stderr: "510 KB/s (4 bytes in 0.001s)"}
	mkdirOK    = bridge.Result{}
)

// recordingReporter captures progress callbacks for assertions.
type recordingReporter struct {
	totalFiles int
	totalBytes int64
	completed  []string
	failed     []string
}

func (r *recordingReporter) SetTotal(files int, bytes int64) {
	r.totalFiles = files
	r.totalBytes = bytes
}

func (r *recordingReporter) Completed(path string, bytes int64) {
	r.completed = append(r.completed, path)
}

func (r *recordingReporter) Failed(path string, err error) {
	r.failed = append(r.failed, path)
}

func TestNewItem(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/photos/sub/a.jpg", []byte("abcd"), 0644))

	tests := []struct {
		name     string
		path     string
		expItem  Item
		expError bool
	}{
		{
			name: "Nested file",
			path: "/photos/sub/a.jpg",
			expItem: Item{
				LocalPath:    "/photos/sub/a.jpg",
				RelativePath: "sub/a.jpg",
				RemotePath:   "/target/sub/a.jpg",
				SizeBytes:    4,
			},
		},
		{
			name:     "Path escapes source root",
			path:     "/photos/../etc/passwd",
			expError: true,
		},
		{
			name:     "Missing file",
			path:     "/photos/missing.jpg",
			expError: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			item, err := NewItem("/photos", "/target", test.path)
			if test.expError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expItem, item)
		})
	}
}

func TestConfirmedPush(t *testing.T) {
	tests := []struct {
		name   string
		result bridge.Result
		exp    bool
	}{
		{
			name:   "Summary on stderr",
			result: bridge.Result{Stderr: "510 KB/s (5120000 bytes in 9.802s)"},
			exp:    true,
		},
		{
			name:   "Summary on stdout",
			result: bridge.Result{Stdout: "/photos/a.jpg: 1 file pushed. 5.2 MB/s (4096 bytes in 0.001s)"},
			exp:    true,
		},
		{
			name:   "Clean exit without summary",
			result: bridge.Result{ExitCode: 0},
			exp:    false,
		},
		{
			name:   "Error output",
			result: bridge.Result{ExitCode: 1, Stderr: "error: device offline"},
			exp:    false,
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, confirmedPush(test.result), test.name)
	}
}

func TestPushAllSuccess(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("abcd"), 0644))
	assert.NoError(t, afero.WriteFile(fs, "/photos/sub/b.jpg", []byte("efgh"), 0644))

	runner := &mocks.Runner{}
	runner.On("Run", "-s", "dev", "shell", "mkdir", "-p", "/target").
		Return(mkdirOK, nil)
	runner.On("Run", "-s", "dev", "shell", "mkdir", "-p", "/target/sub").
		Return(mkdirOK, nil)
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/a.jpg", "/target/a.jpg").
		Return(pushOK, nil)
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/sub/b.jpg", "/target/sub/b.jpg").
		Return(pushOK, nil)

	reporter := &recordingReporter{}
	engine := New(runner, clockwork.NewFakeClock(), reporter)

	result, err := engine.PushAll(context.Background(), device.Device{ID: "dev"},
		"/photos", "/target", []string{"/photos/a.jpg", "/photos/sub/b.jpg"})
	assert.NoError(t, err)
	assert.Equal(t, BatchResult{
		Succeeded: []string{"/target/a.jpg", "/target/sub/b.jpg"},
	}, result)

	assert.Equal(t, 2, reporter.totalFiles)
	assert.Equal(t, int64(8), reporter.totalBytes)
	assert.Equal(t, []string{"/photos/a.jpg", "/photos/sub/b.jpg"}, reporter.completed)
	assert.Empty(t, reporter.failed)
	runner.AssertExpectations(t)
}

func TestPushAllRerunIsIdempotent(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("abcd"), 0644))
	assert.NoError(t, afero.WriteFile(fs, "/photos/sub/b.jpg", []byte("efgh"), 0644))

	// Rerunning the same batch issues the same mkdir and push commands, so
	// the remote ends up with the same file set: mkdir -p tolerates the
	// existing directories and push overwrites the earlier copies.
	runner := &mocks.Runner{}
	runner.On("Run", "-s", "dev", "shell", "mkdir", "-p", "/target").
		Return(mkdirOK, nil).Twice()
	runner.On("Run", "-s", "dev", "shell", "mkdir", "-p", "/target/sub").
		Return(mkdirOK, nil).Twice()
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/a.jpg", "/target/a.jpg").
		Return(pushOK, nil).Twice()
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/sub/b.jpg", "/target/sub/b.jpg").
		Return(pushOK, nil).Twice()

	engine := New(runner, clockwork.NewFakeClock(), nil)
	files := []string{"/photos/a.jpg", "/photos/sub/b.jpg"}

	first, err := engine.PushAll(context.Background(), device.Device{ID: "dev"},
		"/photos", "/target", files)
	assert.NoError(t, err)

	second, err := engine.PushAll(context.Background(), device.Device{ID: "dev"},
		"/photos", "/target", files)
	assert.NoError(t, err)

	assert.Equal(t, BatchResult{
		Succeeded: []string{"/target/a.jpg", "/target/sub/b.jpg"},
	}, first)
	assert.Equal(t, first, second)
	runner.AssertExpectations(t)
}

func TestPushAllRetriesThenSucceeds(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("abcd"), 0644))

	runner := &mocks.Runner{}
	runner.On("Run", "-s", "dev", "shell", "mkdir", "-p", "/target").
		Return(mkdirOK, nil)
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/a.jpg", "/target/a.jpg").
		Return(pushFailed, nil).Twice()
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/a.jpg", "/target/a.jpg").
		Return(pushOK, nil).Once()

	clock := clockwork.NewFakeClock()
	engine := New(runner, clock, nil)

	type outcome struct {
		result BatchResult
		err    error
	}
	done := make(chan outcome)
	go func() {
		result, err := engine.PushAll(context.Background(), device.Device{ID: "dev"},
			"/photos", "/target", []string{"/photos/a.jpg"})
		done <- outcome{result, err}
	}()

	// The engine backs off between the three attempts, so unblock it twice.
	for i := 0; i < maxAttempts-1; i++ {
		clock.BlockUntil(1)
		clock.Advance(retryBackoff)
	}

	res := <-done
	assert.NoError(t, res.err)
	assert.Equal(t, BatchResult{Succeeded: []string{"/target/a.jpg"}}, res.result)
	runner.AssertExpectations(t)
}

func TestPushAllGivesUpAfterRetries(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("abcd"), 0644))
	assert.NoError(t, afero.WriteFile(fs, "/photos/b.jpg", []byte("efgh"), 0644))

	runner := &mocks.Runner{}
	runner.On("Run", "-s", "dev", "shell", "mkdir", "-p", "/target").
		Return(mkdirOK, nil)

	// a.jpg never transfers. b.jpg still gets its turn afterwards.
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/a.jpg", "/target/a.jpg").
		Return(pushFailed, nil).Times(maxAttempts)
	runner.On("RunWithTimeout", pushTimeout,
		"-s", "dev", "push", "/photos/b.jpg", "/target/b.jpg").
		Return(pushOK, nil).Once()

	clock := clockwork.NewFakeClock()
	reporter := &recordingReporter{}
	engine := New(runner, clock, reporter)

	type outcome struct {
		result BatchResult
		err    error
	}
	done := make(chan outcome)
	go func() {
		result, err := engine.PushAll(context.Background(), device.Device{ID: "dev"},
			"/photos", "/target", []string{"/photos/a.jpg", "/photos/b.jpg"})
		done <- outcome{result, err}
	}()

	for i := 0; i < maxAttempts-1; i++ {
		clock.BlockUntil(1)
		clock.Advance(retryBackoff)
	}

	res := <-done
	assert.NoError(t, res.err)
	assert.Equal(t, BatchResult{
		Succeeded: []string{"/target/b.jpg"},
		Failed:    1,
	}, res.result)
	assert.Equal(t, []string{"/photos/a.jpg"}, reporter.failed)
	assert.Equal(t, []string{"/photos/b.jpg"}, reporter.completed)
	runner.AssertExpectations(t)
}

func TestPushAllStopsWhenCancelled(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("abcd"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &mocks.Runner{}
	engine := New(runner, clockwork.NewFakeClock(), nil)

	_, err := engine.PushAll(ctx, device.Device{ID: "dev"},
		"/photos", "/target", []string{"/photos/a.jpg"})
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, errors.RootCause(err))
	assert.Empty(t, runner.Calls)
}
