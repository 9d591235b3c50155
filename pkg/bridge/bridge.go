// Package bridge wraps the adb command-line tool. Everything that talks to
// the device goes through the Runner interface so that tests can swap in a
// mock instead of a real subprocess.
package bridge

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/errors"
)

// DefaultTimeout bounds every bridge command. adb can hang indefinitely when
// a device drops off the USB bus mid-command, so no call is made without one.
const DefaultTimeout = 30 * time.Second

// minBridgeVersion is the oldest adb release we test against. Older releases
// print the push transfer summary in a format we don't parse.
const minBridgeVersion = "1.0.32"

// Result is the outcome of a single bridge command. A non-zero exit code is
// not an error at this layer -- retry and failure policy belongs to callers.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes bridge commands.
type Runner interface {
	// Run executes a bridge command with the default timeout.
	Run(args ...string) (Result, error)

	// RunWithTimeout executes a bridge command, killing it if it doesn't
	// complete within `timeout`.
	RunWithTimeout(timeout time.Duration, args ...string) (Result, error)
}

type cliRunner struct {
	binary string
}

// New returns a Runner backed by the adb binary on the user's PATH. It
// verifies that the binary exists and is recent enough to be usable.
func New() (Runner, error) {
	return NewWithBinary("adb")
}

// NewWithBinary is like New, but runs the given binary instead of `adb`.
func NewWithBinary(binary string) (Runner, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.BridgeUnavailable{Binary: binary, Err: err}
	}

	runner := cliRunner{binary: path}
	bridgeVersion, err := Version(runner)
	if err != nil {
		return nil, errors.WithContext(err, "get bridge version")
	}

	if err := checkVersion(bridgeVersion); err != nil {
		return nil, err
	}

	log.WithField("version", bridgeVersion).Debug("Resolved bridge binary")
	return runner, nil
}

func (runner cliRunner) Run(args ...string) (Result, error) {
	return runner.RunWithTimeout(DefaultTimeout, args...)
}

func (runner cliRunner) RunWithTimeout(timeout time.Duration, args ...string) (
	Result, error) {

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, runner.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, errors.BridgeTimeout{Args: args, Timeout: timeout}
	}

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// The process couldn't be started at all.
			return Result{}, errors.BridgeUnavailable{Binary: runner.binary, Err: err}
		}
		result.ExitCode = exitErr.ExitCode()
	}

	log.WithFields(log.Fields{
		"args": strings.Join(args, " "),
		"exit": result.ExitCode,
	}).Debug("Ran bridge command")
	return result, nil
}

// Version returns the version of the bridge binary, parsed from the first
// line of `adb version` (e.g. "Android Debug Bridge version 1.0.41").
func Version(runner Runner) (string, error) {
	result, err := runner.Run("version")
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", errors.New("bridge version command failed")
	}

	lines := strings.SplitN(result.Stdout, "\n", 2)
	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return "", errors.New("empty bridge version output")
	}
	return fields[len(fields)-1], nil
}

func checkVersion(actual string) error {
	parsed, err := version.NewVersion(actual)
	if err != nil {
		// Unparseable versions are logged rather than rejected so that
		// vendor-patched adb builds keep working.
		log.WithField("version", actual).Debug("Failed to parse bridge version")
		return nil
	}

	min := version.Must(version.NewVersion(minBridgeVersion))
	if parsed.LessThan(min) {
		return errors.NewFriendlyError("The installed adb version (%s) is too old. "+
			"Please upgrade to at least %s.", actual, minBridgeVersion)
	}
	return nil
}
