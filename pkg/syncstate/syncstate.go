// Package syncstate persists the timestamp of the last fully successful sync.
// The orchestrator reads it to decide which files an incremental run should
// consider, and only writes it back when a run had zero failures.
//
// There is no locking. The tool assumes a single operator running a single
// sync at a time.
package syncstate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/droidsync/droidsync/pkg/errors"
)

// StateFileName is the name of the state file within the data directory.
const StateFileName = "last_sync_time.txt"

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Store reads and writes the last-sync timestamp.
type Store struct {
	path string
}

// New creates a Store rooted at `dataDir`.
func New(dataDir string) Store {
	return Store{path: filepath.Join(dataDir, StateFileName)}
}

// Path returns the location of the state file.
func (s Store) Path() string {
	return s.path
}

// Read returns the last-sync timestamp as a Unix epoch. ok is false when no
// prior sync has been recorded, which callers must treat as "sync everything".
func (s Store) Read() (timestamp float64, ok bool, err error) {
	contents, err := afero.ReadFile(fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, errors.WithContext(err, "read sync state")
	}

	timestamp, err = strconv.ParseFloat(strings.TrimSpace(string(contents)), 64)
	if err != nil {
		return 0, false, errors.WithContext(err, "parse sync state")
	}
	return timestamp, true, nil
}

// Write records `timestamp` as the last successful sync. A failed write
// leaves any previous state file untouched.
func (s Store) Write(timestamp float64) error {
	if err := fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.PersistStateFailed{Path: s.path, Err: err}
	}

	contents := strconv.FormatFloat(timestamp, 'f', -1, 64)
	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(fs, tmpPath, []byte(contents), 0644); err != nil {
		return errors.PersistStateFailed{Path: s.path, Err: err}
	}
	if err := fs.Rename(tmpPath, s.path); err != nil {
		// MemMapFs refuses to rename over an existing file, while the OS
		// filesystem replaces it atomically. Fall back to removing the old
		// file first.
		if removeErr := fs.Remove(s.path); removeErr != nil && !os.IsNotExist(removeErr) {
			return errors.PersistStateFailed{Path: s.path, Err: err}
		}
		if err := fs.Rename(tmpPath, s.path); err != nil {
			return errors.PersistStateFailed{Path: s.path, Err: err}
		}
	}
	return nil
}
