// Package fswatch watches the source tree for changes so that watch-mode
// syncs are triggered promptly instead of waiting for the next poll.
package fswatch

import (
	"os"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/droidsync/droidsync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch watches for changes to files under `sourceRoot`. It sends an event on
// the returned channel whenever anything within the tree changes. Events are
// coalesced: a burst of filesystem activity produces at most one pending
// event.
func Watch(sourceRoot string) (chan struct{}, error) {
	pathsToWatch, err := getPathsToWatch(sourceRoot)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, "watch "+path)
		}
	}
	return combineUpdates(watcher.Events), nil
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// getPathsToWatch returns the source root and every directory beneath it.
// fsnotify doesn't watch directories recursively, so each subdirectory gets
// its own watch. File creations and writes trigger events on the containing
// directory's watch.
func getPathsToWatch(sourceRoot string) (paths []string, err error) {
	fi, err := fs.Stat(sourceRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: sourceRoot}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.Mode().IsDir() {
		return nil, errors.New("source root is not a directory: " + sourceRoot)
	}

	err = afero.Walk(fs, sourceRoot, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}
		if fi.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
