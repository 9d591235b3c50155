// Package media computes the candidate file set for a sync run: which local
// files exist, which changed since the last sync, and which need format
// normalization first.
package media

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/droidsync/droidsync/pkg/errors"
)

// maxFileSize is the largest file we'll attempt to push. Anything bigger is
// almost certainly not a photo or clip, and a single multi-gigabyte push ties
// up the bridge for too long.
const maxFileSize = 1 << 30 // 1 GiB

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Metadata summarizes the candidate set for a sync run.
type Metadata struct {
	Count      int
	TotalBytes int64
	Paths      []string
}

// Scanner walks a source tree and filters it down to the files a run should
// transfer.
type Scanner struct {
	// Converter normalizes convertible formats before they're considered for
	// transfer. Nil disables conversion.
	Converter Converter
}

// Scan returns the files under `sourceRoot` eligible for transfer. `since` is
// the last successful sync as a Unix epoch; files are included only if their
// modification time is strictly newer. A nil `since` means a full sync.
//
// Zero-byte files are never candidates. Files that fail conversion or exceed
// the size cap are skipped with a warning rather than failing the scan.
func (s Scanner) Scan(sourceRoot string, since *float64) (Metadata, error) {
	exists, err := afero.DirExists(fs, sourceRoot)
	if err != nil {
		return Metadata{}, errors.WithContext(err, "check source directory")
	}
	if !exists {
		return Metadata{}, errors.FileNotFound{Path: sourceRoot}
	}

	var meta Metadata
	walkErr := afero.Walk(fs, sourceRoot, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk")
		}
		if fi.IsDir() {
			return nil
		}

		path, fi, ok := s.maybeConvert(path, fi)
		if !ok {
			return nil
		}

		if !eligible(fi, since) {
			return nil
		}

		meta.Count++
		meta.TotalBytes += fi.Size()
		meta.Paths = append(meta.Paths, path)
		return nil
	})
	if walkErr != nil {
		return Metadata{}, errors.WithContext(walkErr, "scan source directory")
	}

	log.WithFields(log.Fields{
		"files": meta.Count,
		"bytes": meta.TotalBytes,
	}).Info("Computed sync candidates")
	return meta, nil
}

// maybeConvert runs the converter for convertible formats. The returned bool
// is false when the file should be skipped entirely.
func (s Scanner) maybeConvert(path string, fi os.FileInfo) (string, os.FileInfo, bool) {
	if s.Converter == nil || !NeedsConversion(path) {
		return path, fi, true
	}

	converted, err := s.Converter.Convert(path)
	if err != nil {
		log.WithError(err).WithField("file", path).
			Warn("Skipping file that failed conversion")
		return "", nil, false
	}

	convertedInfo, err := fs.Stat(converted)
	if err != nil {
		log.WithError(err).WithField("file", converted).
			Warn("Skipping converted file that can't be read")
		return "", nil, false
	}
	return converted, convertedInfo, true
}

func eligible(fi os.FileInfo, since *float64) bool {
	if fi.Size() == 0 {
		return false
	}
	if fi.Size() > maxFileSize {
		log.WithField("file", fi.Name()).Warn("Skipping file larger than 1 GiB")
		return false
	}
	if since == nil {
		return true
	}

	modTime := float64(fi.ModTime().UnixNano()) / 1e9
	return modTime > *since
}
