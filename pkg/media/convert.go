package media

import (
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/droidsync/droidsync/pkg/errors"
)

// Converter normalizes a media file into a device-friendly format, returning
// the path of the converted file. The actual codec work (e.g. HEIC to JPEG)
// lives outside this tool; implementations typically shell out to an image
// library or external converter.
type Converter interface {
	// Convert transforms the file at `path` and returns the resulting path.
	// The original file is replaced by the converted one.
	Convert(path string) (string, error)
}

// convertibleFormats maps source extensions (lowercased) to the extension
// they're normalized to.
var convertibleFormats = map[string]string{
	".heic": ".jpg",
}

// NeedsConversion returns whether the file's format should be normalized
// before transfer.
func NeedsConversion(path string) bool {
	_, ok := convertibleFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DefaultConverterBinary is the external codec tool used when the caller
// doesn't supply one. It ships with libheif.
const DefaultConverterBinary = "heif-convert"

// CommandConverter converts files by shelling out to an external codec tool
// invoked as `<binary> <input> <output>`. The original file is removed after
// a successful conversion so only the normalized copy is synced.
type CommandConverter struct {
	Binary string
}

// Convert implements Converter.
func (c CommandConverter) Convert(path string) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = DefaultConverterBinary
	}

	converted := strings.TrimSuffix(path, filepath.Ext(path)) +
		convertibleFormats[strings.ToLower(filepath.Ext(path))]

	output, err := exec.Command(binary, path, converted).CombinedOutput()
	if err != nil {
		return "", errors.WithContext(err, "convert "+path+": "+strings.TrimSpace(string(output)))
	}

	if err := fs.Remove(path); err != nil {
		// The converted copy is still usable; the stale original just wastes
		// space until the user cleans it up.
		log.WithError(err).WithField("file", path).
			Warn("Failed to remove original after conversion")
	}
	return converted, nil
}
