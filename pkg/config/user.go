package config

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/droidsync/droidsync/pkg/errors"
)

const (
	// UserConfigPath is the default path to the droidsync user config.
	UserConfigPath = "~/.droidsync.yaml"

	// DefaultTargetDir is where files land on the device when the user
	// config doesn't override it.
	DefaultTargetDir = "/storage/self/primary/Pictures/droidsync"

	// DefaultDataDir is where droidsync keeps its own state, such as the
	// last-sync timestamp.
	DefaultDataDir = "~/.droidsync"

	// InitialUserConfigVersion is the first version of the droidsync user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the droidsync
	// user config of the current droidsync binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the per-user sync configuration.
type User struct {
	Version string `json:"version,omitempty"`

	// Source is the local directory tree to sync from.
	Source string `json:"source"`

	// Target is the directory on the device to sync into.
	Target string `json:"target,omitempty"`

	// DataDir is where droidsync stores its sync state.
	DataDir string `json:"dataDir,omitempty"`

	// ConvertFormats controls whether convertible image formats (HEIC) are
	// normalized to JPEG before transfer.
	ConvertFormats bool `json:"convertFormats,omitempty"`

	// NotifyBatchSize overrides how many files are packed into one media
	// index broadcast.
	NotifyBatchSize int `json:"notifyBatchSize,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User config stored in the default path.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, errors.NewFriendlyError("The droidsync user config "+
				"file doesn't exist at %q. Please run `droidsync config` to "+
				"create it.", path)
		}
		return User{}, errors.WithContext(err, "parse")
	}

	config.Source, err = homedirExpand(config.Source)
	if err != nil {
		return User{}, errors.WithContext(err, "expand source path")
	}

	if config.Source == "" {
		return User{}, errors.NewFriendlyError("The source field is required "+
			"in %q. Run `droidsync config` to fix.", path)
	}

	// Evaluate relative paths relative to the config path.
	if !filepath.IsAbs(config.Source) {
		config.Source = filepath.Join(filepath.Dir(path), config.Source)
	}

	if config.Target == "" {
		config.Target = DefaultTargetDir
	}

	if config.DataDir == "" {
		config.DataDir = DefaultDataDir
	}
	config.DataDir, err = homedirExpand(config.DataDir)
	if err != nil {
		return User{}, errors.WithContext(err, "expand data dir")
	}

	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's global droidsync
// configuration. This path is expanded, so it can be directly passed to file
// operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
