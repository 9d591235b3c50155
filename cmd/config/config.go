package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droidsync/droidsync/cmd/util"
	"github.com/droidsync/droidsync/pkg/config"
	"github.com/droidsync/droidsync/pkg/errors"
)

// New creates a new `config` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create or update the droidsync user configuration",
		Long: "Interactively create the user configuration file at " +
			config.UserConfigPath + ".\n" +
			"Existing values are offered as defaults.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	// Start from the current config so that rerunning `droidsync config`
	// edits rather than resets.
	current, err := config.ParseUser()
	if err != nil {
		current = config.User{
			Target:  config.DefaultTargetDir,
			DataDir: config.DefaultDataDir,
		}
	}

	reader := bufio.NewReader(os.Stdin)

	source, err := promptString(reader, "Local directory to sync from", current.Source)
	if err != nil {
		return err
	}
	if source == "" {
		return errors.NewFriendlyError("A source directory is required.")
	}

	target, err := promptString(reader, "Directory on the device to sync into", current.Target)
	if err != nil {
		return err
	}

	convert, err := util.PromptYesOrNo("Convert HEIC images to JPEG before syncing?",
		current.ConvertFormats)
	if err != nil {
		return errors.WithContext(err, "get conversion preference")
	}

	cfg := config.User{
		Source:         source,
		Target:         target,
		DataDir:        current.DataDir,
		ConvertFormats: convert,
	}
	if err := config.WriteUser(cfg); err != nil {
		return errors.WithContext(err, "write user config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func promptString(reader *bufio.Reader, question, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	answer, err := reader.ReadString('\n')
	if err != nil {
		return "", errors.WithContext(err, "read answer")
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}
