package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droidsync/droidsync/cmd/util"
	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/errors"
	"github.com/droidsync/droidsync/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the versions of droidsync and the device bridge",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	fmt.Printf("droidsync version: %s\n", version.Version)

	runner, err := bridge.New()
	if err != nil {
		return err
	}

	bridgeVersion, err := bridge.Version(runner)
	if err != nil {
		return errors.WithContext(err, "get bridge version")
	}

	fmt.Printf("bridge version:    %s\n", bridgeVersion)
	return nil
}
