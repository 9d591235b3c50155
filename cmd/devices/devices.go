package devices

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/droidsync/droidsync/cmd/util"
	"github.com/droidsync/droidsync/pkg/bridge"
	"github.com/droidsync/droidsync/pkg/device"
)

// New creates a new `devices` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the attached devices and their connection states",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	runner, err := bridge.New()
	if err != nil {
		return err
	}

	attached, err := device.List(runner)
	if err != nil {
		return err
	}

	if len(attached) == 0 {
		fmt.Println("No devices attached.")
		return nil
	}

	out := tabwriter.NewWriter(os.Stdout, 0, 10, 5, ' ', 0)
	defer out.Flush()

	fmt.Fprintln(out, "DEVICE\tSTATE\tMODEL")
	for _, d := range attached {
		if d.State == device.StateReady {
			d = device.Enrich(runner, d)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", d.ID, d.State, d.Model)
	}
	return nil
}
