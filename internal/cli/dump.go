package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
}

// DumpData is the JSON payload of the dump command.
type DumpData struct {
	Scenario string `json:"scenario"`
	Listing  string `json:"listing"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <scenario-file>",
		Short: "Run a scenario and print the device listing",
		Long: `Execute a scenario file, then print the diagnostic listing of every
device: geometry, logical size and per-node slot allocation.

Examples:
  memdev dump ./scenarios/holes.yaml
  memdev dump ./scenarios/holes.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	return cmd
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	result, err := runScenarioFile(opts.RootOptions, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: out, Verbose: opts.Verbose}
		return formatter.Success(DumpData{
			Scenario: result.Trace.Scenario,
			Listing:  result.FinalListing,
		})
	}

	fmt.Fprint(out, result.FinalListing)
	return nil
}
