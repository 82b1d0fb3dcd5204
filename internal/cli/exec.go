package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/memdev/internal/harness"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <scenario-file>",
		Short: "Run one scenario and print its trace",
		Long: `Execute a scenario file against a fresh device set and print the
resulting trace.

Exit codes:
  0 - Scenario ran and every expectation held
  1 - One or more expectations failed
  2 - Command error (missing file, malformed scenario, etc.)

Examples:
  memdev exec ./scenarios/quantum-boundaries.yaml
  memdev exec ./scenarios/holes.yaml --config devices.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	result, err := runScenarioFile(opts.RootOptions, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: out, Verbose: opts.Verbose}
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, result.Trace.Text())
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "FAIL: %s\n", failure)
		}
	}

	if !result.Passed() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(result.Failures)))
	}
	return nil
}

// runScenarioFile loads and runs one scenario with the resolved base
// device configuration. Shared by exec and dump.
func runScenarioFile(opts *RootOptions, path string) (*harness.Result, error) {
	cfg, err := baseConfig(opts)
	if err != nil {
		return nil, err
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result, err := harness.RunWith(scenario, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to run scenario", err)
	}
	return result, nil
}
