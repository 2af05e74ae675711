package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/schemarepl/internal/harness"
	"github.com/roach88/schemarepl/internal/rpc"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter      string // scenario filter (glob pattern)
	Host        string
	Port        int
	CallTimeout time.Duration
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-path>",
		Short: "Run scripted query scenarios",
		Long: `Run scenario files: scripted query sessions with the expected line for
each query and assertions on the calls and the journal.

By default every scenario runs against a bundled server. With --rpc-host
or --rpc-port the calls go to a live server instead; call assertions are
then reported as failures.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  schemarepl test ./scenarios
  schemarepl test ./scenarios --filter "person_*"
  schemarepl test ./scenarios/person_basic.yaml --rpc-host 10.0.0.7 --rpc-port 8080
  schemarepl test ./scenarios --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return WrapExitError(ExitCommandError, "", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Host, "rpc-host", rpc.DefaultHost, "live RPC server host")
	cmd.Flags().IntVar(&opts.Port, "rpc-port", rpc.DefaultPort, "live RPC server port")
	cmd.Flags().DurationVar(&opts.CallTimeout, "call-timeout", rpc.DefaultCallTimeout, "timeout for a whole call")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios path not found: %s", path))
	}

	files, err := harness.FindScenarioFiles(path, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	runOpts := []harness.Option{harness.WithCallTimeout(opts.CallTimeout)}
	if cmd.Flags().Changed("rpc-host") || cmd.Flags().Changed("rpc-port") {
		if err := rpc.ValidateHost(opts.Host); err != nil {
			return fatal(err)
		}
		endpoint := rpc.Endpoint{Host: opts.Host, Port: opts.Port}
		formatter.VerboseLog("running against %s", endpoint)
		runOpts = append(runOpts, harness.WithEndpoint(endpoint))
	}

	suite := harness.RunFiles(files, runOpts...)

	if formatter.Format == "json" {
		return outputTestJSON(formatter, suite)
	}
	return outputTestText(formatter, suite)
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(f *OutputFormatter, suite harness.SuiteResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   suite,
	}
	if suite.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", suite.Failed),
		}
	}

	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	return nil
}

// outputTestText outputs one mark per scenario and a summary.
func outputTestText(f *OutputFormatter, suite harness.SuiteResult) error {
	w := f.Writer

	if suite.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, s := range suite.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", suite.Passed, suite.Failed, suite.Total)

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
