package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/schemarepl/internal/format"
)

// Execute runs the root command with args and returns the process exit code.
// A failing command prints exactly one "Error: " line on stderr.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}

	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintln(stderr, format.Error(err))

	// Anything that is not an ExitError was raised by cobra while parsing
	// the command line.
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}
