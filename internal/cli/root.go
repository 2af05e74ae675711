package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/schemarepl/internal/config"
	"github.com/roach88/schemarepl/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Prompt is written before each line when stdin is a terminal.
const Prompt = "> "

// ReplOptions holds the flags of the query session.
type ReplOptions struct {
	*RootOptions
	ConfigPath     string
	SchemaPath     string
	Host           string
	Port           int
	Path           string
	NoTTY          bool
	JournalPath    string
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
}

// NewRootCommand creates the schemarepl command. Without a subcommand it
// runs a query session: one query per stdin line, one result per stdout line.
func NewRootCommand() *cobra.Command {
	opts := &ReplOptions{RootOptions: &RootOptions{}}

	cmd := &cobra.Command{
		Use:   "schemarepl --schema <path> [flags]",
		Short: "Query a remote service through a compiled schema",
		Long: `schemarepl compiles a schema of structs and functions, then reads one
query per line from stdin, checks it against the schema, calls the remote
function over JSON-over-HTTP and prints one result line per query.

Examples:
  schemarepl --schema person.schema < queries.txt
  schemarepl --schema person.schema --rpc-host 10.0.0.7 --rpc-port 8080 --rpc-path person
  schemarepl --config schemarepl.yaml --journal ./queries.db`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return WrapExitError(ExitCommandError, "", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format for subcommands (json|text)")

	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "config file (.yaml, .yml or .cue)")
	f.StringVar(&opts.SchemaPath, "schema", "", "path to the schema source file")
	f.StringVar(&opts.Host, "rpc-host", "localhost", "RPC server host name or IP address")
	f.IntVar(&opts.Port, "rpc-port", 5050, "RPC server port")
	f.StringVar(&opts.Path, "rpc-path", "", "RPC server path (usually the schema name)")
	f.BoolVar(&opts.NoTTY, "no-tty", false, "never print a prompt, even on a terminal")
	f.StringVar(&opts.JournalPath, "journal", "", "append every query to this SQLite journal")
	f.DurationVar(&opts.ConnectTimeout, "connect-timeout", time.Second, "timeout for establishing the connection")
	f.DurationVar(&opts.CallTimeout, "call-timeout", 30*time.Second, "timeout for a whole call")

	cmd.AddCommand(NewCheckCommand(opts.RootOptions))
	cmd.AddCommand(NewJournalCommand(opts.RootOptions))
	cmd.AddCommand(NewTestCommand(opts.RootOptions))

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	var file *config.File
	if opts.ConfigPath != "" {
		f, err := config.LoadFile(opts.ConfigPath)
		if err != nil {
			return fatal(err)
		}
		file = f
	}

	cfg, err := config.Resolve(file, opts.overrides(cmd.Flags()))
	if err != nil {
		return fatal(err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	var sessionOpts []session.Option
	if !cfg.NoTTY && isTerminal(cmd.InOrStdin()) {
		sessionOpts = append(sessionOpts, session.WithPrompt(Prompt))
	}

	s, err := session.Start(cfg, logger, nil, sessionOpts...)
	if err != nil {
		return fatal(err)
	}

	err = s.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		logger.Debug("session interrupted", "session", s.ID())
		return nil
	}
	if err != nil {
		return WrapExitError(ExitFailure, "session failed", err)
	}
	return nil
}

// overrides returns the flags that were set on the command line.
func (o *ReplOptions) overrides(flags *pflag.FlagSet) config.Overrides {
	var ov config.Overrides
	if flags.Changed("schema") {
		ov.SchemaPath = &o.SchemaPath
	}
	if flags.Changed("rpc-host") {
		ov.Host = &o.Host
	}
	if flags.Changed("rpc-port") {
		ov.Port = &o.Port
	}
	if flags.Changed("rpc-path") {
		ov.Path = &o.Path
	}
	if flags.Changed("connect-timeout") {
		ov.ConnectTimeout = &o.ConnectTimeout
	}
	if flags.Changed("call-timeout") {
		ov.CallTimeout = &o.CallTimeout
	}
	if flags.Changed("journal") {
		ov.JournalPath = &o.JournalPath
	}
	if flags.Changed("no-tty") {
		ov.NoTTY = &o.NoTTY
	}
	if flags.Changed("verbose") {
		ov.Verbose = &o.Verbose
	}
	return ov
}

// newLogger builds the stderr logger. Nothing is logged at Info on a
// successful run; --verbose adds per-query Debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
