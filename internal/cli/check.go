package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/schemarepl/internal/compiler"
	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// CheckResult is the outcome of compiling a schema without starting a session.
type CheckResult struct {
	Schema    string   `json:"schema"`
	Hash      string   `json:"hash"`
	Structs   []string `json:"structs"`
	Functions []string `json:"functions"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <schema>",
		Short: "Compile a schema and print its declarations",
		Long: `Compile a schema source file without contacting any server.

Prints every struct and function in declaration order together with the
schema hash that is sent as X-Schema-Hash on every call. Exits 1 on the
first schema diagnostic.

Examples:
  schemarepl check person.schema
  schemarepl check person.schema --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return WrapExitError(ExitCommandError, "", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	schema, err := compiler.CompileFile(path)
	if err != nil {
		if formatter.Format == "json" {
			_ = formatter.Error(string(diag.CodeOf(err)), err.Error(), nil)
		}
		return fatal(err)
	}

	hash, err := ir.SchemaHash(schema)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot hash schema", err)
	}

	result := CheckResult{Schema: path, Hash: hash, Structs: []string{}, Functions: []string{}}
	for _, s := range schema.Structs() {
		result.Structs = append(result.Structs, describeStruct(s))
	}
	for _, fn := range schema.Functions() {
		result.Functions = append(result.Functions, describeFunction(fn))
	}
	formatter.VerboseLog("compiled %s: %d struct(s), %d function(s)", path, len(result.Structs), len(result.Functions))

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, line := range result.Structs {
		fmt.Fprintln(w, line)
	}
	for _, line := range result.Functions {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "hash %s\n", result.Hash)
	return nil
}

// describeStruct renders a struct on one line in schema syntax.
func describeStruct(s *ir.StructDecl) string {
	return fmt.Sprintf("struct %s {%s}", s.Name, describeFields(s.Fields))
}

// describeFunction renders a function on one line in schema syntax.
func describeFunction(fn *ir.FunctionDecl) string {
	return fmt.Sprintf("fn %s -> %s {%s}", fn.Name, fn.Return, describeFields(fn.Params))
}

func describeFields(fields []ir.FieldDecl) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s %s;", f.Type, f.Name)
	}
	return b.String()
}
