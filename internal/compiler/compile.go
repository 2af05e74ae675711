package compiler

import (
	"os"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// Compile compiles schema source text into an immutable schema.
// An empty (or all-whitespace) source is valid and yields an empty schema.
//
// The first diagnostic found is returned; all diagnostics are *diag.Error
// and session-fatal.
func Compile(src string) (*ir.Schema, error) {
	decls, err := parse(Lex(src))
	if err != nil {
		return nil, err
	}

	structs, functions, errs := validate(decls)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	if err := checkRecursion(structs); err != nil {
		return nil, err
	}

	return ir.NewSchema(structs, functions), nil
}

// CompileFile reads and compiles a schema file. A missing or unreadable
// file is an InvalidArguments diagnostic.
func CompileFile(path string) (*ir.Schema, error) {
	if path == "" {
		return nil, diag.New(diag.CodeInvalidArguments, "empty schema path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Wrap(diag.CodeInvalidArguments, err, "cannot read schema '%s': %v", path, err)
	}
	return Compile(string(data))
}
