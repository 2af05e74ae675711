// Package diag defines the closed diagnostic taxonomy shared by the schema
// compiler, query compiler, binder and call channel.
//
// Every failure surfaced to the user is a *Error carrying one Code. The
// session driver decides severity: schema and configuration codes are
// session-fatal, everything raised while handling a query line is reported on
// that line only.
package diag

import (
	"errors"
	"fmt"
)

// Code categorizes a diagnostic.
type Code string

const (
	// Schema compiler.
	CodeInvalidKeyword       Code = "INVALID_KEYWORD"
	CodeMissingSchemaToken   Code = "MISSING_SCHEMA_TOKEN"
	CodeRecursiveStruct      Code = "RECURSIVE_STRUCT"
	CodeFunctionUsedAsType   Code = "FUNCTION_USED_AS_TYPE"
	CodeUnknownType          Code = "UNKNOWN_TYPE"
	CodeDuplicateDeclaration Code = "DUPLICATE_DECLARATION"

	// Query compiler.
	CodeEmptyFunctionName   Code = "EMPTY_FUNCTION_NAME"
	CodeInvalidFunctionName Code = "INVALID_FUNCTION_NAME"
	CodeMissingQueryToken   Code = "MISSING_QUERY_TOKEN"
	CodeUnquotedString      Code = "UNQUOTED_STRING"
	CodeNoArgName           Code = "NO_ARG_NAME"
	CodeUnexpectedToken     Code = "UNEXPECTED_TOKEN"
	CodeQueryTooLong        Code = "QUERY_TOO_LONG"

	// Binder.
	CodeInvalidArgName      Code = "INVALID_ARG_NAME"
	CodeNonExistingFunction Code = "NON_EXISTING_FUNCTION"
	CodeMissingArgument     Code = "MISSING_ARGUMENT"
	CodeDuplicateArgument   Code = "DUPLICATE_ARGUMENT"
	CodeTypeMismatch        Code = "TYPE_MISMATCH"
	CodeIntegerOverflow     Code = "INTEGER_OVERFLOW"
	CodeIntegerUnderflow    Code = "INTEGER_UNDERFLOW"

	// Call channel.
	CodeServerError     Code = "SERVER_ERROR"
	CodeConnectionError Code = "CONNECTION_ERROR"

	// Startup.
	CodeInvalidHost          Code = "INVALID_HOST"
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	CodeInvalidArguments     Code = "INVALID_ARGUMENTS"
)

// NoIndex marks a diagnostic that is not tied to a token position.
const NoIndex = -1

// Error is a single diagnostic.
type Error struct {
	// Code identifies the diagnostic category.
	Code Code

	// Message is the human-readable text printed after "Error: ".
	Message string

	// Index is the zero-based token index the diagnostic refers to, or NoIndex.
	Index int

	// Err is an optional underlying cause (transport errors, I/O).
	Err error
}

// Error implements the error interface. Only Message is rendered so the
// printed line stays a single value.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a diagnostic without a token position.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Index: NoIndex}
}

// At creates a diagnostic tied to a token index.
func At(code Code, index int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Index: index}
}

// Wrap creates a diagnostic carrying an underlying cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Index: NoIndex, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Is reports whether err carries the given code.
// Uses errors.As to handle wrapped errors.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsSessionFatal reports whether a diagnostic must terminate the session.
// Anything not raised by schema compilation or startup validation is scoped
// to a single query.
func IsSessionFatal(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidKeyword, CodeMissingSchemaToken, CodeRecursiveStruct,
		CodeFunctionUsedAsType, CodeUnknownType, CodeDuplicateDeclaration,
		CodeInvalidHost, CodeInvalidConfiguration, CodeInvalidArguments:
		return true
	default:
		return false
	}
}
