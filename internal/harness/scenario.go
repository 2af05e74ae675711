package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/testutil"
)

// Scenario defines a scripted query session.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the journal
	// session id and the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema names a bundled fixture schema (see testutil.Schemas).
	Schema string `yaml:"schema,omitempty"`

	// SchemaFile is a schema source path, relative to the scenario file.
	SchemaFile string `yaml:"schema_file,omitempty"`

	// SchemaSource is inline schema source.
	SchemaSource string `yaml:"schema_source,omitempty"`

	// RPCPath is the endpoint path the calls are posted to.
	RPCPath string `yaml:"rpc_path,omitempty"`

	// Steps are the query lines, fed to the session in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the received calls and the journal.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query line.
type Step struct {
	// Query is the line exactly as typed. It may be empty.
	Query string `yaml:"query"`

	// Expect specifies the printed line. If nil, any line is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Output is the exact printed line.
	Output string `yaml:"output,omitempty"`

	// Error is a substring of the printed diagnostic. Implies failure.
	Error string `yaml:"error,omitempty"`

	// Code is the expected diag code. Implies failure.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates received calls or journal rows.
type Assertion struct {
	// Type specifies the assertion type:
	// - "call_contains": function was called with args (subset match)
	// - "call_order": functions were first called in order
	// - "call_count": function was called exactly Count times
	// - "journal_row": one row of Table matches Where and carries Expect
	Type string `yaml:"type"`

	// Function is the function name (call_contains, call_count).
	Function string `yaml:"function,omitempty"`

	// Args are the expected call arguments (call_contains).
	// Subset match: only specified fields are validated, at every depth.
	Args map[string]any `yaml:"args,omitempty"`

	// Functions is the expected call order (call_order).
	Functions []string `yaml:"functions,omitempty"`

	// Count is the expected number of calls (call_count).
	Count int `yaml:"count,omitempty"`

	// Table is the journal table (journal_row).
	Table string `yaml:"table,omitempty"`

	// Where specifies row filters (journal_row).
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (journal_row).
	// Subset match: only specified columns are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertCallContains = "call_contains"
	AssertCallOrder    = "call_order"
	AssertCallCount    = "call_count"
	AssertJournalRow   = "journal_row"
)

// LoadScenario reads and parses a scenario YAML file. A relative
// schema_file is resolved against the scenario's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.SchemaFile != "" && !filepath.IsAbs(scenario.SchemaFile) {
		scenario.SchemaFile = filepath.Join(filepath.Dir(path), scenario.SchemaFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// source returns the schema source text and a label for the journal.
func (s *Scenario) source() (string, string, error) {
	switch {
	case s.Schema != "":
		src, ok := testutil.Schemas[s.Schema]
		if !ok {
			return "", "", fmt.Errorf("unknown fixture schema %q", s.Schema)
		}
		return src, "fixture:" + s.Schema, nil
	case s.SchemaFile != "":
		data, err := os.ReadFile(s.SchemaFile)
		if err != nil {
			return "", "", fmt.Errorf("read schema: %w", err)
		}
		return string(data), s.SchemaFile, nil
	default:
		return s.SchemaSource, "inline:" + s.Name, nil
	}
}

// input returns the steps joined as stdin content.
func (s *Scenario) input() string {
	var b strings.Builder
	for _, step := range s.Steps {
		b.WriteString(step.Query)
		b.WriteByte('\n')
	}
	return b.String()
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	sources := 0
	for _, set := range []bool{s.Schema != "", s.SchemaFile != "", s.SchemaSource != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of schema, schema_file or schema_source is required")
	}
	if s.Schema != "" {
		if _, ok := testutil.Schemas[s.Schema]; !ok {
			return fmt.Errorf("unknown fixture schema %q", s.Schema)
		}
	}
	if s.SchemaFile != "" {
		if _, err := os.Stat(s.SchemaFile); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", s.SchemaFile)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if strings.ContainsAny(step.Query, "\r\n") {
			return fmt.Errorf("steps[%d]: query must be a single line", i)
		}
		if step.Expect == nil {
			continue
		}
		e := step.Expect
		if e.Output == "" && e.Error == "" && e.Code == "" {
			return fmt.Errorf("steps[%d].expect: one of output, error or code is required", i)
		}
		if e.Output != "" && (e.Error != "" || e.Code != "") {
			return fmt.Errorf("steps[%d].expect: output cannot be combined with error or code", i)
		}
		if e.Code != "" && !knownCode(e.Code) {
			return fmt.Errorf("steps[%d].expect: unknown code %q", i, e.Code)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCallContains:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for call_contains", index)
		}
	case AssertCallOrder:
		if len(a.Functions) == 0 {
			return fmt.Errorf("assertions[%d]: functions list is required for call_order", index)
		}
	case AssertCallCount:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertJournalRow:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for journal_row", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for journal_row", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func knownCode(code string) bool {
	switch diag.Code(code) {
	case diag.CodeInvalidKeyword, diag.CodeMissingSchemaToken, diag.CodeRecursiveStruct,
		diag.CodeFunctionUsedAsType, diag.CodeUnknownType, diag.CodeDuplicateDeclaration,
		diag.CodeEmptyFunctionName, diag.CodeInvalidFunctionName, diag.CodeMissingQueryToken,
		diag.CodeUnquotedString, diag.CodeNoArgName, diag.CodeUnexpectedToken, diag.CodeQueryTooLong,
		diag.CodeInvalidArgName, diag.CodeNonExistingFunction, diag.CodeMissingArgument,
		diag.CodeDuplicateArgument, diag.CodeTypeMismatch, diag.CodeIntegerOverflow,
		diag.CodeIntegerUnderflow, diag.CodeServerError, diag.CodeConnectionError,
		diag.CodeInvalidHost, diag.CodeInvalidConfiguration, diag.CodeInvalidArguments:
		return true
	}
	return false
}
