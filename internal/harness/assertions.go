package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/schemarepl/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Calls    []Call // Received calls for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Calls) > 0 {
		fmt.Fprintf(&buf, "\nCalls:\n")
		for i, c := range e.Calls {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", i+1, c.RequestID, c.Function, c.Args)
		}
	}

	return buf.String()
}

// assertCallContains checks that some call to the function carried args
// matching the assertion (subset match).
func assertCallContains(calls []Call, assertion Assertion) error {
	for _, c := range calls {
		if c.Function == assertion.Function && matchArgs(c.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertCallContains,
		Expected: fmt.Sprintf("call %s with args %v", assertion.Function, assertion.Args),
		Actual:   "no matching call received",
		Calls:    calls,
	}
}

// assertCallOrder checks that functions were first called in the given
// order. Calls don't need to be consecutive.
func assertCallOrder(calls []Call, assertion Assertion) error {
	positions := make(map[string]int)
	for i, c := range calls {
		if _, seen := positions[c.Function]; !seen {
			positions[c.Function] = i + 1 // 1-indexed for readability
		}
	}

	for _, fn := range assertion.Functions {
		if positions[fn] == 0 {
			return &AssertionError{
				Type:     AssertCallOrder,
				Expected: fmt.Sprintf("all functions called: %v", assertion.Functions),
				Actual:   fmt.Sprintf("missing call: %s", fn),
				Calls:    calls,
			}
		}
	}

	for i := 1; i < len(assertion.Functions); i++ {
		prev := assertion.Functions[i-1]
		curr := assertion.Functions[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertCallOrder,
				Expected: fmt.Sprintf("calls in order: %v", assertion.Functions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Calls: calls,
			}
		}
	}

	return nil
}

// assertCallCount checks that the function was called exactly Count times.
func assertCallCount(calls []Call, assertion Assertion) error {
	count := 0
	for _, c := range calls {
		if c.Function == assertion.Function {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d call(s) of %s", assertion.Count, assertion.Function),
			Actual:   fmt.Sprintf("%d call(s)", count),
			Calls:    calls,
		}
	}

	return nil
}

// assertJournalRow checks that exactly one row of a journal table matches
// Where and that it carries the Expect values.
//
// Table and column names are validated against a whitelist pattern; values
// are always bound as parameters.
func assertJournalRow(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertJournalRow,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertJournalRow,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertJournalRow,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := sortedKeys(assertion.Expect)
	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertJournalRow,
				Expected: fmt.Sprintf("column %q to exist", key),
				Actual:   fmt.Sprintf("column %q not present in result columns: %v", key, columns),
			}
		}

		if !columnValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertJournalRow,
				Expected: fmt.Sprintf("column %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("column %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are sorted
// for determinism.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML value to a SQL-compatible value.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// columnValuesEqual compares a YAML value with a value scanned from SQLite,
// which returns int64 for integers and may return []byte for text.
func columnValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		s, ok := actual.(string)
		return ok && exp == s
	case int:
		n, ok := actual.(int64)
		return ok && int64(exp) == n
	case int64:
		n, ok := actual.(int64)
		return ok && exp == n
	case bool:
		// SQLite stores booleans as integers
		n, ok := actual.(int64)
		return ok && exp == (n != 0)
	}

	return reflect.DeepEqual(expected, actual)
}

// matchArgs checks if actual args contain all expected args. Nested structs
// use the same subset semantics; extra keys in actual are ignored.
func matchArgs(actual map[string]any, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !argValuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// argValuesEqual compares a decoded wire value with a YAML value. Wire
// integers are json.Number; YAML integers are int or, past int64, *big.Int
// parsed from their string form.
func argValuesEqual(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		return ok && matchArgs(act, exp)
	case int, int64, uint64:
		num, ok := actual.(json.Number)
		return ok && num.String() == fmt.Sprint(exp)
	case string:
		if num, ok := actual.(json.Number); ok {
			// Large integers can only be written as strings in YAML.
			want, okWant := new(big.Int).SetString(exp, 10)
			got, okGot := new(big.Int).SetString(num.String(), 10)
			return okWant && okGot && want.Cmp(got) == 0
		}
		s, ok := actual.(string)
		return ok && s == exp
	}
	return reflect.DeepEqual(actual, expected)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCallContains, AssertCallOrder, AssertCallCount:
			if result.Calls == nil {
				err = fmt.Errorf("assertion[%d]: %s needs the bundled server", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertCallContains:
				err = assertCallContains(result.Calls, assertion)
			case AssertCallOrder:
				err = assertCallOrder(result.Calls, assertion)
			default:
				err = assertCallCount(result.Calls, assertion)
			}
		case AssertJournalRow:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal_row requires a journal", i)
			} else {
				err = assertJournalRow(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
