package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemarepl/internal/rpc"
	"github.com/roach88/schemarepl/internal/rpc/rpctest"
	"github.com/roach88/schemarepl/internal/store"
	"github.com/roach88/schemarepl/internal/testutil"
)

func TestRun_Passing(t *testing.T) {
	scenario := &Scenario{
		Name:        "numbers_inline",
		Description: "inline",
		Schema:      "numbers",
		RPCPath:     "numbers",
		Steps: []Step{
			{Query: "square(a=3)", Expect: &ExpectClause{Output: "9"}},
			{Query: "square(a=100000)", Expect: &ExpectClause{Code: "SERVER_ERROR", Error: "square overflow"}},
			{Query: "getSomeNumber()"},
		},
		Assertions: []Assertion{
			{Type: AssertCallCount, Function: "square", Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Transcript, 3)
	assert.Equal(t, Line{Seq: 1, Query: "square(a=3)", Output: "9", Status: store.StatusOK, RequestID: "req-0001"}, result.Transcript[0])
	assert.Equal(t, "SERVER_ERROR", result.Transcript[1].ErrorCode)
	assert.Equal(t, "42", result.Transcript[2].Output)

	require.Len(t, result.Calls, 3)
	assert.Equal(t, "/numbers", result.Calls[0].Path)
	assert.NotEmpty(t, result.Calls[0].SchemaHash)
	assert.Equal(t, "req-0003", result.Calls[2].RequestID)
}

func TestRun_FailedExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "every expectation is off",
		Schema:      "numbers",
		RPCPath:     "numbers",
		Steps: []Step{
			{Query: "square(a=3)", Expect: &ExpectClause{Output: "10"}},
			{Query: "square(a=3)", Expect: &ExpectClause{Error: "overflow"}},
			{Query: "square(a=2147483648)", Expect: &ExpectClause{Code: "INTEGER_UNDERFLOW"}},
			{Query: "square(a=2147483648)", Expect: &ExpectClause{Error: "underflow"}},
		},
		Assertions: []Assertion{
			{Type: AssertCallCount, Function: "square", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], `steps[0] "square(a=3)": expected output "10", got "9"`)
	assert.Contains(t, result.Errors[1], `expected an error, got "9"`)
	assert.Contains(t, result.Errors[2], "expected code INTEGER_UNDERFLOW, got INTEGER_OVERFLOW")
	assert.Contains(t, result.Errors[3], `expected error containing "underflow"`)
	assert.Contains(t, result.Errors[4], "1 call(s) of square")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/person_basic.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Transcript, second.Transcript)
	assert.Equal(t, RenderTranscript(first.Transcript), RenderTranscript(second.Transcript))
}

func TestRun_LiveEndpoint(t *testing.T) {
	server := rpctest.NewServer(t)
	scenario := &Scenario{
		Name:         "live",
		Description:  "against a server the harness does not own",
		SchemaSource: testutil.PointSchema,
		RPCPath:      "point",
		Steps: []Step{
			{Query: "getX(p={x=-5, y=6})", Expect: &ExpectClause{Output: "-5"}},
		},
		Assertions: []Assertion{
			{Type: AssertJournalRow, Table: "queries", Where: map[string]any{"seq": 1}, Expect: map[string]any{"status": "ok"}},
		},
	}

	result, err := Run(scenario, WithEndpoint(rpc.Endpoint{Host: server.Host(), Port: server.Port(), Path: "ignored"}))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Nil(t, result.Calls)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/point", reqs[0].Path)
}

func TestRun_ServerUnavailable(t *testing.T) {
	server := rpctest.NewServer(t)
	endpoint := rpc.Endpoint{Host: server.Host(), Port: server.Port()}
	server.Close()

	scenario := &Scenario{
		Name:        "gone",
		Description: "transport loss is reported per step",
		Schema:      "numbers",
		Steps: []Step{
			{Query: "getSomeNumber()", Expect: &ExpectClause{Code: "CONNECTION_ERROR"}},
			{Query: "getSomeNumber()", Expect: &ExpectClause{Error: "rpc response was not received"}},
		},
	}

	result, err := Run(scenario, WithEndpoint(endpoint))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SchemaErrors(t *testing.T) {
	scenario := &Scenario{
		Name:         "bad",
		Description:  "recursive schema",
		SchemaSource: testutil.RecursiveSchema,
		Steps:        []Step{{Query: "getId()"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile schema")
}
