package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/schemarepl/internal/compiler"
	"github.com/roach88/schemarepl/internal/rpc"
	"github.com/roach88/schemarepl/internal/rpc/rpctest"
	"github.com/roach88/schemarepl/internal/session"
	"github.com/roach88/schemarepl/internal/store"
	"github.com/roach88/schemarepl/internal/testutil"
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	endpoint *rpc.Endpoint
	timeout  time.Duration
}

// WithEndpoint runs the scenario against a live server instead of the
// bundled one. The scenario's rpc_path replaces the endpoint path when set.
func WithEndpoint(e rpc.Endpoint) Option {
	return func(c *runConfig) {
		c.endpoint = &e
	}
}

// WithCallTimeout bounds each call. Default: rpc.DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// cleanups collects teardown functions for the bundled server.
type cleanups []func()

func (c *cleanups) Cleanup(fn func()) {
	*c = append(*c, fn)
}

func (c *cleanups) run() {
	for i := len(*c) - 1; i >= 0; i-- {
		(*c)[i]()
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal with a stepping clock and
// sequential request ids, so two runs of the same scenario produce the same
// transcript.
//
// Execution flow:
// 1. Compile the schema
// 2. Start the bundled server (unless WithEndpoint is given)
// 3. Feed every step to a session as one line of input
// 4. Read the transcript back from the journal and check expectations
// 5. Evaluate assertions
//
// An error is returned only when the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{timeout: rpc.DefaultCallTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	src, label, err := scenario.source()
	if err != nil {
		return nil, err
	}
	schema, err := compiler.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var teardown cleanups
	defer teardown.run()

	var server *rpctest.Server
	var endpoint rpc.Endpoint
	if cfg.endpoint != nil {
		endpoint = *cfg.endpoint
		if scenario.RPCPath != "" {
			endpoint.Path = scenario.RPCPath
		}
	} else {
		server = rpctest.NewServer(&teardown)
		endpoint = rpc.Endpoint{Host: server.Host(), Port: server.Port(), Path: scenario.RPCPath}
	}

	journal, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer journal.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := rpc.NewClient(endpoint, schema,
		rpc.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		rpc.WithCallTimeout(cfg.timeout),
		rpc.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	clock := testutil.NewStepClock(time.Millisecond)
	sess, err := session.New(schema, client,
		session.WithID(scenario.Name),
		session.WithJournal(journal),
		session.WithClock(clock.Now),
		session.WithLogger(logger),
		session.WithSchemaInfo(label, endpoint.URL()),
	)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var out bytes.Buffer
	if err := sess.Run(ctx, strings.NewReader(scenario.input()), &out); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	records, err := journal.ReadQueries(ctx, scenario.Name)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	printed := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(records) != len(scenario.Steps) || len(printed) != len(scenario.Steps) {
		return nil, fmt.Errorf("session answered %d of %d steps (%d journaled)",
			len(printed), len(scenario.Steps), len(records))
	}

	result := NewResult()
	for i, rec := range records {
		line := Line{
			Seq:       rec.Seq,
			Query:     rec.Query,
			Output:    rec.Output,
			Status:    rec.Status,
			ErrorCode: rec.ErrorCode,
			RequestID: rec.RequestID,
		}
		result.AddLine(line)

		if printed[i] != rec.Output {
			result.AddError(fmt.Sprintf("steps[%d]: printed %q but journaled %q", i, printed[i], rec.Output))
		}
		if msg := checkExpect(scenario.Steps[i].Expect, line); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] %q: %s", i, line.Query, msg))
		}
	}

	if server != nil {
		calls, err := toCalls(server.Requests())
		if err != nil {
			return nil, err
		}
		result.Calls = calls
	}

	actx := &AssertionContext{
		Store: journal,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// checkExpect returns a failure message, or "" if the line matches.
func checkExpect(e *ExpectClause, l Line) string {
	if e == nil {
		return ""
	}
	if e.Output != "" {
		if l.Output != e.Output {
			return fmt.Sprintf("expected output %q, got %q", e.Output, l.Output)
		}
		return ""
	}
	if l.Status != store.StatusError {
		return fmt.Sprintf("expected an error, got %q", l.Output)
	}
	if e.Code != "" && l.ErrorCode != e.Code {
		return fmt.Sprintf("expected code %s, got %s (%q)", e.Code, l.ErrorCode, l.Output)
	}
	if e.Error != "" && !strings.Contains(l.Output, e.Error) {
		return fmt.Sprintf("expected error containing %q, got %q", e.Error, l.Output)
	}
	return ""
}

func toCalls(reqs []rpctest.Request) ([]Call, error) {
	calls := make([]Call, 0, len(reqs))
	for _, r := range reqs {
		var env struct {
			Args map[string]any `json:"args"`
		}
		dec := json.NewDecoder(strings.NewReader(r.Body))
		dec.UseNumber()
		if err := dec.Decode(&env); err != nil {
			return nil, fmt.Errorf("decode call %s: %w", r.RequestID, err)
		}
		calls = append(calls, Call{
			Function:   r.Function,
			Path:       r.Path,
			RequestID:  r.RequestID,
			SchemaHash: r.SchemaHash,
			Args:       env.Args,
		})
	}
	return calls, nil
}
