package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/schemarepl/internal/binder"
	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/format"
	"github.com/roach88/schemarepl/internal/ir"
	"github.com/roach88/schemarepl/internal/query"
	"github.com/roach88/schemarepl/internal/store"
)

// maxLineBytes bounds a single query line. Longer lines are reported as
// QueryTooLong and skipped.
const maxLineBytes = 1 << 20

// maxJournaledQuery bounds the query text kept for a rejected line.
const maxJournaledQuery = 256

// Caller performs a bound call. *rpc.Client implements it.
type Caller interface {
	Call(ctx context.Context, req ir.CallRequest) (ir.Value, string, error)
}

// Journal records queries. *store.Store implements it.
type Journal interface {
	BeginSession(ctx context.Context, sess store.Session) error
	AppendQuery(ctx context.Context, rec store.QueryRecord) error
	EndSession(ctx context.Context, id string, endedAt time.Time) error
}

// Result is the outcome of one query line.
type Result struct {
	Query     string
	Output    string // the printed line, without newline
	Err       error  // nil on success
	RequestID string // empty if no call was made
	Duration  time.Duration
	State     QueryState // last state reached before reporting
}

// OK reports whether the query produced a value.
func (r Result) OK() bool {
	return r.Err == nil
}

// Session processes query lines against one compiled schema.
type Session struct {
	id         string
	schema     *ir.Schema
	schemaPath string
	schemaHash string
	endpoint   string
	caller     Caller
	journal    Journal
	logger     *slog.Logger
	now        func() time.Time
	gatherer   prometheus.Gatherer
	prompt     string
	closers    []func() error

	state  State
	fatal  bool
	seq    int64
	ok     int
	failed int
}

// Option configures a Session.
type Option func(*Session)

// WithJournal records every reported query in j.
func WithJournal(j Journal) Option {
	return func(s *Session) {
		s.journal = j
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithClock replaces time.Now, for deterministic durations and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithID sets the session id. Default: a fresh UUIDv7.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithGatherer makes the session log a call metrics summary at termination.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Session) {
		s.gatherer = g
	}
}

// WithPrompt writes prompt to the output before each line is read.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// WithSchemaInfo records where the schema came from and where calls go; both
// are only used for journaling and logs.
func WithSchemaInfo(schemaPath, endpoint string) Option {
	return func(s *Session) {
		s.schemaPath = schemaPath
		s.endpoint = endpoint
	}
}

// WithCloser registers a cleanup run when the session terminates.
func WithCloser(fn func() error) Option {
	return func(s *Session) {
		s.closers = append(s.closers, fn)
	}
}

// New creates a session in the Ready state for an already compiled schema.
func New(schema *ir.Schema, caller Caller, opts ...Option) (*Session, error) {
	s := &Session{
		schema: schema,
		caller: caller,
		logger: slog.Default(),
		now:    time.Now,
		state:  StateStarting,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.Must(uuid.NewV7()).String()
	}

	hash, err := ir.SchemaHash(schema)
	if err != nil {
		s.transition(EventFatal)
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.schemaHash = hash
	s.transition(EventStarted)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

func (s *Session) transition(e Event) {
	next := s.state.mustNext(e)
	s.logger.Debug("session state", "from", s.state, "to", next, "event", e)
	s.state = next
}

// Run reads query lines from in until EOF or ctx is cancelled and writes one
// line per query to out. The session is terminated when Run returns.
//
// Per-query failures are written to out and never returned. A returned error
// means the streams themselves failed, ctx was cancelled, or a session-fatal
// diagnostic was raised; in the last case nothing is written for that line.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	if s.state != StateReady {
		return fmt.Errorf("run session: session is %s", s.state)
	}
	defer func() {
		if closeErr := s.terminate(ctx); err == nil {
			err = closeErr
		}
	}()

	if s.journal != nil {
		err := s.journal.BeginSession(ctx, store.Session{
			ID:         s.id,
			SchemaPath: s.schemaPath,
			SchemaHash: s.schemaHash,
			Endpoint:   s.endpoint,
			StartedAt:  s.now(),
		})
		if err != nil {
			s.logger.Warn("journal disabled", "error", err)
			s.journal = nil
		}
	}

	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.prompt != "" {
			if _, err := w.WriteString(s.prompt); err != nil {
				return fmt.Errorf("write prompt: %w", err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("write prompt: %w", err)
			}
		}

		line, tooLong, err := readLine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read queries: %w", err)
		}

		var res Result
		if tooLong {
			res = s.reject(line, diag.New(diag.CodeQueryTooLong,
				"query too long: more than %d bytes", maxLineBytes))
		} else {
			res = s.Handle(ctx, line)
		}
		if diag.IsSessionFatal(res.Err) {
			s.fatal = true
			return res.Err
		}
		if _, err := w.WriteString(res.Output + "\n"); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		s.record(ctx, res)
	}

	return ctx.Err()
}

// readLine returns the next line without its newline. A line longer than
// maxLineBytes is consumed to its end and returned truncated, with tooLong
// set. io.EOF is returned only when no bytes were left.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	read := 0
	for {
		chunk, err := r.ReadSlice('\n')
		read += len(chunk)
		if room := maxLineBytes + 1 - len(buf); room > 0 {
			buf = append(buf, chunk[:min(room, len(chunk))]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && (!errors.Is(err, io.EOF) || read == 0) {
			return "", false, err
		}
		break
	}

	buf = bytes.TrimSuffix(buf, []byte("\n"))
	if len(buf) > maxLineBytes {
		return string(buf[:maxLineBytes]), true, nil
	}
	return string(buf), false, nil
}

// Handle processes one query line. It never fails: every outcome, including
// transport loss, is a Result whose Output is the line to print.
func (s *Session) Handle(ctx context.Context, line string) Result {
	line = strings.TrimSuffix(line, "\r")
	q := s.begin(line)

	call, err := query.Parse(line)
	if err != nil {
		return q.report(nil, err)
	}
	q.advance(QueryCompiled)

	req, err := binder.Bind(call, s.schema)
	if err != nil {
		return q.report(nil, err)
	}
	q.advance(QueryBound)

	value, requestID, err := s.caller.Call(ctx, req)
	q.res.RequestID = requestID
	q.advance(QueryCalled)
	return q.report(value, err)
}

// reject reports a line that could not be compiled at all.
func (s *Session) reject(line string, err error) Result {
	if len(line) > maxJournaledQuery {
		line = line[:maxJournaledQuery] + "..."
	}
	return s.begin(line).report(nil, err)
}

// pending is a query between Received and Reported.
type pending struct {
	s     *Session
	start time.Time
	res   Result
}

func (s *Session) begin(line string) *pending {
	s.seq++
	return &pending{s: s, start: s.now(), res: Result{Query: line, State: QueryReceived}}
}

func (q *pending) advance(to QueryState) {
	q.res.State = q.res.State.mustAdvance(to)
}

func (q *pending) report(value ir.Value, err error) Result {
	s := q.s
	q.advance(QueryReported)
	q.res.Duration = s.now().Sub(q.start)
	if err != nil {
		q.res.Err = err
		q.res.Output = format.Error(err)
		s.failed++
	} else {
		q.res.Output = format.Value(value)
		s.ok++
	}
	s.logger.Debug("query",
		"seq", s.seq,
		"ok", err == nil,
		"code", diag.CodeOf(err),
		"request_id", q.res.RequestID,
		"duration", q.res.Duration,
	)
	return q.res
}

func (s *Session) record(ctx context.Context, res Result) {
	if s.journal == nil {
		return
	}
	rec := store.QueryRecord{
		SessionID:  s.id,
		Seq:        s.seq,
		Query:      res.Query,
		Status:     store.StatusOK,
		Output:     res.Output,
		RequestID:  res.RequestID,
		Duration:   res.Duration,
		RecordedAt: s.now(),
	}
	if !res.OK() {
		rec.Status = store.StatusError
		rec.ErrorCode = string(diag.CodeOf(res.Err))
	}
	if err := s.journal.AppendQuery(ctx, rec); err != nil {
		s.logger.Warn("journal append failed", "seq", s.seq, "error", err)
	}
}

func (s *Session) terminate(ctx context.Context) error {
	if s.state == StateTerminated {
		return nil
	}
	if s.fatal {
		s.transition(EventFatal)
	} else {
		s.transition(EventInputClosed)
	}

	if s.journal != nil {
		// The run context may already be cancelled; the end stamp still
		// belongs in the journal.
		if err := s.journal.EndSession(context.WithoutCancel(ctx), s.id, s.now()); err != nil {
			s.logger.Warn("journal end failed", "error", err)
		}
	}
	s.logSummary()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) logSummary() {
	s.logger.Debug("session summary", "session", s.id, "ok", s.ok, "failed", s.failed)
	if s.gatherer == nil {
		return
	}
	families, err := s.gatherer.Gather()
	if err != nil {
		s.logger.Debug("gather metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		if mf.GetName() != "schemarepl_calls_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			attrs := []any{"count", m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			s.logger.Debug("calls", attrs...)
		}
	}
}
