package session

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/schemarepl/internal/compiler"
	"github.com/roach88/schemarepl/internal/config"
	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/rpc"
	"github.com/roach88/schemarepl/internal/store"
)

// Start performs the Starting phase for a resolved configuration: it
// compiles the schema, creates the call channel and opens the journal.
// Every error it returns is session-fatal; errors without a fatal code are
// wrapped as InvalidConfiguration.
//
// clientOpts are passed to rpc.NewClient after the defaults derived from
// cfg; sessionOpts are passed to New.
func Start(cfg config.Config, logger *slog.Logger, clientOpts []rpc.ClientOption, sessionOpts ...Option) (*Session, error) {
	var closers []func() error
	fail := func(err error) (*Session, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		if !diag.IsSessionFatal(err) {
			err = diag.Wrap(diag.CodeInvalidConfiguration, err, "%v", err)
		}
		logger.Debug("session state", "from", StateStarting,
			"to", StateStarting.mustNext(EventFatal), "event", EventFatal, "code", diag.CodeOf(err))
		return nil, err
	}

	schema, err := compiler.CompileFile(cfg.SchemaPath)
	if err != nil {
		return fail(err)
	}
	if schema.IsEmpty() {
		logger.Warn("schema declares nothing, every query will fail", "schema", cfg.SchemaPath)
	}

	reg := prometheus.NewRegistry()
	opts := append([]rpc.ClientOption{
		rpc.WithConnectTimeout(cfg.ConnectTimeout),
		rpc.WithCallTimeout(cfg.CallTimeout),
		rpc.WithMetrics(rpc.NewMetrics(reg)),
		rpc.WithLogger(logger),
	}, clientOpts...)

	client, err := rpc.NewClient(cfg.Endpoint, schema, opts...)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error {
		client.Close()
		return nil
	})

	base := []Option{
		WithLogger(logger),
		WithGatherer(reg),
		WithSchemaInfo(cfg.SchemaPath, cfg.Endpoint.URL()),
	}

	if cfg.JournalPath != "" {
		journal, err := store.Open(cfg.JournalPath)
		if err != nil {
			return fail(diag.Wrap(diag.CodeInvalidConfiguration, err,
				"cannot open journal '%s': %v", cfg.JournalPath, err))
		}
		closers = append(closers, journal.Close)
		base = append(base, WithJournal(journal))
	}
	for _, c := range closers {
		base = append(base, WithCloser(c))
	}

	s, err := New(schema, client, append(base, sessionOpts...)...)
	if err != nil {
		return fail(err)
	}
	return s, nil
}
