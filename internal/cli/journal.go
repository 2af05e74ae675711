package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/schemarepl/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database   string
	SessionID  string
	ErrorsOnly bool
}

// JournalSession is one session in the journal listing.
type JournalSession struct {
	ID         string     `json:"id"`
	SchemaPath string     `json:"schema_path"`
	SchemaHash string     `json:"schema_hash"`
	Endpoint   string     `json:"endpoint"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	OK         int        `json:"ok"`
	Errors     int        `json:"errors"`
}

// JournalQuery is one recorded query line.
type JournalQuery struct {
	Seq        int64  `json:"seq"`
	Query      string `json:"query"`
	Status     string `json:"status"`
	Output     string `json:"output"`
	ErrorCode  string `json:"error_code,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	DurationUS int64  `json:"duration_us"`
}

// JournalTranscript is a session together with its queries.
type JournalTranscript struct {
	Session JournalSession `json:"session"`
	Queries []JournalQuery `json:"queries"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect a query journal",
		Long: `List the sessions recorded in a query journal, or print the transcript
of one session: every query line with the line that was printed for it.

Examples:
  schemarepl journal --journal ./queries.db
  schemarepl journal --journal ./queries.db --session 0192b7c4-...
  schemarepl journal --journal ./queries.db --session 0192b7c4-... --errors --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return WrapExitError(ExitCommandError, "", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "journal", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "print the transcript of this session")
	cmd.Flags().BoolVar(&opts.ErrorsOnly, "errors", false, "only print queries that failed")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// store.Open creates missing files; a journal to inspect must exist.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot open journal '%s'", opts.Database), err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot open journal '%s'", opts.Database), err)
	}
	defer st.Close()

	if opts.SessionID == "" {
		sessions, err := st.ReadSessions(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "cannot read sessions", err)
		}
		listing := make([]JournalSession, 0, len(sessions))
		for _, sess := range sessions {
			counts, err := st.CountByStatus(ctx, sess.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "cannot count queries", err)
			}
			listing = append(listing, toJournalSession(sess, counts))
		}
		formatter.VerboseLog("%d session(s) in %s", len(listing), opts.Database)

		if formatter.Format == "json" {
			return formatter.Success(listing)
		}
		if len(listing) == 0 {
			fmt.Fprintln(formatter.Writer, "No sessions recorded")
			return nil
		}
		for _, s := range listing {
			fmt.Fprintf(formatter.Writer, "%s  %s  ok=%d errors=%d  %s  %s\n",
				s.ID, s.StartedAt.Format(time.RFC3339), s.OK, s.Errors, s.SchemaPath, s.Endpoint)
		}
		return nil
	}

	sess, err := st.ReadSession(ctx, opts.SessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return WrapExitError(ExitCommandError, "", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "cannot read session", err)
	}
	counts, err := st.CountByStatus(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot count queries", err)
	}
	records, err := st.ReadQueries(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot read queries", err)
	}

	transcript := JournalTranscript{Session: toJournalSession(sess, counts), Queries: []JournalQuery{}}
	for _, rec := range records {
		if opts.ErrorsOnly && rec.Status != store.StatusError {
			continue
		}
		transcript.Queries = append(transcript.Queries, JournalQuery{
			Seq:        rec.Seq,
			Query:      rec.Query,
			Status:     rec.Status,
			Output:     rec.Output,
			ErrorCode:  rec.ErrorCode,
			RequestID:  rec.RequestID,
			DurationUS: rec.Duration.Microseconds(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(transcript)
	}

	fmt.Fprintf(formatter.Writer, "session %s (%s, %s)\n", sess.ID, sess.SchemaPath, sess.Endpoint)
	for _, q := range transcript.Queries {
		fmt.Fprintf(formatter.Writer, "%d\t%s\n\t%s\n", q.Seq, q.Query, q.Output)
	}
	return nil
}

func toJournalSession(s store.Session, counts map[string]int) JournalSession {
	return JournalSession{
		ID:         s.ID,
		SchemaPath: s.SchemaPath,
		SchemaHash: s.SchemaHash,
		Endpoint:   s.Endpoint,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		OK:         counts[store.StatusOK],
		Errors:     counts[store.StatusError],
	}
}
