package store

import (
	"context"
	"fmt"
	"time"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = time.RFC3339Nano

// BeginSession inserts a session row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) BeginSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, schema_path, schema_hash, endpoint, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.SchemaPath,
		sess.SchemaHash,
		sess.Endpoint,
		sess.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ? WHERE id = ?
	`, endedAt.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session: unknown session %q", id)
	}
	return nil
}

// AppendQuery records one query line.
// Uses ON CONFLICT DO NOTHING so re-appending the same (session, seq) is a
// no-op. The session must exist (foreign key constraint).
func (s *Store) AppendQuery(ctx context.Context, rec QueryRecord) error {
	if rec.Status != StatusOK && rec.Status != StatusError {
		return fmt.Errorf("append query: invalid status %q", rec.Status)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries
		(session_id, seq, query, status, output, error_code, request_id, duration_us, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.SessionID,
		rec.Seq,
		rec.Query,
		rec.Status,
		rec.Output,
		rec.ErrorCode,
		rec.RequestID,
		rec.Duration.Microseconds(),
		rec.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("append query: %w", err)
	}
	return nil
}
