package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session id is not in the journal.
var ErrSessionNotFound = errors.New("session not found")

// ReadSessions returns every session, oldest first.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_path, schema_hash, endpoint, started_at, ended_at
		FROM sessions
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schema_path, schema_hash, endpoint, started_at, ended_at
		FROM sessions
		WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, err
}

// ReadQueries returns the queries of a session in seq order.
//
// Returns an empty slice (not nil) if the session has no queries.
func (s *Store) ReadQueries(ctx context.Context, sessionID string) ([]QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, query, status, output, error_code, request_id, duration_us, recorded_at
		FROM queries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query queries: %w", err)
	}
	defer rows.Close()

	records := []QueryRecord{}
	for rows.Next() {
		var (
			rec        QueryRecord
			durationUS int64
			recordedAt string
		)
		if err := rows.Scan(
			&rec.SessionID, &rec.Seq, &rec.Query, &rec.Status, &rec.Output,
			&rec.ErrorCode, &rec.RequestID, &durationUS, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		if rec.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("scan query: recorded_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return records, nil
}

// CountByStatus returns how many queries of a session have each status.
func (s *Store) CountByStatus(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM queries
		WHERE session_id = ?
		GROUP BY status
		ORDER BY status ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess      Session
		startedAt string
		endedAt   sql.NullString
	)
	if err := row.Scan(&sess.ID, &sess.SchemaPath, &sess.SchemaHash, &sess.Endpoint, &startedAt, &endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	var err error
	if sess.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return Session{}, fmt.Errorf("scan session: started_at: %w", err)
	}
	if endedAt.Valid {
		t, err := time.Parse(timeLayout, endedAt.String)
		if err != nil {
			return Session{}, fmt.Errorf("scan session: ended_at: %w", err)
		}
		sess.EndedAt = &t
	}
	return sess, nil
}
