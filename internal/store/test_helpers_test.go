package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

var testEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession inserts a session with minimal required fields.
func createTestSession(t *testing.T, s *Store, id string) Session {
	t.Helper()
	sess := Session{
		ID:         id,
		SchemaPath: "person.sc",
		SchemaHash: "test-hash",
		Endpoint:   "http://localhost:5050/person",
		StartedAt:  testEpoch,
	}
	if err := s.BeginSession(context.Background(), sess); err != nil {
		t.Fatalf("BeginSession() failed: %v", err)
	}
	return sess
}

// createTestQuery builds a successful query record.
func createTestQuery(sessionID string, seq int64, query, output string) QueryRecord {
	return QueryRecord{
		SessionID:  sessionID,
		Seq:        seq,
		Query:      query,
		Status:     StatusOK,
		Output:     output,
		RequestID:  "req-1",
		Duration:   1500 * time.Microsecond,
		RecordedAt: testEpoch.Add(time.Duration(seq) * time.Second),
	}
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
