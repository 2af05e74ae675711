package store

import "time"

// Query statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Session is one journaled REPL run.
type Session struct {
	ID         string
	SchemaPath string
	SchemaHash string
	Endpoint   string
	StartedAt  time.Time
	EndedAt    *time.Time // nil while the session is running or if it crashed
}

// QueryRecord is one journaled query line and the line printed for it.
type QueryRecord struct {
	SessionID  string
	Seq        int64
	Query      string
	Status     string
	Output     string
	ErrorCode  string // diag code, empty on success
	RequestID  string // empty when no call was made
	Duration   time.Duration
	RecordedAt time.Time
}
