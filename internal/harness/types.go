package harness

// Line is one query line of a transcript and the line printed for it.
type Line struct {
	Seq       int64  `json:"seq"`
	Query     string `json:"query"`
	Output    string `json:"output"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Call is one request received by the bundled server.
type Call struct {
	Function   string         `json:"function"`
	Path       string         `json:"path"`
	RequestID  string         `json:"request_id"`
	SchemaHash string         `json:"schema_hash"`
	Args       map[string]any `json:"args"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Transcript holds one entry per step, in order, as read back from the
	// journal.
	Transcript []Line `json:"transcript"`

	// Calls holds the requests received by the bundled server. Nil when the
	// scenario ran against a live endpoint.
	Calls []Call `json:"calls,omitempty"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Transcript: []Line{},
		Errors:     []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddLine appends a transcript line.
func (r *Result) AddLine(l Line) {
	r.Transcript = append(r.Transcript, l)
}
