package session

import "fmt"

// State is the session lifecycle state.
type State int

const (
	// StateStarting: configuration is resolved and the schema is being
	// compiled. Any failure here is session-fatal.
	StateStarting State = iota

	// StateReady: the schema is compiled and the call channel exists. Query
	// lines are being processed.
	StateReady

	// StateTerminated: input ended, the context was cancelled, or startup
	// failed. Terminal.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event drives session state transitions.
type Event int

const (
	EventStarted     Event = iota // schema compiled, channel created
	EventFatal                    // session-fatal diagnostic
	EventInputClosed              // end of query stream or cancellation
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventFatal:
		return "fatal"
	case EventInputClosed:
		return "input-closed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Next returns the state reached from s on e, or an error for a transition
// the lifecycle does not allow.
func (s State) Next(e Event) (State, error) {
	switch s {
	case StateStarting:
		switch e {
		case EventStarted:
			return StateReady, nil
		case EventFatal:
			return StateTerminated, nil
		}
	case StateReady:
		switch e {
		case EventInputClosed, EventFatal:
			return StateTerminated, nil
		}
	case StateTerminated:
	}
	return s, fmt.Errorf("invalid session transition: %s on %s", s, e)
}

// mustNext is Next for transitions the driver only requests when they are
// valid. A rejected transition is a bug and panics.
func (s State) mustNext(e Event) State {
	next, err := s.Next(e)
	if err != nil {
		panic(err)
	}
	return next
}

// QueryState tracks one query line through the pipeline.
type QueryState int

const (
	QueryReceived QueryState = iota
	QueryCompiled
	QueryBound
	QueryCalled
	QueryReported
)

func (q QueryState) String() string {
	switch q {
	case QueryReceived:
		return "received"
	case QueryCompiled:
		return "compiled"
	case QueryBound:
		return "bound"
	case QueryCalled:
		return "called"
	case QueryReported:
		return "reported"
	default:
		return fmt.Sprintf("QueryState(%d)", int(q))
	}
}

// Advance moves a query forward. Every non-terminal state may jump straight
// to QueryReported when its step fails; otherwise states advance one at a
// time.
func (q QueryState) Advance(to QueryState) (QueryState, error) {
	ok := false
	switch q {
	case QueryReceived:
		ok = to == QueryCompiled || to == QueryReported
	case QueryCompiled:
		ok = to == QueryBound || to == QueryReported
	case QueryBound:
		ok = to == QueryCalled || to == QueryReported
	case QueryCalled:
		ok = to == QueryReported
	case QueryReported:
	}
	if !ok {
		return q, fmt.Errorf("invalid query transition: %s -> %s", q, to)
	}
	return to, nil
}

// mustAdvance is Advance for the pipeline's own transitions. A rejected
// transition is a bug and panics.
func (q QueryState) mustAdvance(to QueryState) QueryState {
	next, err := q.Advance(to)
	if err != nil {
		panic(err)
	}
	return next
}
