package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTranscript renders a transcript the way a terminal session looks:
// each query behind a "> " prompt, followed by the line printed for it.
func RenderTranscript(lines []Line) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("> ")
		b.WriteString(l.Query)
		b.WriteByte('\n')
		b.WriteString(l.Output)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares the transcript against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass; returns an error only if the
// scenario could not be executed. A transcript mismatch fails t via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result's transcript against the
// golden file for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTranscript(result.Transcript))
}
