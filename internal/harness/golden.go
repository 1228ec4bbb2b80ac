package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/lumenlab/kaleido/internal/mirror"
)

// TraceSnapshot captures a run for golden comparison: the scenario
// identity, the pinned session token, the full update trace, and the
// final state plus issues. Serialized with canonical JSON so the bytes
// are stable across runs and platforms.
type TraceSnapshot struct {
	ScenarioName string
	SessionToken string
	Trace        []TraceEvent
	State        mirror.Snapshot
	Issues       []string
}

// toCanonicalMap flattens the snapshot for the canonical encoder, which
// only handles maps, slices, and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		traceList[i] = map[string]any{
			"seq":    ev.Seq,
			"step":   ev.Step,
			"time":   ev.Time,
			"rule":   ev.Rule,
			"target": ev.Target,
			"value":  ev.Value,
		}
	}

	issueList := make([]any, len(s.Issues))
	for i, issue := range s.Issues {
		issueList[i] = issue
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"state":         s.State,
		"issues":        issueList,
	}
	if s.SessionToken != "" {
		out["session_token"] = s.SessionToken
	}
	return out
}

// RunWithGolden executes a scenario, fails the test on any assertion
// failure, and compares the canonical trace snapshot against the golden
// file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, failures, err := RunScenario(scenario)
	if err != nil {
		return err
	}
	for _, failure := range failures {
		t.Error(failure)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against the golden
// file for the given name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: name,
		SessionToken: result.SessionToken,
		Trace:        result.Trace,
		State:        result.State,
		Issues:       result.Issues,
	}

	traceJSON, err := mirror.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
