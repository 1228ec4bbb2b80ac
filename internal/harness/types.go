package harness

import "github.com/lumenlab/kaleido/internal/mirror"

// TraceEvent records one mirror update performed during a run.
type TraceEvent struct {
	// Seq is the logical-clock stamp, strictly increasing within a run.
	Seq int64 `json:"seq"`

	// Step is the zero-based simulation step that produced the update.
	Step int `json:"step"`

	// Time is the virtual time of the step (step * dt).
	Time float64 `json:"time"`

	// Rule labels the modulation rule, falling back to its target key
	// when the asset gives the rule no id.
	Rule string `json:"rule"`

	// Target is the mirror key written.
	Target string `json:"target"`

	// Value is the computed modulation value.
	Value float64 `json:"value"`
}

// Result is the outcome of one simulation run.
//
// On a mid-loop rule failure the orchestrator still returns a Result:
// State, Issues, and Trace hold everything produced before the failure.
type Result struct {
	// SessionToken identifies the run.
	SessionToken string `json:"session_token"`

	// AssetName is the loaded asset's name.
	AssetName string `json:"asset_name"`

	// State is the final mirror state (a copy owned by the caller).
	State mirror.Snapshot `json:"state"`

	// Issues are the load-time validation issues, in derivation order.
	Issues []string `json:"issues,omitempty"`

	// Trace lists every mirror update in execution order.
	Trace []TraceEvent `json:"trace"`

	// Faults collects non-fatal observer broadcast failures. A run with
	// faults completed all its steps; the mirror writes succeeded.
	Faults []error `json:"-"`

	// Steps and Dt echo the run parameters for reporting.
	Steps int     `json:"steps"`
	Dt    float64 `json:"dt"`
}

// UpdateCount returns how many trace events wrote the given key.
func (r *Result) UpdateCount(key string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Target == key {
			n++
		}
	}
	return n
}

// Targets returns the distinct target keys in first-write order.
func (r *Result) Targets() []string {
	seen := make(map[string]bool, len(r.Trace))
	var keys []string
	for _, ev := range r.Trace {
		if !seen[ev.Target] {
			seen[ev.Target] = true
			keys = append(keys, ev.Target)
		}
	}
	return keys
}
