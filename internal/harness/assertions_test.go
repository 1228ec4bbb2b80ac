package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlab/kaleido/internal/mirror"
)

// traceFor builds a result with one event per (target, value) pair.
func traceFor(pairs ...any) *Result {
	r := &Result{State: mirror.Snapshot{}}
	for i := 0; i < len(pairs); i += 2 {
		target := pairs[i].(string)
		value := pairs[i+1].(float64)
		r.Trace = append(r.Trace, TraceEvent{
			Seq:    int64(i/2 + 1),
			Target: target,
			Value:  value,
		})
		r.State[target] = value
	}
	return r
}

func TestAssertFinalState(t *testing.T) {
	result := traceFor("u_x", 0.5)

	assert.NoError(t, evaluateAssertion(result, Assertion{
		Type: AssertFinalState, Key: "u_x", Value: 0.5,
	}))
	assert.NoError(t, evaluateAssertion(result, Assertion{
		Type: AssertFinalState, Key: "u_x", Value: 0.5000000001, Tolerance: 1e-9,
	}))

	err := evaluateAssertion(result, Assertion{
		Type: AssertFinalState, Key: "u_x", Value: 0.6,
	})
	require.Error(t, err)

	err = evaluateAssertion(result, Assertion{
		Type: AssertFinalState, Key: "u_missing", Value: 0.5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present")
}

func TestAssertFinalState_NonNumericValue(t *testing.T) {
	result := &Result{State: mirror.Snapshot{"u_s": "text"}}
	err := evaluateAssertion(result, Assertion{
		Type: AssertFinalState, Key: "u_s", Value: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-numeric")
}

func TestAssertIssueContains(t *testing.T) {
	result := &Result{Issues: []string{"missing shader fragment code"}}

	assert.NoError(t, evaluateAssertion(result, Assertion{
		Type: AssertIssueContains, Substring: "fragment",
	}))
	err := evaluateAssertion(result, Assertion{
		Type: AssertIssueContains, Substring: "uniform",
	})
	require.Error(t, err)
}

func TestAssertIssueCount(t *testing.T) {
	result := &Result{Issues: []string{"a", "b"}}

	assert.NoError(t, evaluateAssertion(result, Assertion{Type: AssertIssueCount, Count: 2}))
	assert.Error(t, evaluateAssertion(result, Assertion{Type: AssertIssueCount, Count: 0}))
}

func TestAssertUpdateCount(t *testing.T) {
	result := traceFor("u_x", 1.0, "u_y", 2.0, "u_x", 3.0)

	assert.NoError(t, evaluateAssertion(result, Assertion{
		Type: AssertUpdateCount, Key: "u_x", Count: 2,
	}))
	assert.NoError(t, evaluateAssertion(result, Assertion{
		Type: AssertUpdateCount, Key: "u_z", Count: 0,
	}))
	assert.Error(t, evaluateAssertion(result, Assertion{
		Type: AssertUpdateCount, Key: "u_y", Count: 2,
	}))
}

func TestAssertUpdateOrder(t *testing.T) {
	result := traceFor("u_a", 1.0, "u_b", 2.0, "u_a", 3.0)

	assert.NoError(t, evaluateAssertion(result, Assertion{
		Type: AssertUpdateOrder, Keys: []string{"u_a", "u_b"},
	}))

	// First writes decide; the later u_a write does not reorder.
	err := evaluateAssertion(result, Assertion{
		Type: AssertUpdateOrder, Keys: []string{"u_b", "u_a"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = evaluateAssertion(result, Assertion{
		Type: AssertUpdateOrder, Keys: []string{"u_a", "u_ghost"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never written")
}

func TestEvaluateAssertions_CollectsAll(t *testing.T) {
	result := traceFor("u_x", 1.0)
	failures := EvaluateAssertions(result, []Assertion{
		{Type: AssertFinalState, Key: "u_x", Value: 1.0}, // passes
		{Type: AssertIssueCount, Count: 5},               // fails
		{Type: AssertUpdateCount, Key: "u_x", Count: 9},  // fails
	})
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[1], "assertions[2]")
}
