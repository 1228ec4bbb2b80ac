package harness

import (
	"fmt"
	"math"
	"strings"
)

// AssertionError reports one failed scenario assertion with enough
// context to debug it without re-running.
type AssertionError struct {
	// Type is the assertion type for categorization.
	Type string

	// Expected and Actual are human-readable outcome descriptions.
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual: %s",
		e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against the result and
// returns one message per failure. Evaluation never short-circuits, so
// a single run reports all of its broken expectations at once.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, assertion := range assertions {
		if err := evaluateAssertion(result, assertion); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertIssueContains:
		return assertIssueContains(result, a)
	case AssertIssueCount:
		return assertIssueCount(result, a)
	case AssertUpdateCount:
		return assertUpdateCount(result, a)
	case AssertUpdateOrder:
		return assertUpdateOrder(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertFinalState checks the final mirror value for a key, within the
// assertion's tolerance.
func assertFinalState(result *Result, a Assertion) error {
	raw, ok := result.State[a.Key]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("key %q = %v", a.Key, a.Value),
			Actual:   "key not present in final state",
		}
	}
	actual, ok := toFloat(raw)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("key %q = %v", a.Key, a.Value),
			Actual:   fmt.Sprintf("non-numeric value %v (%T)", raw, raw),
		}
	}
	if math.Abs(actual-a.Value) > a.Tolerance {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("key %q = %v (tolerance %v)", a.Key, a.Value, a.Tolerance),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertIssueContains checks that at least one issue contains the
// substring.
func assertIssueContains(result *Result, a Assertion) error {
	for _, issue := range result.Issues {
		if strings.Contains(issue, a.Substring) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertIssueContains,
		Expected: fmt.Sprintf("an issue containing %q", a.Substring),
		Actual:   fmt.Sprintf("issues: %v", result.Issues),
	}
}

// assertIssueCount checks the exact number of reported issues.
func assertIssueCount(result *Result, a Assertion) error {
	if len(result.Issues) != a.Count {
		return &AssertionError{
			Type:     AssertIssueCount,
			Expected: fmt.Sprintf("%d issue(s)", a.Count),
			Actual:   fmt.Sprintf("%d issue(s): %v", len(result.Issues), result.Issues),
		}
	}
	return nil
}

// assertUpdateCount checks how many trace events wrote a key.
func assertUpdateCount(result *Result, a Assertion) error {
	n := result.UpdateCount(a.Key)
	if n != a.Count {
		return &AssertionError{
			Type:     AssertUpdateCount,
			Expected: fmt.Sprintf("key %q written %d time(s)", a.Key, a.Count),
			Actual:   fmt.Sprintf("written %d time(s)", n),
		}
	}
	return nil
}

// assertUpdateOrder checks that the keys' first writes happened in the
// given order. Interleaved writes to other keys are allowed.
func assertUpdateOrder(result *Result, a Assertion) error {
	positions := make(map[string]int, len(a.Keys))
	for i, ev := range result.Trace {
		if _, seen := positions[ev.Target]; !seen {
			positions[ev.Target] = i + 1 // 1-indexed for readability
		}
	}

	for _, key := range a.Keys {
		if positions[key] == 0 {
			return &AssertionError{
				Type:     AssertUpdateOrder,
				Expected: fmt.Sprintf("all keys written: %v", a.Keys),
				Actual:   fmt.Sprintf("key %q never written", key),
			}
		}
	}
	for i := 1; i < len(a.Keys); i++ {
		prev, curr := a.Keys[i-1], a.Keys[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertUpdateOrder,
				Expected: fmt.Sprintf("first writes in order: %v", a.Keys),
				Actual: fmt.Sprintf("%q (pos %d) should be before %q (pos %d)",
					prev, positions[prev], curr, positions[curr]),
			}
		}
	}
	return nil
}

// toFloat widens any numeric state value to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
