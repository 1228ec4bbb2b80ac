package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario declaratively describes one simulation run and the checks to
// apply to its result. Scenarios live in YAML files next to the assets
// they exercise.
type Scenario struct {
	// Name uniquely identifies the scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Asset is the path to the asset source, relative to the scenario
	// file location.
	Asset string `yaml:"asset"`

	// Steps is the number of simulation steps. Zero is valid.
	Steps int `yaml:"steps"`

	// Dt is the virtual-time increment per step. Must be positive.
	Dt float64 `yaml:"dt"`

	// SessionToken pins the run's session token for byte-identical
	// golden comparison. Empty defaults to "session-default".
	SessionToken string `yaml:"session_token,omitempty"`

	// Assertions validate the final state, issues, and trace.
	// Supported types: final_state, issue_contains, issue_count,
	// update_count, update_order.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion is one declarative check against a run result.
type Assertion struct {
	// Type selects the check:
	//   - "final_state": final mirror value for Key equals Value
	//   - "issue_contains": some issue contains Substring
	//   - "issue_count": exactly Count issues were reported
	//   - "update_count": Key was written exactly Count times
	//   - "update_order": first writes of Keys happened in order
	Type string `yaml:"type"`

	// Key is the mirror key (final_state, update_count).
	Key string `yaml:"key,omitempty"`

	// Value is the expected final value (final_state).
	Value float64 `yaml:"value,omitempty"`

	// Tolerance bounds |actual - Value| for final_state. Zero means
	// exact equality.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Substring is the expected issue fragment (issue_contains).
	Substring string `yaml:"substring,omitempty"`

	// Count is the expected occurrence count (issue_count, update_count).
	Count int `yaml:"count,omitempty"`

	// Keys is the expected first-write order (update_order).
	Keys []string `yaml:"keys,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertIssueContains = "issue_contains"
	AssertIssueCount    = "issue_count"
	AssertUpdateCount   = "update_count"
	AssertUpdateOrder   = "update_order"
)

// LoadScenario reads and parses a scenario YAML file. The asset path is
// resolved relative to the scenario file's directory. Unknown YAML
// fields (typos) and missing required fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if scenario.Asset != "" && !filepath.IsAbs(scenario.Asset) {
		scenario.Asset = filepath.Join(filepath.Dir(path), scenario.Asset)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// RunScenario executes a scenario with a fresh orchestrator and
// evaluates its assertions. Assertion failures are collected (not
// short-circuited) and returned as error strings alongside the result;
// run failures return the orchestrator's error directly.
func RunScenario(scenario *Scenario, opts ...Option) (*Result, []string, error) {
	opts = append([]Option{
		WithTokenGenerator(NewFixedTokenGenerator(scenario.SessionToken)),
	}, opts...)

	orc := New(scenario.Asset, opts...)
	result, err := orc.Run(context.Background(), scenario.Steps, scenario.Dt)
	if err != nil {
		return result, nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	failures := EvaluateAssertions(result, scenario.Assertions)
	return result, failures, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Asset == "" {
		return fmt.Errorf("asset is required")
	}
	if _, err := os.Stat(s.Asset); os.IsNotExist(err) {
		return fmt.Errorf("asset file not found: %s", s.Asset)
	}
	if s.Steps < 0 {
		return fmt.Errorf("steps must be non-negative")
	}
	if s.Dt <= 0 {
		return fmt.Errorf("dt must be positive")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertFinalState:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for final_state", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertIssueContains:
		if a.Substring == "" {
			return fmt.Errorf("assertions[%d]: substring is required for issue_contains", index)
		}
	case AssertIssueCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for issue_count", index)
		}
	case AssertUpdateCount:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for update_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for update_count", index)
		}
	case AssertUpdateOrder:
		if len(a.Keys) < 2 {
			return fmt.Errorf("assertions[%d]: at least two keys are required for update_order", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
