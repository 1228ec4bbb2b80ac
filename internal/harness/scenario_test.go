package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPath(name string) string {
	return filepath.Join("testdata", "scenarios", name)
}

// writeScenario drops a scenario file into a temp dir alongside a tiny
// valid asset, for malformed-input tests.
func writeScenario(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()

	asset := filepath.Join(dir, "asset.json")
	require.NoError(t, os.WriteFile(asset, []byte(`{"name": "tiny"}`), 0o644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(scenarioPath("square_pulse.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "square-pulse", s.Name)
	assert.Equal(t, 4, s.Steps)
	assert.Equal(t, 0.25, s.Dt)
	assert.Equal(t, "golden-square-0001", s.SessionToken)
	// The asset path resolves relative to the scenario file.
	assert.Equal(t, filepath.Join("testdata", "assets", "square.json"), filepath.Clean(s.Asset))
	require.Len(t, s.Assertions, 3)
	assert.Equal(t, AssertFinalState, s.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(scenarioPath("nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a typo'd field
asset: asset.json
steps: 1
dt: 0.1
assertion:
  - type: issue_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario YAML")
}

func TestLoadScenario_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"missing name",
			"description: d\nasset: asset.json\nsteps: 1\ndt: 0.1\nassertions:\n  - type: issue_count\n    count: 0\n",
			"name is required",
		},
		{
			"missing asset",
			"name: n\ndescription: d\nsteps: 1\ndt: 0.1\nassertions:\n  - type: issue_count\n    count: 0\n",
			"asset is required",
		},
		{
			"asset not found",
			"name: n\ndescription: d\nasset: gone.json\nsteps: 1\ndt: 0.1\nassertions:\n  - type: issue_count\n    count: 0\n",
			"asset file not found",
		},
		{
			"zero dt",
			"name: n\ndescription: d\nasset: asset.json\nsteps: 1\ndt: 0\nassertions:\n  - type: issue_count\n    count: 0\n",
			"dt must be positive",
		},
		{
			"no assertions",
			"name: n\ndescription: d\nasset: asset.json\nsteps: 1\ndt: 0.1\n",
			"assertions list is required",
		},
		{
			"unknown assertion type",
			"name: n\ndescription: d\nasset: asset.json\nsteps: 1\ndt: 0.1\nassertions:\n  - type: bogus\n",
			`unknown assertion type "bogus"`,
		},
		{
			"final_state without key",
			"name: n\ndescription: d\nasset: asset.json\nsteps: 1\ndt: 0.1\nassertions:\n  - type: final_state\n    value: 1\n",
			"key is required for final_state",
		},
		{
			"update_order single key",
			"name: n\ndescription: d\nasset: asset.json\nsteps: 1\ndt: 0.1\nassertions:\n  - type: update_order\n    keys: [only]\n",
			"at least two keys",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunScenario_AllAssertionsPass(t *testing.T) {
	s, err := LoadScenario(scenarioPath("two_rules.yaml"))
	require.NoError(t, err)

	result, failures, err := RunScenario(s)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, "golden-two-rules-0001", result.SessionToken)
	assert.Equal(t, []string{"u_a", "u_b"}, result.Targets())
}

func TestRunScenario_CollectsAllFailures(t *testing.T) {
	s, err := LoadScenario(scenarioPath("square_pulse.yaml"))
	require.NoError(t, err)

	// Break two expectations; both must surface.
	s.Assertions[0].Value = 99
	s.Assertions[1].Count = 7

	_, failures, err := RunScenario(s)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "final_state")
	assert.Contains(t, failures[1], "update_count")
}
