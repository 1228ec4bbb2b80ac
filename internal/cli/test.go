package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenlab/kaleido/internal/harness"
)

// ScenarioReport holds the outcome of one scenario.
type ScenarioReport struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Failures []string `json:"failures,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TestReport holds test command results.
type TestReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>",
		Short: "Run scenario files and evaluate their assertions",
		Long: `Execute one scenario YAML file, or every *.yaml file in a directory,
and evaluate each scenario's assertions against its run result.

Exit codes: 0 = all scenarios passed, 1 = at least one scenario failed,
2 = scenarios could not be loaded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runTest(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	paths, err := collectScenarioPaths(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "collect scenarios", err)
	}

	report := TestReport{}
	for _, scenarioPath := range paths {
		formatter.VerboseLog("running %s", scenarioPath)
		report.Scenarios = append(report.Scenarios, runOneScenario(cmd, opts, scenarioPath))
	}
	for _, sr := range report.Scenarios {
		if sr.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.SuccessJSON(report); err != nil {
			return err
		}
	} else {
		printTestReport(formatter, report)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", report.Failed, len(report.Scenarios)))
	}
	return nil
}

func runOneScenario(cmd *cobra.Command, opts *RootOptions, path string) ScenarioReport {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return ScenarioReport{
			Name:  filepath.Base(path),
			Error: err.Error(),
		}
	}

	_, failures, err := harness.RunScenario(scenario,
		harness.WithLogger(commandLogger(cmd, opts)))
	if err != nil {
		return ScenarioReport{Name: scenario.Name, Error: err.Error()}
	}
	return ScenarioReport{
		Name:     scenario.Name,
		Pass:     len(failures) == 0,
		Failures: failures,
	}
}

// collectScenarioPaths expands a path into scenario files. A directory
// yields its *.yaml and *.yml entries in name order.
func collectScenarioPaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", path)
	}
	sort.Strings(paths)
	return paths, nil
}

func printTestReport(formatter *OutputFormatter, report TestReport) {
	for _, sr := range report.Scenarios {
		switch {
		case sr.Error != "":
			fmt.Fprintf(formatter.Writer, "✗ %s: %s\n", sr.Name, sr.Error)
		case sr.Pass:
			fmt.Fprintf(formatter.Writer, "✓ %s\n", sr.Name)
		default:
			fmt.Fprintf(formatter.Writer, "✗ %s\n", sr.Name)
			for _, failure := range sr.Failures {
				fmt.Fprintf(formatter.Writer, "    %s\n", failure)
			}
		}
	}
	fmt.Fprintf(formatter.Writer, "%d passed, %d failed\n", report.Passed, report.Failed)
}
