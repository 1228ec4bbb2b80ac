package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lumenlab/kaleido/internal/config"
	"github.com/lumenlab/kaleido/internal/harness"
	"github.com/lumenlab/kaleido/internal/runlog"
)

// RunReport holds run command results.
type RunReport struct {
	SessionToken string         `json:"session_token"`
	Asset        string         `json:"asset"`
	Steps        int            `json:"steps"`
	Dt           float64        `json:"dt"`
	State        map[string]any `json:"state"`
	Issues       []string       `json:"issues,omitempty"`
	Updates      int            `json:"updates"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		steps   int
		dt      float64
		logPath string
		session string
	)

	cmd := &cobra.Command{
		Use:   "run <asset.json>",
		Short: "Run a fixed-step simulation over an asset",
		Long: `Load an asset and drive its modulation rules through a fixed-step
simulation. Prints the final mirror state and any load-time validation
issues. With --log, the run is recorded in a SQLite run log.

Exit codes: 0 = run completed, 1 = run completed with issues or failed
mid-loop, 2 = the asset could not be loaded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, cmd, args[0], steps, dt, logPath, session)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 16, "number of simulation steps")
	cmd.Flags().Float64Var(&dt, "dt", 0.0625, "virtual-time increment per step")
	cmd.Flags().StringVar(&logPath, "log", "", "SQLite run-log path (optional)")
	cmd.Flags().StringVar(&session, "session", "", "pin the session token (defaults to a fresh UUIDv7)")

	return cmd
}

func runRun(opts *RootOptions, cmd *cobra.Command, source string, steps int, dt float64, logPath, session string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	orcOpts := []harness.Option{harness.WithLogger(commandLogger(cmd, opts))}
	if session != "" {
		orcOpts = append(orcOpts, harness.WithTokenGenerator(harness.NewFixedTokenGenerator(session)))
	}

	orc := harness.New(source, orcOpts...)
	result, runErr := orc.Run(cmd.Context(), steps, dt)
	if runErr != nil && result == nil {
		// Nothing ran: bad arguments or the asset failed to load.
		var code string
		switch {
		case harness.IsArgumentError(runErr):
			code = ErrCodeArgument
		case config.IsLoadError(runErr):
			code = ErrCodeLoad
		default:
			code = ErrCodeRun
		}
		_ = formatter.Error(code, runErr.Error(), nil)
		return WrapExitError(ExitCommandError, "run failed", runErr)
	}

	if logPath != "" {
		if err := recordRun(cmd, result.AssetName, source, logPath, result); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "record run", err)
		}
		formatter.VerboseLog("run %s recorded in %s", result.SessionToken, logPath)
	}

	report := RunReport{
		SessionToken: result.SessionToken,
		Asset:        result.AssetName,
		Steps:        result.Steps,
		Dt:           result.Dt,
		State:        result.State,
		Issues:       result.Issues,
		Updates:      len(result.Trace),
	}

	if formatter.Format == "json" {
		// A mid-loop abort gets the error envelope so json consumers can
		// detect it from stdout; the partial report rides in the details.
		if runErr != nil {
			if err := formatter.Error(ErrCodeRun, runErr.Error(), report); err != nil {
				return err
			}
		} else if err := formatter.SuccessJSON(report); err != nil {
			return err
		}
	} else {
		printRunReport(formatter, report, runErr)
	}

	if runErr != nil {
		return WrapExitError(ExitFailure, "run aborted mid-loop", runErr)
	}
	if len(result.Issues) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("run completed with %d issue(s)", len(result.Issues)))
	}
	return nil
}

// recordRun loads the asset name and stores the run outcome.
func recordRun(cmd *cobra.Command, assetName, source, logPath string, result *harness.Result) error {
	store, err := runlog.Open(logPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.WriteRun(cmd.Context(), runlog.NewRecord(assetName, source, result))
}

func printRunReport(formatter *OutputFormatter, report RunReport, runErr error) {
	status := "✓"
	if runErr != nil || len(report.Issues) > 0 {
		status = "✗"
	}
	fmt.Fprintf(formatter.Writer, "%s %s: %d step(s), dt=%v, %d update(s)\n",
		status, report.Asset, report.Steps, report.Dt, report.Updates)
	fmt.Fprintf(formatter.Writer, "  session: %s\n", report.SessionToken)

	if len(report.State) > 0 {
		fmt.Fprintln(formatter.Writer, "  final state:")
		keys := make([]string, 0, len(report.State))
		for k := range report.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(formatter.Writer, "    %s = %v\n", k, report.State[k])
		}
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(formatter.Writer, "  issue: %s\n", issue)
	}
	if runErr != nil {
		fmt.Fprintf(formatter.Writer, "  aborted: %v\n", runErr)
	}
}
