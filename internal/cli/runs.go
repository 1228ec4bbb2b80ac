package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lumenlab/kaleido/internal/runlog"
)

// RunsReport holds the runs listing.
type RunsReport struct {
	Runs []runlog.Summary `json:"runs"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		logPath string
		session string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect a run log",
		Long: `List the runs recorded in a SQLite run log, or show one run in full
with --session.

Exit codes: 0 = success, 2 = the log could not be read or the session
token is unknown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, cmd, logPath, session)
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "SQLite run-log path")
	cmd.Flags().StringVar(&session, "session", "", "show one run by session token")
	_ = cmd.MarkFlagRequired("log")

	return cmd
}

func runRuns(opts *RootOptions, cmd *cobra.Command, logPath, session string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := runlog.Open(logPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open run log", err)
	}
	defer store.Close()

	if session != "" {
		return showRun(formatter, cmd, store, session)
	}
	return listRuns(formatter, cmd, store)
}

func listRuns(formatter *OutputFormatter, cmd *cobra.Command, store *runlog.Store) error {
	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(RunsReport{Runs: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs recorded")
		return nil
	}
	for _, sum := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  steps=%d dt=%v updates=%d issues=%d\n",
			sum.SessionToken, sum.AssetName, sum.Steps, sum.Dt, sum.Updates, sum.Issues)
	}
	return nil
}

func showRun(formatter *OutputFormatter, cmd *cobra.Command, store *runlog.Store, session string) error {
	rec, err := store.ReadRun(cmd.Context(), session)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read run", err)
	}

	if formatter.Format == "json" {
		return formatter.SuccessJSON(rec)
	}

	fmt.Fprintf(formatter.Writer, "%s  %s (%s)\n", rec.SessionToken, rec.AssetName, rec.Source)
	fmt.Fprintf(formatter.Writer, "  steps=%d dt=%v\n", rec.Steps, rec.Dt)

	if len(rec.State) > 0 {
		fmt.Fprintln(formatter.Writer, "  final state:")
		keys := make([]string, 0, len(rec.State))
		for k := range rec.State {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(formatter.Writer, "    %s = %v\n", k, rec.State[k])
		}
	}
	for _, issue := range rec.Issues {
		fmt.Fprintf(formatter.Writer, "  issue: %s\n", issue)
	}
	for _, ev := range rec.Trace {
		fmt.Fprintf(formatter.Writer, "  [%d] step=%d t=%v %s -> %v\n",
			ev.Seq, ev.Step, ev.Time, ev.Target, ev.Value)
	}
	return nil
}
