package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenlab/kaleido/internal/config"
)

// ValidationReport holds validate command results.
type ValidationReport struct {
	Asset  string   `json:"asset"`
	Source string   `json:"source"`
	Issues []string `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <asset.json>",
		Short: "Load an asset and report validation issues",
		Long: `Load a synesthetic asset description, validate it against the asset
schema, and report semantic validation issues (missing fragment code,
missing uniforms, duplicate parameter names).

Exit codes: 0 = valid with no issues, 1 = issues found,
2 = the asset could not be loaded at all.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, source string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	agent := config.New(source, config.WithLogger(commandLogger(cmd, opts)))
	if err := agent.Start(); err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load failed", err)
	}
	defer agent.Stop()

	loaded, err := agent.Asset()
	if err != nil {
		return WrapExitError(ExitCommandError, "read asset", err)
	}
	issues, err := agent.Issues()
	if err != nil {
		return WrapExitError(ExitCommandError, "read issues", err)
	}

	report := ValidationReport{
		Asset:  loaded.Name,
		Source: source,
		Issues: issues,
	}

	if formatter.Format == "json" {
		if err := formatter.SuccessJSON(report); err != nil {
			return err
		}
	} else {
		if len(issues) == 0 {
			fmt.Fprintf(formatter.Writer, "✓ %s: no issues\n", loaded.Name)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s: %d issue(s)\n", loaded.Name, len(issues))
			for _, issue := range issues {
				fmt.Fprintf(formatter.Writer, "  - %s\n", issue)
			}
		}
	}

	if len(issues) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation issue(s)", len(issues)))
	}
	return nil
}
