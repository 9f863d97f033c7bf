package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/engine"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationResult lists everything wrong with a project.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors"`
	Warnings []engine.CycleWarning      `json:"warnings"`
	Plan     string                     `json:"plan_error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Check a project for errors",
		Long: `Validate a project definition without evaluating it.

Reports identifier and domain errors, rules that can never be placed in
a level, and variable dependency cycles (as warnings).

Exit codes:
  0 - Valid (warnings allowed)
  1 - Validation errors found
  2 - Command error

Examples:
  prodrule validate ./demo
  prodrule validate demo.esp --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	proj, err := loadProject(f, path)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Errors:   compiler.Validate(proj),
		Warnings: engine.AnalyzeCycles(proj.Rules),
	}
	if result.Errors == nil {
		result.Errors = []compiler.ValidationError{}
	}
	if result.Warnings == nil {
		result.Warnings = []engine.CycleWarning{}
	}
	if _, err := engine.BuildPlan(proj.VarNames(), proj.Rules); err != nil {
		result.Plan = err.Error()
	}
	result.Valid = len(result.Errors) == 0 && result.Plan == ""

	if f.JSON() {
		if result.Valid {
			return f.Success(result)
		}
		_ = f.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%d validation error(s)", failureCount(result))},
		})
		return NewExitError(ExitFailure, "validation failed")
	}

	w := f.Writer
	for _, e := range result.Errors {
		fmt.Fprintf(w, "\u2717 %s\n", e.Error())
	}
	if result.Plan != "" {
		fmt.Fprintf(w, "\u2717 %s\n", result.Plan)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "! %s\n", warn.Message)
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", failureCount(result)))
	}
	fmt.Fprintf(w, "\u2713 %s is valid (%d variable(s), %d rule(s))\n", path, len(proj.Variables), len(proj.Rules))
	return nil
}

func failureCount(r ValidationResult) int {
	n := len(r.Errors)
	if r.Plan != "" {
		n++
	}
	return n
}
