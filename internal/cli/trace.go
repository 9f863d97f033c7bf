package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/queryir"
	"github.com/roach88/prodrule/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	DB        string // database path
	FiredOnly bool   // only rules that fired
	Level     int    // only this level (-1 = all)
}

// FiringView is the printed form of one firing.
type FiringView struct {
	Ordinal int    `json:"ordinal"`
	Level   int    `json:"level"`
	Rule    string `json:"rule"`
	Fired   bool   `json:"fired"`
	Detail  string `json:"detail"`
}

// TraceView is a run with its firing timeline.
type TraceView struct {
	Run     RunView      `json:"run"`
	Firings []FiringView `json:"firings"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show the firing timeline of a recorded run",
		Long: `Display which rules fired, level by level, during a recorded run.

For a fired rule the assignments are shown; for a skipped rule the IF
pair that failed.

Examples:
  prodrule trace --db runs.db 0190a5b2-...
  prodrule trace --db runs.db 0190a5b2-... --fired-only
  prodrule trace --db runs.db 0190a5b2-... --level 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.FiredOnly, "fired-only", false, "only show rules that fired")
	cmd.Flags().IntVar(&opts.Level, "level", -1, "only show this level")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := requireDB(f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	plan, err := st.ReadPlan(ctx, run.PlanHash)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	var preds []queryir.Predicate
	if opts.FiredOnly {
		preds = append(preds, queryir.FiredOnly{})
	}
	if opts.Level >= 0 {
		preds = append(preds, queryir.LevelEquals{Level: opts.Level})
	}
	q := queryir.Firings{Run: runID}
	if len(preds) > 0 {
		q.Filter = queryir.And{Predicates: preds}
	}
	firings, err := st.FindFirings(ctx, q)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	labels := ruleLabels(plan.Rules)
	view := TraceView{Run: runView(run), Firings: make([]FiringView, len(firings))}
	for i, fr := range firings {
		view.Firings[i] = firingView(fr, labels)
	}

	if f.JSON() {
		return f.Success(view)
	}
	printTrace(f, view, plan)
	return nil
}

func firingView(fr store.Firing, labels []string) FiringView {
	label := fmt.Sprintf("#%d", fr.Rule)
	if fr.Rule >= 0 && fr.Rule < len(labels) {
		label = labels[fr.Rule]
	}
	render := ir.Pair.String
	if fr.Fired {
		render = ir.Pair.Assignment
	}
	parts := make([]string, len(fr.Pairs))
	for i, p := range fr.Pairs {
		parts[i] = render(p)
	}
	return FiringView{Ordinal: fr.Ordinal, Level: fr.Level, Rule: label, Fired: fr.Fired, Detail: strings.Join(parts, ", ")}
}

func printTrace(f *OutputFormatter, view TraceView, plan store.PlanRecord) {
	w := f.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", view.Run.ID, view.Run.Seq)
	fmt.Fprintf(w, "Plan: %s %s\n", plan.Name, plan.Hash)
	fmt.Fprintf(w, "Input: %s\n", bindingsInline(view.Run.Input))
	if view.Run.ErrorCode != "" {
		fmt.Fprintf(w, "Error: %s\n", view.Run.ErrorCode)
		return
	}
	fmt.Fprintln(w)

	level := -1
	for _, fv := range view.Firings {
		if fv.Level != level {
			level = fv.Level
			fmt.Fprintf(w, "Level %d\n", level)
		}
		mark := "skip"
		if fv.Fired {
			mark = "fire"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", mark, fv.Rule, fv.Detail)
	}
	if len(view.Firings) == 0 {
		fmt.Fprintln(w, "No firings.")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Output: %s\n", bindingsInline(view.Run.Output))
}
