package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/queryir"
	"github.com/roach88/prodrule/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	DB    string   // database path
	Plan  string   // plan hash filter
	Where []string // filter terms, all must hold
	Limit int      // max runs (0 = all)
}

// RunView is the printed form of a stored run.
type RunView struct {
	ID         string      `json:"id"`
	Plan       string      `json:"plan"`
	Seq        int64       `json:"seq"`
	Input      ir.Bindings `json:"input"`
	Output     ir.Bindings `json:"output"`
	OutputHash string      `json:"output_hash"`
	ErrorCode  string      `json:"error_code,omitempty"`
}

func runView(r store.Run) RunView {
	return RunView{
		ID:         r.ID,
		Plan:       r.PlanHash,
		Seq:        r.Seq,
		Input:      r.Input,
		Output:     r.Output,
		OutputHash: r.OutputHash,
		ErrorCode:  r.ErrorCode,
	}
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and query recorded runs",
		Long: `List recorded runs in log order.

Filters (--where, repeatable, all must hold):
  in.X=a       the input bound X to a
  out.Z=c      the output reported Z = c
  out.Z=unset  the output reported Z as unset
  fired=R      rule R fired (a rule name, R<n> label or index; names
               and labels need --plan)

Examples:
  prodrule runs --db runs.db
  prodrule runs --db runs.db --plan 3f2a... --where out.Z=unset
  prodrule runs --db runs.db --where in.X=a --where fired=0 --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "only runs of this plan hash")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter term (in.X=a, out.Z=c, out.Z=unset, fired=R)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := requireDB(f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	filter, err := parseWhere(ctx, st, opts.Plan, opts.Where)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}

	runs, err := st.FindRuns(ctx, queryir.Runs{Plan: opts.Plan, Filter: filter, Limit: opts.Limit})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	views := make([]RunView, len(runs))
	for i, r := range runs {
		views[i] = runView(r)
	}

	if f.JSON() {
		return f.Success(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(f.Writer, "No runs found.")
		return nil
	}
	for _, v := range views {
		status := "ok"
		if v.ErrorCode != "" {
			status = v.ErrorCode
		}
		fmt.Fprintf(f.Writer, "%4d  %s  %s  %s\n", v.Seq, v.ID, status, bindingsInline(v.Input))
	}
	return nil
}

// parseWhere turns --where terms into a predicate. No terms means no
// filter.
func parseWhere(ctx context.Context, st *store.Store, plan string, terms []string) (queryir.Predicate, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var labels []string
	preds := make([]queryir.Predicate, 0, len(terms))
	for _, term := range terms {
		key, value, ok := strings.Cut(term, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("invalid --where %q", term)
		}
		switch {
		case strings.HasPrefix(key, "in."):
			preds = append(preds, queryir.InputEquals{Var: strings.TrimPrefix(key, "in."), Value: value})
		case strings.HasPrefix(key, "out.") && value == "unset":
			preds = append(preds, queryir.OutputUnset{Var: strings.TrimPrefix(key, "out.")})
		case strings.HasPrefix(key, "out."):
			preds = append(preds, queryir.OutputEquals{Var: strings.TrimPrefix(key, "out."), Value: value})
		case key == "fired":
			if idx, err := strconv.Atoi(value); err == nil {
				preds = append(preds, queryir.RuleFired{Rule: idx})
				continue
			}
			if plan == "" {
				return nil, fmt.Errorf("fired=%s needs --plan to resolve rule names", value)
			}
			if labels == nil {
				rec, err := st.ReadPlan(ctx, plan)
				if err != nil {
					return nil, fmt.Errorf("plan %s: %w", plan, err)
				}
				labels = ruleLabels(rec.Rules)
			}
			idx := slices.Index(labels, value)
			if idx < 0 {
				return nil, fmt.Errorf("unknown rule %q", value)
			}
			preds = append(preds, queryir.RuleFired{Rule: idx})
		default:
			return nil, fmt.Errorf("invalid --where %q", term)
		}
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return queryir.And{Predicates: preds}, nil
}

// bindingsInline renders bindings as "X=a Y=(unset)" in key order.
func bindingsInline(b ir.Bindings) string {
	parts := make([]string, 0, len(b))
	for _, k := range b.SortedKeys() {
		parts = append(parts, k+"="+b.Get(k).String())
	}
	return strings.Join(parts, " ")
}
