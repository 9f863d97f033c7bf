package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/ctxlog"
	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/runner"
	"github.com/roach88/prodrule/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	DB    string // database path
	RunID string // replay a single run
	Plan  string // replay every run of one plan
}

// ReplaySummary is the outcome of a replay.
type ReplaySummary struct {
	Results   []runner.ReplayResult `json:"results"`
	Identical int                   `json:"identical"`
	Diverged  int                   `json:"diverged"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-evaluate recorded runs and compare results",
		Long: `Replay recorded runs against the plan stored with them.

Each run is evaluated again from its recorded input. A replay is
identical when the output hash and the firing trace both match the
recording.

Exit codes:
  0 - Every replay was identical
  1 - At least one replay diverged
  2 - Command error (database not found, run not found)

Examples:
  prodrule replay --db runs.db
  prodrule replay --db runs.db --run 0190a5b2-...
  prodrule replay --db runs.db --plan 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a single run")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "replay every run of this plan hash")
	_ = cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("run", "plan")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := requireDB(f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	byPlan, order, err := runsToReplay(ctx, st, opts)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	summary := ReplaySummary{Results: []runner.ReplayResult{}}
	for _, hash := range order {
		r, err := runnerForPlan(ctx, st, hash)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
		}
		for _, id := range byPlan[hash] {
			res, err := r.Replay(ctx, id)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
			}
			summary.Results = append(summary.Results, res)
			if res.Identical() {
				summary.Identical++
			} else {
				summary.Diverged++
			}
		}
	}

	if f.JSON() {
		if err := f.Success(summary); err != nil {
			return err
		}
	} else {
		for _, res := range summary.Results {
			if res.Identical() {
				fmt.Fprintf(f.Writer, "\u2713 %s\n", res.RunID)
				continue
			}
			fmt.Fprintf(f.Writer, "\u2717 %s\n", res.RunID)
			if res.RecordedHash != res.ReplayedHash {
				fmt.Fprintf(f.Writer, "  output hash %s, replayed %s\n", res.RecordedHash, res.ReplayedHash)
			}
			if !res.FiringsMatch {
				fmt.Fprintln(f.Writer, "  firing trace differs")
			}
		}
		fmt.Fprintf(f.Writer, "\n%d identical, %d diverged\n", summary.Identical, summary.Diverged)
	}

	if summary.Diverged > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d replay(s) diverged", summary.Diverged))
	}
	return nil
}

// runsToReplay groups the selected run ids by plan, in log order.
func runsToReplay(ctx context.Context, st *store.Store, opts *ReplayOptions) (map[string][]string, []string, error) {
	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return nil, nil, fmt.Errorf("run %s: %w", opts.RunID, err)
		}
		runs = []store.Run{run}
	} else {
		var err error
		runs, err = st.ListRuns(ctx, opts.Plan)
		if err != nil {
			return nil, nil, err
		}
	}

	byPlan := make(map[string][]string)
	var order []string
	for _, run := range runs {
		if _, seen := byPlan[run.PlanHash]; !seen {
			order = append(order, run.PlanHash)
		}
		byPlan[run.PlanHash] = append(byPlan[run.PlanHash], run.ID)
	}
	return byPlan, order, nil
}

// runnerForPlan rebuilds the interpreter from a stored plan record.
func runnerForPlan(ctx context.Context, st *store.Store, hash string) (*runner.Runner, error) {
	rec, err := st.ReadPlan(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", hash, err)
	}
	in, err := engine.BuildPlan(rec.Variables, rec.Rules, engine.WithLogger(ctxlog.FromContext(ctx)))
	if err != nil {
		return nil, fmt.Errorf("rebuilding plan %s: %w", hash, err)
	}
	return runner.New(st, in, hash, runner.WithLogger(ctxlog.FromContext(ctx))), nil
}
