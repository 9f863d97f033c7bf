package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/store"
)

// ReplayResult compares a recorded run with a fresh evaluation.
type ReplayResult struct {
	RunID string `json:"run_id"`

	RecordedHash string `json:"recorded_hash"`
	ReplayedHash string `json:"replayed_hash"`

	// FiringsMatch is true when the fresh trace equals the recorded one
	// entry for entry.
	FiringsMatch bool `json:"firings_match"`

	// Output is the fresh output projection (empty for failed runs).
	Output ir.Bindings `json:"output"`
}

// Identical reports whether the replay reproduced the run exactly.
func (r ReplayResult) Identical() bool {
	return r.RecordedHash == r.ReplayedHash && r.FiringsMatch
}

// Replay re-evaluates a recorded run. The run must belong to this
// runner's plan.
func (r *Runner) Replay(ctx context.Context, runID string) (ReplayResult, error) {
	run, err := r.store.ReadRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	if run.PlanHash != r.planHash {
		return ReplayResult{}, fmt.Errorf("replay: run %s belongs to plan %s, not %s", runID, run.PlanHash, r.planHash)
	}

	recorded, err := r.store.ReadFirings(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	rec := engine.NewRecorder()
	output, evalErr := r.evaluate(run.Input, rec)
	if evalErr != nil {
		output = ir.Bindings{}
	}
	hash, err := ir.BindingHash(output)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: hash output: %w", err)
	}

	res := ReplayResult{
		RunID:        runID,
		RecordedHash: run.OutputHash,
		ReplayedHash: hash,
		FiringsMatch: sameFirings(recorded, firingsFrom(rec.Events())),
		Output:       output,
	}
	if evalErr != nil && errorCode(evalErr) != run.ErrorCode {
		res.FiringsMatch = false
	}

	r.log(ctx).LogAttrs(ctx, slog.LevelDebug, "run replayed",
		slog.String("run_id", runID),
		slog.Bool("identical", res.Identical()),
	)
	return res, nil
}

// ReplayAll replays every run of this runner's plan in log order.
func (r *Runner) ReplayAll(ctx context.Context) ([]ReplayResult, error) {
	runs, err := r.store.ListRuns(ctx, r.planHash)
	if err != nil {
		return nil, fmt.Errorf("replay all: %w", err)
	}

	results := make([]ReplayResult, 0, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.Replay(ctx, run.ID)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// sameFirings compares traces ignoring run id and ordinal bookkeeping.
func sameFirings(recorded, fresh []store.Firing) bool {
	if len(recorded) != len(fresh) {
		return false
	}
	for i := range recorded {
		a, b := recorded[i], fresh[i]
		if a.Level != b.Level || a.Rule != b.Rule || a.Fired != b.Fired || len(a.Pairs) != len(b.Pairs) {
			return false
		}
		for j := range a.Pairs {
			if a.Pairs[j] != b.Pairs[j] {
				return false
			}
		}
	}
	return true
}
