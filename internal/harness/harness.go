package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/project"
	"github.com/roach88/prodrule/internal/runner"
	"github.com/roach88/prodrule/internal/store"
	"github.com/roach88/prodrule/internal/testutil"
)

// Harness runs the cases of one scenario against one plan.
type Harness struct {
	store  *store.Store
	interp *engine.Interpreter
	runner *runner.Runner
	labels []string
}

// Run executes a scenario and returns the result.
//
// Failed expectations are reported in the result. The returned error is
// reserved for scenarios that cannot be executed at all: an unreadable
// project or a store failure.
//
// Execution flow:
//  1. Load the project and check it with compiler.Validate
//  2. Build the plan, recording plan events
//  3. Check classification and level expectations
//  4. Run every case through a runner on a fresh in-memory store
func Run(scenario *Scenario) (*Result, error) {
	proj, err := project.Load(scenario.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	result := NewResult()
	for _, verr := range compiler.Validate(proj) {
		result.AddError(verr.Error())
	}

	labels := make([]string, len(proj.Rules))
	for i, r := range proj.Rules {
		labels[i] = r.Label(i)
	}

	rec := engine.NewRecorder()
	interp, planErr := engine.BuildPlan(proj.VarNames(), proj.Rules, engine.WithObserver(rec))
	for _, ev := range rec.Events() {
		result.addTrace(planEvent(ev, labels))
	}
	rec.Reset()

	if planErr != nil {
		code := "ERROR"
		var unresolvable *engine.UnresolvableDependencyError
		if errors.As(planErr, &unresolvable) {
			code = string(unresolvable.Code())
		}
		result.addTrace(TraceEvent{Kind: KindPlanError, Detail: code})
		if scenario.ExpectPlanError != ErrorUnresolvable || unresolvable == nil {
			result.AddError(fmt.Sprintf("plan: %v", planErr))
		}
		return result, nil
	}
	if scenario.ExpectPlanError != "" {
		result.AddError(fmt.Sprintf("plan: expected %s error, plan built with %d level(s)", scenario.ExpectPlanError, interp.Plan().Len()))
		return result, nil
	}

	checkClassification(result, scenario, interp.Classification())
	checkLevels(result, scenario.ExpectLevels, interp.Plan(), labels)

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	hash, err := runner.Register(ctx, st, proj.Name, interp)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:  st,
		interp: interp,
		labels: labels,
		runner: runner.New(st, interp, hash,
			runner.WithClock(testutil.NewReplayClock()),
			runner.WithRunIDGenerator(testutil.NewSequentialIDGenerator("run")),
			runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		),
	}

	for _, c := range scenario.Cases {
		if err := h.runCase(ctx, c, result); err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
	}
	return result, nil
}

// runCase records one evaluation and checks it.
func (h *Harness) runCase(ctx context.Context, c Case, result *Result) error {
	run, evalErr := h.runner.Run(ctx, caseInput(c.Input))
	if evalErr != nil && run.ID == "" {
		return evalErr
	}

	firings, err := h.store.ReadFirings(ctx, run.ID)
	if err != nil {
		return err
	}

	var fired []string
	for _, f := range firings {
		ev := TraceEvent{Case: c.Name, Seq: run.Seq, Level: f.Level, Rule: h.labels[f.Rule]}
		if f.Fired {
			ev.Kind = KindFired
			ev.Detail = joinPairs(f.Pairs, ir.Pair.Assignment)
			fired = append(fired, ev.Rule)
		} else {
			ev.Kind = KindSkipped
			ev.Detail = joinPairs(f.Pairs, ir.Pair.String)
		}
		result.addTrace(ev)
	}

	if run.Failed() {
		result.addTrace(TraceEvent{Case: c.Name, Seq: run.Seq, Kind: KindError, Detail: run.ErrorCode})
	} else {
		lines := ir.ResultLines(run.Output, h.interp.Outputs())
		result.addTrace(TraceEvent{Case: c.Name, Seq: run.Seq, Kind: KindOutput, Detail: strings.Join(lines, "; ")})
	}

	for _, msg := range checkCase(c, run.Output, evalErr, fired, h.interp.Outputs()) {
		result.AddError(fmt.Sprintf("case %s: %s", c.Name, msg))
	}
	return nil
}

// caseInput converts YAML input to bindings; null becomes unset.
func caseInput(in map[string]*string) ir.Bindings {
	b := make(ir.Bindings, len(in))
	for k, v := range in {
		if v == nil {
			b.Unset(k)
			continue
		}
		b.Set(k, *v)
	}
	return b
}

// planEvent converts a plan-construction event to a trace line.
func planEvent(ev engine.TraceEvent, labels []string) TraceEvent {
	out := TraceEvent{Kind: ev.Kind, Level: ev.Level}
	switch ev.Kind {
	case engine.EventLifted:
		out.Kind = KindLifted
		out.Rule = labels[ev.Rule]
		out.Detail = ev.Var
	case engine.EventLevelClosed:
		out.Kind = KindLevelClosed
		names := make([]string, len(ev.Rules))
		for i, idx := range ev.Rules {
			names[i] = labels[idx]
		}
		out.Detail = strings.Join(names, ",")
	}
	return out
}

func joinPairs(pairs []ir.Pair, render func(ir.Pair) string) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = render(p)
	}
	return strings.Join(parts, ", ")
}
