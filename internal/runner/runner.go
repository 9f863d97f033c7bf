package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/prodrule/internal/ctxlog"
	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/store"
)

// Runner records evaluations of one plan.
type Runner struct {
	store    *store.Store
	interp   *engine.Interpreter
	planHash string
	ids      RunIDGenerator
	logger   *slog.Logger

	mu    sync.Mutex // serializes seq assignment with the write
	clock Clock
}

// Option configures a Runner.
type Option func(*Runner)

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(r *Runner) {
		if gen != nil {
			r.ids = gen
		}
	}
}

// WithClock replaces the logical clock. Without it the runner resumes
// after the store's last seq on first use.
func WithClock(c Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger. Without it the runner logs to the logger
// carried by the context.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a runner for the plan identified by planHash. The plan must
// already be in the store (see Register).
func New(st *store.Store, interp *engine.Interpreter, planHash string, opts ...Option) *Runner {
	r := &Runner{
		store:    st,
		interp:   interp,
		planHash: planHash,
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PlanHash returns the hash of the plan this runner records.
func (r *Runner) PlanHash() string {
	return r.planHash
}

// Register writes the interpreter's plan to the store and returns its hash.
// Registering the same rule set twice is a no-op.
func Register(ctx context.Context, st *store.Store, name string, interp *engine.Interpreter) (string, error) {
	rec, err := PlanRecordFor(name, interp)
	if err != nil {
		return "", err
	}
	if err := st.WritePlan(ctx, rec); err != nil {
		return "", fmt.Errorf("register plan: %w", err)
	}
	return rec.Hash, nil
}

// PlanRecordFor builds the stored form of an interpreter's plan.
func PlanRecordFor(name string, interp *engine.Interpreter) (store.PlanRecord, error) {
	hash, err := ir.RuleSetHash(interp.Declared(), interp.Rules())
	if err != nil {
		return store.PlanRecord{}, fmt.Errorf("hash rule set: %w", err)
	}
	return store.PlanRecord{
		Hash:          hash,
		Name:          name,
		Variables:     interp.Declared(),
		Rules:         interp.Rules(),
		Levels:        interp.Plan().Levels,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, nil
}

func (r *Runner) log(ctx context.Context) *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return ctxlog.FromContext(ctx)
}

// Run evaluates input and records the run with its firing trace.
//
// A failed evaluation is recorded too, with its error code, and the
// engine error is returned alongside the stored run. Storage failures are
// returned wrapped, and nothing is recorded.
func (r *Runner) Run(ctx context.Context, input ir.Bindings) (store.Run, error) {
	rec := engine.NewRecorder()
	output, evalErr := r.evaluate(input, rec)

	run := store.Run{
		PlanHash: r.planHash,
		Input:    input.Clone(),
		Output:   output,
	}
	if evalErr != nil {
		run.ErrorCode = errorCode(evalErr)
		run.Output = ir.Bindings{}
	}
	hash, err := ir.BindingHash(run.Output)
	if err != nil {
		return store.Run{}, fmt.Errorf("hash output: %w", err)
	}
	run.OutputHash = hash

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clock == nil {
		last, err := r.store.GetLastSeq(ctx)
		if err != nil {
			return store.Run{}, fmt.Errorf("resume clock: %w", err)
		}
		r.clock = NewLogicalClockAt(last)
	}
	run.ID = r.ids.Generate()
	run.Seq = r.clock.Next()

	if err := r.store.WriteRun(ctx, run, firingsFrom(rec.Events())); err != nil {
		return store.Run{}, fmt.Errorf("record run: %w", err)
	}

	r.log(ctx).LogAttrs(ctx, slog.LevelDebug, "run recorded",
		slog.String("run_id", run.ID),
		slog.Int64("seq", run.Seq),
		slog.String("output_hash", run.OutputHash),
		slog.String("error_code", run.ErrorCode),
	)
	return run, evalErr
}

// evaluate runs the interpreter and projects the full state onto the
// outputs.
func (r *Runner) evaluate(input ir.Bindings, obs engine.Observer) (ir.Bindings, error) {
	state, err := r.interp.EvaluateState(input, obs)
	if err != nil {
		return nil, err
	}
	return state.Project(r.interp.Outputs()), nil
}

// errorCode extracts the engine error code, or "ERROR" for anything else.
func errorCode(err error) string {
	var coded interface{ Code() engine.ErrorCode }
	if errors.As(err, &coded) {
		return string(coded.Code())
	}
	return "ERROR"
}

// firingsFrom converts evaluation trace events to stored firings.
// Plan-time events are not part of a run.
func firingsFrom(events []engine.TraceEvent) []store.Firing {
	firings := make([]store.Firing, 0, len(events))
	for _, ev := range events {
		switch ev.Kind {
		case engine.EventFired:
			firings = append(firings, store.Firing{Level: ev.Level, Rule: ev.Rule, Fired: true, Pairs: ev.Pairs})
		case engine.EventSkipped:
			firings = append(firings, store.Firing{
				Level: ev.Level,
				Rule:  ev.Rule,
				Pairs: []ir.Pair{{Var: ev.Var, Value: ev.Value}},
			})
		}
	}
	return firings
}
