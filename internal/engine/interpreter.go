package engine

import (
	"log/slog"

	"github.com/roach88/prodrule/internal/ir"
)

// Interpreter is a built plan plus its classification. It is immutable and
// safe for concurrent use.
type Interpreter struct {
	declared []string
	class    Classification
	plan     *Plan
	observer Observer
}

// Option configures BuildPlan.
type Option func(*Interpreter)

// WithObserver installs an observer that receives both plan-construction
// events and the events of every Evaluate call. The observer must be safe
// for concurrent use if the interpreter is shared across goroutines.
func WithObserver(obs Observer) Option {
	return func(in *Interpreter) {
		if obs != nil {
			in.observer = obs
		}
	}
}

// WithLogger is shorthand for WithObserver(NewSlogObserver(logger, rules)).
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		if logger != nil {
			in.observer = NewSlogObserver(logger, in.plan.Rules)
		}
	}
}

// BuildPlan classifies declared variables and stratifies rules.
//
// The rules are copied; later changes to the caller's slice do not affect
// the interpreter.
func BuildPlan(declared []string, rules []ir.Rule, opts ...Option) (*Interpreter, error) {
	owned := cloneRules(rules)
	in := &Interpreter{
		declared: append([]string{}, declared...),
		class:    Classify(declared, owned),
		plan:     &Plan{Rules: owned},
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(in)
	}

	plan, err := Stratify(owned, in.class.Inputs, in.observer)
	if err != nil {
		return nil, err
	}
	in.plan = plan
	return in, nil
}

func cloneRules(rules []ir.Rule) []ir.Rule {
	out := make([]ir.Rule, len(rules))
	for i, r := range rules {
		out[i] = ir.Rule{
			Name: r.Name,
			If:   append([]ir.Pair{}, r.If...),
			Then: append([]ir.Pair{}, r.Then...),
		}
	}
	return out
}

// RequiredInputs returns the variables that must be set before evaluation.
func (in *Interpreter) RequiredInputs() []string {
	return append([]string{}, in.class.Inputs...)
}

// Outputs returns the variables Evaluate reports, in declaration order.
func (in *Interpreter) Outputs() []string {
	return append([]string{}, in.class.Outputs...)
}

// Internals returns the variables both read and written by rules.
func (in *Interpreter) Internals() []string {
	return append([]string{}, in.class.Internals...)
}

// Declared returns the declared variables as given to BuildPlan.
func (in *Interpreter) Declared() []string {
	return append([]string{}, in.declared...)
}

// Classification returns a copy of the variable classification.
func (in *Interpreter) Classification() Classification {
	return Classification{
		Inputs:    in.RequiredInputs(),
		Internals: in.Internals(),
		Outputs:   in.Outputs(),
		Unused:    append([]string{}, in.class.Unused...),
	}
}

// Plan returns a copy of the stratified plan.
func (in *Interpreter) Plan() *Plan {
	levels := make([][]int, len(in.plan.Levels))
	for i, l := range in.plan.Levels {
		levels[i] = append([]int{}, l...)
	}
	return &Plan{
		Rules:  cloneRules(in.plan.Rules),
		Levels: levels,
		Inputs: append([]string{}, in.plan.Inputs...),
	}
}

// Rules returns a copy of the rule set.
func (in *Interpreter) Rules() []ir.Rule {
	return cloneRules(in.plan.Rules)
}

// Evaluate computes the outputs for input using the interpreter's observer.
func (in *Interpreter) Evaluate(input ir.Bindings) (ir.Bindings, error) {
	return Evaluate(in.plan, in.class.Outputs, input, in.observer)
}

// EvaluateWith computes the outputs for input, reporting to obs instead
// of the interpreter's observer.
func (in *Interpreter) EvaluateWith(input ir.Bindings, obs Observer) (ir.Bindings, error) {
	return Evaluate(in.plan, in.class.Outputs, input, obs)
}

// EvaluateState returns the complete final working state, including
// internal variables and any extra keys carried over from input.
func (in *Interpreter) EvaluateState(input ir.Bindings, obs Observer) (ir.Bindings, error) {
	if obs == nil {
		obs = in.observer
	}
	return run(in.plan, input, obs)
}
