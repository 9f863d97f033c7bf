package engine

import "github.com/roach88/prodrule/internal/ir"

// Evaluate runs plan over input and returns the projection of the final
// working state onto outputs, in outputs order. Outputs no fired rule
// assigned are reported as explicit unset entries.
//
// Every input of the plan must be set in input; otherwise a
// MissingInputBindingError is returned before any rule is examined.
// Neither plan nor input is modified.
func Evaluate(plan *Plan, outputs []string, input ir.Bindings, obs Observer) (ir.Bindings, error) {
	working, err := run(plan, input, obs)
	if err != nil {
		return nil, err
	}
	return working.Project(outputs), nil
}

// run checks the required inputs, then makes one pass over the levels.
// It returns the full working state.
func run(plan *Plan, input ir.Bindings, obs Observer) (ir.Bindings, error) {
	if err := checkInputs(plan.Inputs, input); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = NopObserver{}
	}

	working := input.Clone()
	for level, rules := range plan.Levels {
		for _, idx := range rules {
			r := plan.Rules[idx]
			if failed, ok := holds(r, working); !ok {
				obs.RuleSkipped(level, idx, failed)
				continue
			}
			for _, p := range r.Then {
				working.Set(p.Var, p.Value)
			}
			obs.RuleFired(level, idx, r.Then)
		}
	}
	return working, nil
}

func checkInputs(required []string, input ir.Bindings) error {
	var missing []string
	for _, v := range required {
		if !input.Get(v).IsSet() {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return &MissingInputBindingError{Var: missing[0], Missing: missing}
	}
	return nil
}

// holds reports whether every IF pair of r matches working. An unset
// variable never matches. On failure it returns the first failing pair.
func holds(r ir.Rule, working ir.Bindings) (ir.Pair, bool) {
	for _, p := range r.If {
		if !working.Get(p.Var).Matches(p.Value) {
			return p, false
		}
	}
	return ir.Pair{}, true
}
