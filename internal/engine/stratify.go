package engine

import "github.com/roach88/prodrule/internal/ir"

// Plan is the stratified evaluation order for a rule set.
//
// Levels hold indices into Rules. Every rule index appears in exactly one
// level and indices ascend within a level. A plan is immutable once built
// and may be shared by concurrent evaluations.
type Plan struct {
	Rules  []ir.Rule `json:"rules"`
	Levels [][]int   `json:"levels"`
	Inputs []string  `json:"inputs"`
}

// Len returns the number of levels.
func (p *Plan) Len() int {
	return len(p.Levels)
}

// Level returns the rules of one level in evaluation order.
func (p *Plan) Level(level int) []ir.Rule {
	out := make([]ir.Rule, len(p.Levels[level]))
	for i, idx := range p.Levels[level] {
		out[i] = p.Rules[idx]
	}
	return out
}

// LevelOf returns the level holding rule idx, or -1.
func (p *Plan) LevelOf(idx int) int {
	for l, level := range p.Levels {
		for _, r := range level {
			if r == idx {
				return l
			}
		}
	}
	return -1
}

// Stratify places every rule in the earliest level at which all of its IF
// variables are defined. A variable is defined at level i when it is an
// input or is written by a rule in a level below i.
//
// Each level is built by a stable partition of the pending rules into those
// that stay and those lifted to the next level. Level 0 always exists, even
// for an empty rule set. Construction stops with an
// UnresolvableDependencyError when a level keeps no rule while some are
// still pending, or when the level count would exceed len(rules)+1.
func Stratify(rules []ir.Rule, inputs []string, obs Observer) (*Plan, error) {
	if obs == nil {
		obs = NopObserver{}
	}

	defined := make(map[string]bool, len(inputs))
	for _, v := range inputs {
		defined[v] = true
	}

	levelCap := len(rules) + 1
	pending := make([]int, len(rules))
	for i := range rules {
		pending[i] = i
	}

	plan := &Plan{
		Rules:  rules,
		Levels: [][]int{},
		Inputs: append([]string{}, inputs...),
	}

	for level := 0; ; level++ {
		stays := []int{}
		var lifted []int
		for _, idx := range pending {
			if v, ok := firstUndefined(rules[idx], defined); ok {
				obs.RuleLifted(idx, level, v)
				lifted = append(lifted, idx)
				continue
			}
			stays = append(stays, idx)
		}

		if len(stays) == 0 && len(lifted) > 0 {
			return nil, unresolvable(rules, lifted, defined, levelCap)
		}

		plan.Levels = append(plan.Levels, stays)
		for _, idx := range stays {
			for _, p := range rules[idx].Then {
				defined[p.Var] = true
			}
		}
		obs.LevelClosed(level, stays)

		if len(lifted) == 0 {
			return plan, nil
		}
		if len(plan.Levels) >= levelCap {
			return nil, unresolvable(rules, lifted, defined, levelCap)
		}
		pending = lifted
	}
}

// firstUndefined returns the first IF variable of r not yet defined.
func firstUndefined(r ir.Rule, defined map[string]bool) (string, bool) {
	for _, p := range r.If {
		if !defined[p.Var] {
			return p.Var, true
		}
	}
	return "", false
}

func unresolvable(rules []ir.Rule, pending []int, defined map[string]bool, levelCap int) *UnresolvableDependencyError {
	unmet := make([]UnmetRule, 0, len(pending))
	for _, idx := range pending {
		var vars []string
		for _, v := range rules[idx].Reads() {
			if !defined[v] {
				vars = append(vars, v)
			}
		}
		unmet = append(unmet, UnmetRule{
			Index: idx,
			Label: rules[idx].Label(idx),
			Vars:  vars,
		})
	}

	cycles := [][]string{}
	for _, w := range analyzeCycles(rules, pending) {
		cycles = append(cycles, w.Path)
	}

	return &UnresolvableDependencyError{
		Unmet:    unmet,
		Cycles:   cycles,
		LevelCap: levelCap,
	}
}
