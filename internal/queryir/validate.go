package queryir

import (
	"fmt"
	"regexp"
)

var identifier = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	Problems []string
}

// Validate checks a query without touching any backend: variable names
// must be identifiers, indices non-negative, and each predicate must belong
// to the query it filters (run predicates under Runs, firing predicates
// under Firings).
func Validate(q Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(q)
	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Runs:
		v.validateRuns(query)
	case *Runs:
		v.validateRuns(*query)
	case Firings:
		v.validateFirings(query)
	case *Firings:
		v.validateFirings(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateRuns(r Runs) {
	if r.Limit < 0 {
		v.addProblem("negative limit %d", r.Limit)
	}
	v.validatePredicate(r.Filter, true)
}

func (v *validator) validateFirings(f Firings) {
	if f.Run == "" {
		v.addProblem("firings query needs a run id")
	}
	v.validatePredicate(f.Filter, false)
}

func (v *validator) checkVar(name string) {
	if !identifier.MatchString(name) {
		v.addProblem("invalid variable name %q", name)
	}
}

func (v *validator) validatePredicate(p Predicate, runs bool) {
	wrong := func() {
		if runs {
			v.addProblem("%T filters firings, not runs", p)
		} else {
			v.addProblem("%T filters runs, not firings", p)
		}
	}

	switch pred := p.(type) {
	case nil:
	case InputEquals:
		v.checkVar(pred.Var)
		if !runs {
			wrong()
		}
	case OutputEquals:
		v.checkVar(pred.Var)
		if !runs {
			wrong()
		}
	case OutputUnset:
		v.checkVar(pred.Var)
		if !runs {
			wrong()
		}
	case RuleFired:
		if pred.Rule < 0 {
			v.addProblem("negative rule index %d", pred.Rule)
		}
		if !runs {
			wrong()
		}
	case FiredOnly:
		if runs {
			wrong()
		}
	case LevelEquals:
		if pred.Level < 0 {
			v.addProblem("negative level %d", pred.Level)
		}
		if runs {
			wrong()
		}
	case RuleEquals:
		if pred.Rule < 0 {
			v.addProblem("negative rule index %d", pred.Rule)
		}
		if runs {
			wrong()
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, runs)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, runs)
		}
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}
