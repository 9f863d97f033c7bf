package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/prodrule/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidIdentifier = "E101" // variable or value is not an identifier
	ErrDuplicateVariable = "E102" // variable declared twice
	ErrDuplicateValue    = "E103" // value listed twice in one domain
	ErrUnknownVariable   = "E104" // rule mentions an undeclared variable
	ErrValueNotInDomain  = "E105" // rule uses a value outside the variable's domain
	ErrEmptyThen         = "E106" // rule assigns nothing
	ErrDuplicateRuleName = "E107" // two rules share a name
)

// identifierPattern is the identifier grammar for variables and values.
var identifierPattern = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)

// IsIdentifier reports whether s is a valid variable or value name.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// ValidationError represents a project validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a project and returns every problem found (does not
// fail fast). The engine itself never checks domains; this is where they
// are enforced.
func Validate(p *ir.Project) []ValidationError {
	var errs []ValidationError

	domains := make(map[string]map[string]bool, len(p.Variables))
	for i, v := range p.Variables {
		field := fmt.Sprintf("variables[%d]", i)

		// E101
		if !IsIdentifier(v.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid identifier %q", v.Name),
				Code:    ErrInvalidIdentifier,
			})
		}

		// E102
		if _, dup := domains[v.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate variable %q", v.Name),
				Code:    ErrDuplicateVariable,
			})
			continue
		}

		values := make(map[string]bool, len(v.Domain))
		for j, val := range v.Domain {
			valField := fmt.Sprintf("%s.domain[%d]", field, j)
			if !IsIdentifier(val) {
				errs = append(errs, ValidationError{
					Field:   valField,
					Message: fmt.Sprintf("invalid identifier %q", val),
					Code:    ErrInvalidIdentifier,
				})
			}
			// E103
			if values[val] {
				errs = append(errs, ValidationError{
					Field:   valField,
					Message: fmt.Sprintf("duplicate value %q for variable %q", val, v.Name),
					Code:    ErrDuplicateValue,
				})
			}
			values[val] = true
		}
		domains[v.Name] = values
	}

	ruleNames := make(map[string]int)
	for i, r := range p.Rules {
		field := fmt.Sprintf("rules[%d]", i)

		// E107
		if r.Name != "" {
			if first, dup := ruleNames[r.Name]; dup {
				errs = append(errs, ValidationError{
					Field:   field + ".name",
					Message: fmt.Sprintf("duplicate rule name %q (first used by rules[%d])", r.Name, first),
					Code:    ErrDuplicateRuleName,
				})
			} else {
				ruleNames[r.Name] = i
			}
		}

		// E106
		if len(r.Then) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".then",
				Message: fmt.Sprintf("rule %s assigns no variable", r.Label(i)),
				Code:    ErrEmptyThen,
			})
		}

		errs = append(errs, validatePairs(r.If, field+".when", domains)...)
		errs = append(errs, validatePairs(r.Then, field+".then", domains)...)
	}

	return errs
}

func validatePairs(pairs []ir.Pair, field string, domains map[string]map[string]bool) []ValidationError {
	var errs []ValidationError
	for i, p := range pairs {
		pairField := fmt.Sprintf("%s[%d]", field, i)
		domain, ok := domains[p.Var]
		// E104
		if !ok {
			errs = append(errs, ValidationError{
				Field:   pairField,
				Message: fmt.Sprintf("unknown variable %q", p.Var),
				Code:    ErrUnknownVariable,
			})
			continue
		}
		// E105
		if !domain[p.Value] {
			errs = append(errs, ValidationError{
				Field:   pairField,
				Message: fmt.Sprintf("value %q is not in the domain of %q", p.Value, p.Var),
				Code:    ErrValueNotInDomain,
			})
		}
	}
	return errs
}
