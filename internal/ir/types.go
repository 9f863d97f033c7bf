package ir

import "fmt"

// Pair binds a variable to a value.
//
// Inside an IF block a Pair is an equality test (Var == Value).
// Inside a THEN block it is an assignment (Var := Value).
type Pair struct {
	Var   string `json:"var"`
	Value string `json:"value"`
}

// Rule is a production rule: a conjunction of equality tests guarding an
// ordered list of assignments. An empty If block is vacuously true.
type Rule struct {
	Name string `json:"name,omitempty"` // Optional label used in diagnostics
	If   []Pair `json:"if"`
	Then []Pair `json:"then"`
}

// Label returns the rule name, or "R<n>" (1-based) when the rule is unnamed.
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("R%d", index+1)
}

// Reads returns the IF-block variables in first-occurrence order.
func (r Rule) Reads() []string {
	return uniqueVars(r.If)
}

// Writes returns the THEN-block variables in first-occurrence order.
func (r Rule) Writes() []string {
	return uniqueVars(r.Then)
}

func uniqueVars(pairs []Pair) []string {
	seen := make(map[string]bool, len(pairs))
	vars := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if seen[p.Var] {
			continue
		}
		seen[p.Var] = true
		vars = append(vars, p.Var)
	}
	return vars
}

// Variable is a declared variable with its ordered domain of permitted values.
// Domain membership is validated by the compiler, never by the engine.
type Variable struct {
	Name   string   `json:"name"`
	Domain []string `json:"domain"`
}

// Project is a complete rule-set definition: declared variables and rules,
// both in declaration order.
type Project struct {
	Name      string     `json:"name"`
	Variables []Variable `json:"variables"`
	Rules     []Rule     `json:"rules"`
}

// VarNames returns the declared variable names in declaration order.
func (p *Project) VarNames() []string {
	names := make([]string, len(p.Variables))
	for i, v := range p.Variables {
		names[i] = v.Name
	}
	return names
}

// Variable looks up a declared variable by name.
func (p *Project) Variable(name string) (Variable, bool) {
	for _, v := range p.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}
