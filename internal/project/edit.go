package project

import (
	"strconv"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/ir"
)

func normalize(id, n int) int {
	if id == -1 {
		return n - 1
	}
	return id
}

// VarID returns the index of the named variable.
func (p *Project) VarID(name string) (int, error) {
	for i, v := range p.vars {
		if v.Name == name {
			return i, nil
		}
	}
	return -1, newError(UnknownVariableName, name)
}

// ValueID returns the index of value within the domain of variable varID.
func (p *Project) ValueID(varID int, value string) (int, error) {
	varID, err := p.checkVar(varID)
	if err != nil {
		return -1, err
	}
	for i, v := range p.vars[varID].Domain {
		if v == value {
			return i, nil
		}
	}
	return -1, newError(UnknownValueName, value)
}

// Domain returns a copy of the domain of variable varID.
func (p *Project) Domain(varID int) ([]string, error) {
	varID, err := p.checkVar(varID)
	if err != nil {
		return nil, err
	}
	return append([]string{}, p.vars[varID].Domain...), nil
}

func (p *Project) checkVar(varID int) (int, error) {
	id := normalize(varID, len(p.vars))
	if id < 0 || id >= len(p.vars) {
		return -1, newError(UnknownVariableID, strconv.Itoa(varID))
	}
	return id, nil
}

func (p *Project) checkValue(varID, valueID int) (int, error) {
	id := normalize(valueID, len(p.vars[varID].Domain))
	if id < 0 || id >= len(p.vars[varID].Domain) {
		return -1, newError(UnknownValueID, strconv.Itoa(valueID))
	}
	return id, nil
}

func (p *Project) checkRule(ruleID int) (int, error) {
	id := normalize(ruleID, len(p.rules))
	if id < 0 || id >= len(p.rules) {
		return -1, newError(UnknownRuleID, strconv.Itoa(ruleID))
	}
	return id, nil
}

func (p *Project) hasVar(name string) bool {
	_, err := p.VarID(name)
	return err == nil
}

// AddVar declares a new variable with the given domain.
func (p *Project) AddVar(name string, values ...string) error {
	if !compiler.IsIdentifier(name) {
		return newError(InvalidIdentifier, name)
	}
	if p.hasVar(name) {
		return newError(IdentifierAlreadyExists, name)
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !compiler.IsIdentifier(v) {
			return newError(InvalidIdentifier, v)
		}
		if seen[v] {
			return newError(IdentifierAlreadyExists, v)
		}
		seen[v] = true
	}
	p.vars = append(p.vars, ir.Variable{Name: name, Domain: append([]string{}, values...)})
	p.saved = false
	return nil
}

// AddVarValues appends values to the domain of variable varID.
func (p *Project) AddVarValues(varID int, values ...string) error {
	id, err := p.checkVar(varID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.vars[id].Domain)+len(values))
	for _, v := range p.vars[id].Domain {
		seen[v] = true
	}
	for _, v := range values {
		if !compiler.IsIdentifier(v) {
			return newError(InvalidIdentifier, v)
		}
		if seen[v] {
			return newError(IdentifierAlreadyExists, v)
		}
		seen[v] = true
	}
	p.vars[id].Domain = append(p.vars[id].Domain, values...)
	p.saved = false
	return nil
}

// DeleteVar removes variable varID. Rules that mention it are left alone;
// compiler.Validate reports them.
func (p *Project) DeleteVar(varID int) error {
	id, err := p.checkVar(varID)
	if err != nil {
		return err
	}
	p.vars = append(p.vars[:id], p.vars[id+1:]...)
	p.saved = false
	return nil
}

// DeleteVarValue removes one value from the domain of variable varID.
func (p *Project) DeleteVarValue(varID, valueID int) error {
	id, err := p.checkVar(varID)
	if err != nil {
		return err
	}
	vid, err := p.checkValue(id, valueID)
	if err != nil {
		return err
	}
	d := p.vars[id].Domain
	p.vars[id].Domain = append(d[:vid], d[vid+1:]...)
	p.saved = false
	return nil
}

// RenameVar renames variable varID and every rule pair that mentions it.
func (p *Project) RenameVar(varID int, newName string) error {
	id, err := p.checkVar(varID)
	if err != nil {
		return err
	}
	if !compiler.IsIdentifier(newName) {
		return newError(InvalidIdentifier, newName)
	}
	if p.hasVar(newName) {
		return newError(IdentifierAlreadyExists, newName)
	}
	old := p.vars[id].Name
	p.vars[id].Name = newName
	p.eachPair(func(pair *ir.Pair) {
		if pair.Var == old {
			pair.Var = newName
		}
	})
	p.saved = false
	return nil
}

// RenameVarValue renames one domain value and every rule pair using it.
func (p *Project) RenameVarValue(varID, valueID int, newValue string) error {
	id, err := p.checkVar(varID)
	if err != nil {
		return err
	}
	vid, err := p.checkValue(id, valueID)
	if err != nil {
		return err
	}
	if !compiler.IsIdentifier(newValue) {
		return newError(InvalidIdentifier, newValue)
	}
	for _, v := range p.vars[id].Domain {
		if v == newValue {
			return newError(IdentifierAlreadyExists, newValue)
		}
	}
	name := p.vars[id].Name
	old := p.vars[id].Domain[vid]
	p.vars[id].Domain[vid] = newValue
	p.eachPair(func(pair *ir.Pair) {
		if pair.Var == name && pair.Value == old {
			pair.Value = newValue
		}
	})
	p.saved = false
	return nil
}

func (p *Project) eachPair(fn func(*ir.Pair)) {
	for i := range p.rules {
		for j := range p.rules[i].If {
			fn(&p.rules[i].If[j])
		}
		for j := range p.rules[i].Then {
			fn(&p.rules[i].Then[j])
		}
	}
}

// AddRule appends a rule. Every pair must use a declared variable and a
// value from its domain. The rule may be empty and filled in later with
// AddIfPair and AddThenPair.
func (p *Project) AddRule(r ir.Rule) error {
	for _, pair := range append(append([]ir.Pair{}, r.If...), r.Then...) {
		if err := p.checkPair(pair); err != nil {
			return err
		}
	}
	p.rules = append(p.rules, ir.Rule{
		If:   append([]ir.Pair{}, r.If...),
		Then: append([]ir.Pair{}, r.Then...),
	})
	p.saved = false
	return nil
}

// DeleteRule removes rule ruleID.
func (p *Project) DeleteRule(ruleID int) error {
	id, err := p.checkRule(ruleID)
	if err != nil {
		return err
	}
	p.rules = append(p.rules[:id], p.rules[id+1:]...)
	p.saved = false
	return nil
}

func (p *Project) checkPair(pair ir.Pair) error {
	id, err := p.VarID(pair.Var)
	if err != nil {
		return err
	}
	_, err = p.ValueID(id, pair.Value)
	return err
}

// AddIfPair appends an equality test to rule ruleID.
func (p *Project) AddIfPair(ruleID int, pair ir.Pair) error {
	id, err := p.checkRule(ruleID)
	if err != nil {
		return err
	}
	if err := p.checkPair(pair); err != nil {
		return err
	}
	p.rules[id].If = append(p.rules[id].If, pair)
	p.saved = false
	return nil
}

// AddThenPair appends an assignment to rule ruleID.
func (p *Project) AddThenPair(ruleID int, pair ir.Pair) error {
	id, err := p.checkRule(ruleID)
	if err != nil {
		return err
	}
	if err := p.checkPair(pair); err != nil {
		return err
	}
	p.rules[id].Then = append(p.rules[id].Then, pair)
	p.saved = false
	return nil
}

// DeleteIfPair drops the last IF pair of rule ruleID. It is a no-op when
// the IF block is empty.
func (p *Project) DeleteIfPair(ruleID int) error {
	id, err := p.checkRule(ruleID)
	if err != nil {
		return err
	}
	if n := len(p.rules[id].If); n > 0 {
		p.rules[id].If = p.rules[id].If[:n-1]
		p.saved = false
	}
	return nil
}

// DeleteThenPair drops the last THEN pair of rule ruleID. It is a no-op
// when the THEN block is empty.
func (p *Project) DeleteThenPair(ruleID int) error {
	id, err := p.checkRule(ruleID)
	if err != nil {
		return err
	}
	if n := len(p.rules[id].Then); n > 0 {
		p.rules[id].Then = p.rules[id].Then[:n-1]
		p.saved = false
	}
	return nil
}
