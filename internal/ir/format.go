package ir

import "strings"

// String renders the pair as an equality test: "X = a".
func (p Pair) String() string {
	return p.Var + " = " + p.Value
}

// Assignment renders the pair as an assignment: "X := a".
func (p Pair) Assignment() string {
	return p.Var + " := " + p.Value
}

// String renders a rule on one line:
//
//	IF X = a AND Y = b THEN Z := c, W := d
//
// An empty IF block renders as "IF TRUE".
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString("IF ")
	if len(r.If) == 0 {
		sb.WriteString("TRUE")
	}
	for i, p := range r.If {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(" THEN ")
	for i, p := range r.Then {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Assignment())
	}
	return sb.String()
}

// ResultLines renders bindings as "var <= value" lines in the given order.
func ResultLines(b Bindings, order []string) []string {
	lines := make([]string, len(order))
	for i, name := range order {
		lines[i] = name + " <= " + b.Get(name).String()
	}
	return lines
}
