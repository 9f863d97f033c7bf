package engine

import "github.com/roach88/prodrule/internal/ir"

// Classification partitions declared variables by how rules use them.
// The four lists are pairwise disjoint and each keeps declaration order.
type Classification struct {
	Inputs    []string `json:"inputs"`    // read, never written
	Internals []string `json:"internals"` // read and written
	Outputs   []string `json:"outputs"`   // written, never read
	Unused    []string `json:"unused"`    // mentioned by no rule
}

// Classify scans the rules once and assigns each declared variable a role.
//
// Variables mentioned by no rule land in Unused and in none of the three
// working roles; they never appear in evaluation output. Rule variables
// that were never declared are ignored, as are repeated declarations.
func Classify(declared []string, rules []ir.Rule) Classification {
	read := make(map[string]bool)
	written := make(map[string]bool)
	for _, r := range rules {
		for _, p := range r.If {
			read[p.Var] = true
		}
		for _, p := range r.Then {
			written[p.Var] = true
		}
	}

	c := Classification{
		Inputs:    []string{},
		Internals: []string{},
		Outputs:   []string{},
		Unused:    []string{},
	}
	seen := make(map[string]bool, len(declared))
	for _, v := range declared {
		if seen[v] {
			continue
		}
		seen[v] = true
		switch {
		case read[v] && written[v]:
			c.Internals = append(c.Internals, v)
		case read[v]:
			c.Inputs = append(c.Inputs, v)
		case written[v]:
			c.Outputs = append(c.Outputs, v)
		default:
			c.Unused = append(c.Unused, v)
		}
	}
	return c
}
