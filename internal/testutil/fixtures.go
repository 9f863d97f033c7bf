package testutil

import "github.com/roach88/prodrule/internal/ir"

// ChainVars are the variables of ChainRules.
func ChainVars() []string {
	return []string{"X", "Y", "Z"}
}

// ChainRules is the two-level chain IF X=a THEN Y=b; IF Y=b THEN Z=c.
// X is the input, Y internal, Z the output.
func ChainRules() []ir.Rule {
	return []ir.Rule{
		{If: []ir.Pair{{Var: "X", Value: "a"}}, Then: []ir.Pair{{Var: "Y", Value: "b"}}},
		{If: []ir.Pair{{Var: "Y", Value: "b"}}, Then: []ir.Pair{{Var: "Z", Value: "c"}}},
	}
}

// Input builds set bindings from alternating name/value arguments.
//
//	Input("X", "a", "W", "b") // {X: a, W: b}
func Input(kv ...string) ir.Bindings {
	if len(kv)%2 != 0 {
		panic("testutil.Input: odd number of arguments")
	}
	b := ir.Bindings{}
	for i := 0; i < len(kv); i += 2 {
		b.Set(kv[i], kv[i+1])
	}
	return b
}
