package engine

import (
	"strings"

	"github.com/roach88/prodrule/internal/ir"
)

// rule builds an unnamed rule from "X=a,Y=b" style IF and THEN lists.
// An empty IF string yields a vacuously true rule.
func rule(ifs, thens string) ir.Rule {
	return ir.Rule{If: pairs(ifs), Then: pairs(thens)}
}

func pairs(s string) []ir.Pair {
	out := []ir.Pair{}
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		v, val, _ := strings.Cut(strings.TrimSpace(part), "=")
		out = append(out, ir.Pair{Var: v, Value: val})
	}
	return out
}

// chainRules is the X -> Y -> Z chain: R1 IF X=a THEN Y:=b, R2 IF Y=b THEN Z:=c.
func chainRules() []ir.Rule {
	return []ir.Rule{
		rule("X=a", "Y=b"),
		rule("Y=b", "Z=c"),
	}
}

// cyclicRules is R1 IF X=A THEN Y:=B, R2 IF Y=B THEN X:=A.
func cyclicRules() []ir.Rule {
	return []ir.Rule{
		rule("X=A", "Y=B"),
		rule("Y=B", "X=A"),
	}
}
