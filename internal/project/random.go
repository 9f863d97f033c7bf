package project

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/prodrule/internal/ir"
)

// RandomInputs binds every name in inputs to a value picked uniformly
// from that variable's domain.
func RandomInputs(vars []ir.Variable, inputs []string, rnd *rand.Rand) (ir.Bindings, error) {
	domains := make(map[string][]string, len(vars))
	for _, v := range vars {
		domains[v.Name] = v.Domain
	}

	b := make(ir.Bindings, len(inputs))
	for _, name := range inputs {
		domain, ok := domains[name]
		if !ok {
			return nil, newError(UnknownVariableName, name)
		}
		if len(domain) == 0 {
			return nil, fmt.Errorf("variable %s has an empty domain", name)
		}
		b.Set(name, domain[rnd.IntN(len(domain))])
	}
	return b, nil
}
