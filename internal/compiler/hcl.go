package compiler

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/roach88/prodrule/internal/ir"
)

// hclProjectFile is the top-level structure of an HCL project file.
type hclProjectFile struct {
	Name      string         `hcl:"name,optional"`
	Variables []*hclVariable `hcl:"variable,block"`
	Rules     []*hclRule     `hcl:"rule,block"`
}

type hclVariable struct {
	Name   string   `hcl:"name,label"`
	Values []string `hcl:"values"`
}

type hclRule struct {
	Name string     `hcl:"name,label"`
	When []*hclPair `hcl:"when,block"`
	Then []*hclPair `hcl:"then,block"`
}

type hclPair struct {
	Var   string `hcl:"var"`
	Value string `hcl:"value"`
}

// CompileHCL parses an HCL project:
//
//	name = "demo"
//
//	variable "X" {
//	  values = ["a", "z"]
//	}
//
//	rule "R1" {
//	  when {
//	    var   = "X"
//	    value = "a"
//	  }
//	  then {
//	    var   = "Y"
//	    value = "b"
//	  }
//	}
//
// Block order is declaration order.
func CompileHCL(src []byte, filename string) (*ir.Project, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, formatHCLDiags(diags)
	}

	var parsed hclProjectFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, formatHCLDiags(diags)
	}

	p := &ir.Project{
		Name:      parsed.Name,
		Variables: make([]ir.Variable, 0, len(parsed.Variables)),
		Rules:     make([]ir.Rule, 0, len(parsed.Rules)),
	}
	for _, v := range parsed.Variables {
		domain := v.Values
		if domain == nil {
			domain = []string{}
		}
		p.Variables = append(p.Variables, ir.Variable{Name: v.Name, Domain: domain})
	}
	for _, r := range parsed.Rules {
		p.Rules = append(p.Rules, ir.Rule{
			Name: r.Name,
			If:   hclPairs(r.When),
			Then: hclPairs(r.Then),
		})
	}
	return p, nil
}

func hclPairs(blocks []*hclPair) []ir.Pair {
	out := make([]ir.Pair, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ir.Pair{Var: b.Var, Value: b.Value})
	}
	return out
}

// LoadHCLFile reads and compiles one HCL project file.
func LoadHCLFile(path string) (*ir.Project, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return CompileHCL(src, path)
}
