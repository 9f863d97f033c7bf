package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/prodrule/internal/ir"
)

// CompileProject parses a CUE value into a Project.
//
// The expected shape is:
//
//	name: "demo"
//	variable: X: ["a", "z"]
//	rule: R1: {
//		when: [{X: "a"}]
//		then: [{Y: "b"}]
//	}
//
// Variables and rules keep their declaration order. Each element of a
// when/then list is a struct with exactly one field. when may be omitted
// for a rule that always fires.
func CompileProject(v cue.Value) (*ir.Project, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Project{
		Variables: []ir.Variable{},
		Rules:     []ir.Rule{},
	}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Name = name
	}

	vars, err := parseVariables(v)
	if err != nil {
		return nil, err
	}
	p.Variables = vars

	rules, err := parseRules(v)
	if err != nil {
		return nil, err
	}
	p.Rules = rules

	return p, nil
}

func parseVariables(v cue.Value) ([]ir.Variable, error) {
	vars := []ir.Variable{}

	varVal := v.LookupPath(cue.ParsePath("variable"))
	if !varVal.Exists() {
		return vars, nil
	}

	iter, err := varVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		domain, err := stringList(iter.Value(), "variable."+iter.Selector().String())
		if err != nil {
			return nil, err
		}
		vars = append(vars, ir.Variable{
			Name:   iter.Selector().Unquoted(),
			Domain: domain,
		})
	}
	return vars, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	list, err := v.List()
	if err != nil {
		return nil, cueError(field, "must be a list of strings", v.Pos())
	}
	out := []string{}
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, cueError(field, "must be a list of strings", list.Value().Pos())
		}
		out = append(out, s)
	}
	return out, nil
}

func parseRules(v cue.Value) ([]ir.Rule, error) {
	rules := []ir.Rule{}

	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return rules, nil
	}

	iter, err := ruleVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		field := "rule." + iter.Selector().String()

		when, err := parsePairs(iter.Value(), "when", field)
		if err != nil {
			return nil, err
		}
		then, err := parsePairs(iter.Value(), "then", field)
		if err != nil {
			return nil, err
		}
		rules = append(rules, ir.Rule{Name: name, If: when, Then: then})
	}
	return rules, nil
}

// parsePairs reads a list of single-field structs such as [{X: "a"}, {Y: "b"}].
func parsePairs(rule cue.Value, block, field string) ([]ir.Pair, error) {
	pairs := []ir.Pair{}

	blockVal := rule.LookupPath(cue.ParsePath(block))
	if !blockVal.Exists() {
		return pairs, nil
	}

	list, err := blockVal.List()
	if err != nil {
		return nil, cueError(field+"."+block, "must be a list of {var: value} structs", blockVal.Pos())
	}
	for i := 0; list.Next(); i++ {
		elem := list.Value()
		elemField := fmt.Sprintf("%s.%s[%d]", field, block, i)

		fields, err := elem.Fields()
		if err != nil {
			return nil, cueError(elemField, "must be a {var: value} struct", elem.Pos())
		}
		n := 0
		for fields.Next() {
			n++
			if n > 1 {
				return nil, cueError(elemField, "must have exactly one field", elem.Pos())
			}
			value, err := fields.Value().String()
			if err != nil {
				return nil, cueError(elemField, "value must be a string", fields.Value().Pos())
			}
			pairs = append(pairs, ir.Pair{Var: fields.Selector().Unquoted(), Value: value})
		}
		if n == 0 {
			return nil, cueError(elemField, "must have exactly one field", elem.Pos())
		}
	}
	return pairs, nil
}

// CompileCUE compiles a single CUE source into a Project.
func CompileCUE(src []byte, filename string) (*ir.Project, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileProject(v)
}

// LoadDir loads every .cue file in dir as one CUE instance and compiles it.
// Files are unified, so variables and rules may be spread across files.
func LoadDir(dir string) (*ir.Project, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("accessing project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	rel := make([]string, len(files))
	for i, f := range files {
		rel[i] = filepath.Base(f)
	}

	instances := load.Instances(rel, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	ctx := cuecontext.New()
	return CompileProject(ctx.BuildInstance(inst))
}

// FindCUEFiles returns the .cue files directly inside dir, sorted by name.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
