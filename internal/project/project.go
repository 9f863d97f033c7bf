// Package project persists and edits rule-set projects in the line-based
// .esp/.var/.rul format.
//
// A Project is the collaborator of the engine: it owns the declared
// variables (with their domains) and the rules, and hands them to
// engine.BuildPlan through IR. Editing operations validate identifiers and
// report failures as *Error with a stable ErrorCode. A failed edit leaves the
// project unchanged.
//
// Index arguments accept -1 as "the last one".
package project

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/ir"
)

// Project is an editable rule-set definition backed by three files.
// It is not safe for concurrent use.
type Project struct {
	name    string
	espPath string
	varPath string
	rulPath string

	vars  []ir.Variable
	rules []ir.Rule
	saved bool
}

// Create makes dir/name/ and writes an empty project into it.
func Create(dir, name string) (*Project, error) {
	if !compiler.IsIdentifier(name) {
		return nil, newError(InvalidIdentifier, name)
	}
	projDir := filepath.Join(dir, name)
	if err := os.MkdirAll(projDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	base := filepath.Join(projDir, name)
	p := &Project{
		name:    name,
		espPath: base + ".esp",
		varPath: base + ".var",
		rulPath: base + ".rul",
		vars:    []ir.Variable{},
		rules:   []ir.Rule{},
	}
	esp := strings.Join([]string{name, name + ".var", name + ".rul"}, "\n") + "\n"
	if err := writeFileAtomic(p.espPath, []byte(esp)); err != nil {
		return nil, err
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// Open loads the project described by an .esp file. The variable and rule
// file names in it are resolved relative to the .esp file's directory.
func Open(espPath string) (*Project, error) {
	f, err := os.Open(espPath)
	if err != nil {
		return nil, fmt.Errorf("opening project: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for len(lines) < 3 && sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", espPath, err)
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("%s: want 3 lines (name, variable file, rule file), got %d", espPath, len(lines))
	}

	dir := filepath.Dir(espPath)
	p := &Project{
		name:    lines[0],
		espPath: espPath,
		varPath: filepath.Join(dir, lines[1]),
		rulPath: filepath.Join(dir, lines[2]),
		saved:   true,
	}

	vf, err := os.Open(p.varPath)
	if err != nil {
		return nil, fmt.Errorf("opening variable file: %w", err)
	}
	defer vf.Close()
	if p.vars, err = readVars(vf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.varPath, err)
	}

	rf, err := os.Open(p.rulPath)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer rf.Close()
	if p.rules, err = readRules(rf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.rulPath, err)
	}

	return p, nil
}

// Save writes the variable and rule files. Each file is replaced
// atomically.
func (p *Project) Save() error {
	var vb, rb strings.Builder
	if err := writeVars(&vb, p.vars); err != nil {
		return err
	}
	if err := writeRules(&rb, p.rules); err != nil {
		return err
	}
	if err := writeFileAtomic(p.varPath, []byte(vb.String())); err != nil {
		return err
	}
	if err := writeFileAtomic(p.rulPath, []byte(rb.String())); err != nil {
		return err
	}
	p.saved = true
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Name returns the project name.
func (p *Project) Name() string { return p.name }

// Path returns the .esp file path.
func (p *Project) Path() string { return p.espPath }

// IsSaved reports whether there are no unsaved edits.
func (p *Project) IsSaved() bool { return p.saved }

// Variables returns a copy of the declared variables.
func (p *Project) Variables() []ir.Variable {
	out := make([]ir.Variable, len(p.vars))
	for i, v := range p.vars {
		out[i] = ir.Variable{Name: v.Name, Domain: slices.Clone(v.Domain)}
	}
	return out
}

// VarNames returns the declared variable names in order.
func (p *Project) VarNames() []string {
	names := make([]string, len(p.vars))
	for i, v := range p.vars {
		names[i] = v.Name
	}
	return names
}

// Rules returns a copy of the rules.
func (p *Project) Rules() []ir.Rule {
	out := make([]ir.Rule, len(p.rules))
	for i, r := range p.rules {
		out[i] = ir.Rule{Name: r.Name, If: slices.Clone(r.If), Then: slices.Clone(r.Then)}
	}
	return out
}

// IR returns the project as an ir.Project.
func (p *Project) IR() *ir.Project {
	return &ir.Project{
		Name:      p.name,
		Variables: p.Variables(),
		Rules:     p.Rules(),
	}
}

// RuleStrings renders every rule on one line.
func (p *Project) RuleStrings() []string {
	out := make([]string, len(p.rules))
	for i, r := range p.rules {
		out[i] = r.String()
	}
	return out
}
