package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project is the project definition: a directory of .cue files, or a
	// .cue, .hcl or .esp file. Relative paths are resolved against the
	// scenario file's directory by LoadScenario.
	Project string `yaml:"project"`

	// Classification expectations. A nil list is not checked.
	ExpectInputs    []string `yaml:"expect_inputs,omitempty"`
	ExpectOutputs   []string `yaml:"expect_outputs,omitempty"`
	ExpectInternals []string `yaml:"expect_internals,omitempty"`

	// ExpectLevels lists rule labels per level.
	ExpectLevels [][]string `yaml:"expect_levels,omitempty"`

	// ExpectPlanError expects plan construction to fail. Cases are not run.
	ExpectPlanError string `yaml:"expect_plan_error,omitempty"`

	Cases []Case `yaml:"cases,omitempty"`
}

// Case evaluates one input.
type Case struct {
	Name string `yaml:"name"`

	// Input binds variables; null binds a variable as unset.
	Input map[string]*string `yaml:"input"`

	// Expect holds expected output values; null expects unset. Only the
	// listed outputs are checked.
	Expect map[string]*string `yaml:"expect,omitempty"`

	// ExpectError expects the evaluation to fail.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectFired lists the labels of the rules expected to fire, in order.
	ExpectFired []string `yaml:"expect_fired,omitempty"`
}

// Expected error names.
const (
	ErrorMissingInput = "missing_input"
	ErrorUnresolvable = "unresolvable"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "expect_output:" vs "expect_outputs:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Project != "" && !filepath.IsAbs(scenario.Project) {
		scenario.Project = filepath.Join(filepath.Dir(path), scenario.Project)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, in file name order.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Project == "" {
		return fmt.Errorf("project is required")
	}
	if _, err := os.Stat(s.Project); err != nil {
		return fmt.Errorf("project not found: %s", s.Project)
	}

	switch s.ExpectPlanError {
	case "":
		if len(s.Cases) == 0 {
			return fmt.Errorf("cases list is required and must be non-empty")
		}
	case ErrorUnresolvable:
		if len(s.Cases) > 0 {
			return fmt.Errorf("cases cannot run when plan construction is expected to fail")
		}
	default:
		return fmt.Errorf("unknown expect_plan_error %q", s.ExpectPlanError)
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		switch c.ExpectError {
		case "":
		case ErrorMissingInput:
			if c.Expect != nil || c.ExpectFired != nil {
				return fmt.Errorf("cases[%d]: expect_error excludes expect and expect_fired", i)
			}
		default:
			return fmt.Errorf("cases[%d]: unknown expect_error %q", i, c.ExpectError)
		}
	}

	return nil
}
