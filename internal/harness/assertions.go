package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
)

func checkClassification(result *Result, s *Scenario, class engine.Classification) {
	check := func(what string, want, got []string) {
		if want != nil && !slices.Equal(want, got) {
			result.AddError(fmt.Sprintf("%s: expected %v, got %v", what, want, got))
		}
	}
	check("inputs", s.ExpectInputs, class.Inputs)
	check("outputs", s.ExpectOutputs, class.Outputs)
	check("internals", s.ExpectInternals, class.Internals)
}

func checkLevels(result *Result, want [][]string, plan *engine.Plan, labels []string) {
	if want == nil {
		return
	}
	got := make([][]string, len(plan.Levels))
	for i, level := range plan.Levels {
		got[i] = []string{}
		for _, idx := range level {
			got[i] = append(got[i], labels[idx])
		}
	}
	if !slices.EqualFunc(want, got, slices.Equal[[]string]) {
		result.AddError(fmt.Sprintf("levels: expected %v, got %v", want, got))
	}
}

// checkCase compares one evaluation against a case's expectations and
// returns the mismatches.
func checkCase(c Case, output ir.Bindings, evalErr error, fired []string, outputs []string) []string {
	var problems []string

	if c.ExpectError != "" {
		if evalErr == nil {
			return []string{fmt.Sprintf("expected %s error, got output %v", c.ExpectError, ir.ResultLines(output, outputs))}
		}
		if c.ExpectError == ErrorMissingInput && !engine.IsMissingInputBinding(evalErr) {
			return []string{fmt.Sprintf("expected %s error, got %v", c.ExpectError, evalErr)}
		}
		return nil
	}
	if evalErr != nil {
		return []string{fmt.Sprintf("unexpected error: %v", evalErr)}
	}

	// Sorted for stable messages.
	names := make([]string, 0, len(c.Expect))
	for name := range c.Expect {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !slices.Contains(outputs, name) {
			problems = append(problems, fmt.Sprintf("%s is not an output variable", name))
			continue
		}
		want := c.Expect[name]
		got := output.Get(name)
		switch {
		case want == nil && got.IsSet():
			problems = append(problems, fmt.Sprintf("%s: expected unset, got %s", name, got))
		case want != nil && !got.Matches(*want):
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", name, *want, got))
		}
	}

	if c.ExpectFired != nil && !slices.Equal(c.ExpectFired, fired) {
		if fired == nil {
			fired = []string{}
		}
		problems = append(problems, fmt.Sprintf("fired: expected [%s], got [%s]",
			strings.Join(c.ExpectFired, " "), strings.Join(fired, " ")))
	}
	return problems
}
