// Package harness provides a conformance testing framework for rule sets.
//
// A scenario is a YAML file naming a project definition (CUE, HCL or .esp)
// and the behavior expected of it: the classification of its variables,
// its stratification levels, and a list of cases that evaluate one input
// each. Scenarios may instead expect plan construction to fail.
//
// Each scenario runs against a fresh in-memory run log. Cases are recorded
// through the runner with a deterministic clock and sequential run ids, and
// the firing trace is read back from the store, so the same scenario always
// produces a byte-identical trace. RunWithGolden compares that trace with a
// snapshot in testdata/golden.
//
// Example:
//
//	name: chain
//	description: X drives Z through Y
//	project: chain.cue
//	expect_inputs: [X]
//	expect_outputs: [Z]
//	expect_levels: [[R1], [R2]]
//	cases:
//	  - name: fires
//	    input: {X: a}
//	    expect: {Z: c}
//	  - name: missing
//	    input: {}
//	    expect_error: missing_input
package harness
