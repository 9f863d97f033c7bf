// Package engine implements the prodrule forward-chaining interpreter.
//
// The engine has three parts, used in dependency order:
//
//   - Classify partitions declared variables into input, internal and
//     output roles by scanning which rule blocks mention them.
//   - Stratify arranges rules into levels so that every rule is evaluated
//     only after every variable it reads has possibly been produced.
//   - Evaluate replays the levels once over a caller-supplied binding and
//     projects the working state onto the output variables.
//
// BuildPlan runs Classify and Stratify once per rule set and returns an
// Interpreter. The Interpreter is immutable: any number of goroutines may
// call Evaluate on it concurrently, each working on its own clone of the
// input bindings.
//
// DETERMINISM:
//
// Rules are evaluated in declaration order within a level. Each rule is
// visited exactly once per evaluation (single pass, no fixed-point
// iteration). There is no randomness and no hidden global state, so
// identical (plan, input) pairs always produce identical output.
//
// TERMINATION:
//
// Stratification is capped at len(rules)+1 levels. A rule whose IF block
// can never be satisfied from the inputs (an unproducible variable or a
// cyclic dependency) is reported as an UnresolvableDependencyError rather
// than lifted forever.
package engine
