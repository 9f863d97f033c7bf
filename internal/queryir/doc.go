// Package queryir is a small typed query representation over the run log.
//
// Queries describe which recorded evaluations (or which rule firings of one
// evaluation) to return, independent of the storage backend:
//
//	[cli --where flags] -> [queryir] -> [querysql] -> SQLite
//
// Query nodes:
//   - Runs: recorded evaluations, optionally restricted to one plan
//   - Firings: the per-rule trace of one recorded evaluation
//
// Run predicates:
//   - InputEquals: the input binding held a value
//   - OutputEquals: an output variable ended with a value
//   - OutputUnset: an output variable was reported unset
//   - RuleFired: a rule fired during the run
//
// Firing predicates:
//   - FiredOnly: skip rules whose predicate failed
//   - LevelEquals, RuleEquals: narrow to one level or rule
//
// And combines predicates of the same family. Both Query and Predicate are
// sealed interfaces; backends switch on them exhaustively.
package queryir
