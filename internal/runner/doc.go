// Package runner records evaluations in the run log and replays them.
//
// A Runner binds one Interpreter to one plan in a store. Each call to Run
// evaluates an input, stamps the result with a run id and the next logical
// seq, and writes the run together with its firing trace. Replay evaluates
// a recorded input again and reports whether the output hash and the
// firing trace are identical to what was recorded.
//
// Seq numbers come from a logical clock, never wall time. By default the
// clock resumes after the highest seq in the store.
package runner
