// Package store provides SQLite-backed durable storage for evaluation runs.
//
// The store is an append-only log with three tables:
//   - plans: stratified rule sets, keyed by rule-set hash
//   - runs: one row per evaluation (input, output projection, output hash)
//   - firings: the per-rule trace of a run (fired or skipped, in order)
//
// All ordering uses the logical seq column, never timestamps, so that
// reads are identical across replays. Every list query ends in
// ORDER BY seq ASC, id COLLATE BINARY ASC (runs) or ORDER BY ordinal ASC
// (firings).
//
// Bindings are stored as canonical JSON (RFC 8785) with unset values
// written as null, which keeps output hashes comparable byte for byte.
package store
