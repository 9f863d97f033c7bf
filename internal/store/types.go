package store

import "github.com/roach88/prodrule/internal/ir"

// PlanRecord is a stratified rule set as stored in the plans table.
type PlanRecord struct {
	Hash          string
	Name          string
	Variables     []string
	Rules         []ir.Rule
	Levels        [][]int
	EngineVersion string
	IRVersion     string
}

// Run is one recorded evaluation.
type Run struct {
	ID       string
	PlanHash string
	Seq      int64
	Input    ir.Bindings
	Output   ir.Bindings // output projection; empty when ErrorCode is set

	// OutputHash is ir.BindingHash(Output).
	OutputHash string

	// ErrorCode is the engine error code of a failed evaluation, or "".
	ErrorCode string
}

// Failed reports whether the evaluation returned an error.
func (r Run) Failed() bool {
	return r.ErrorCode != ""
}

// Firing is one entry of a run's trace: a rule whose predicate was
// checked during the pass.
type Firing struct {
	RunID   string
	Ordinal int
	Level   int
	Rule    int
	Fired   bool

	// Pairs holds the assignments of a fired rule, or the single IF pair
	// that failed for a skipped one.
	Pairs []ir.Pair
}
