package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prodrule/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testPlan is the X -> Y -> Z chain.
func testPlan() PlanRecord {
	return PlanRecord{
		Hash:      "plan-1",
		Name:      "chain",
		Variables: []string{"X", "Y", "Z"},
		Rules: []ir.Rule{
			{If: []ir.Pair{{Var: "X", Value: "a"}}, Then: []ir.Pair{{Var: "Y", Value: "b"}}},
			{If: []ir.Pair{{Var: "Y", Value: "b"}}, Then: []ir.Pair{{Var: "Z", Value: "c"}}},
		},
		Levels:        [][]int{{0}, {1}},
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// createTestRun creates a run of testPlan with the given input and output.
func createTestRun(id string, seq int64, input, output ir.Bindings) Run {
	return Run{
		ID:         id,
		PlanHash:   "plan-1",
		Seq:        seq,
		Input:      input,
		Output:     output,
		OutputHash: ir.MustBindingHash(output),
	}
}

// seedRuns writes testPlan plus a fired run (X=a) and an unset run (X=z).
func seedRuns(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WritePlan(ctx, testPlan()))

	fired := ir.Bindings{"Z": ir.Set("c")}
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-a", 1, ir.FromStrings(map[string]string{"X": "a"}), fired), []Firing{
		{Level: 0, Rule: 0, Fired: true, Pairs: []ir.Pair{{Var: "Y", Value: "b"}}},
		{Level: 1, Rule: 1, Fired: true, Pairs: []ir.Pair{{Var: "Z", Value: "c"}}},
	}))

	unset := ir.Bindings{"Z": ir.Unset()}
	require.NoError(t, s.WriteRun(ctx, createTestRun("run-z", 2, ir.FromStrings(map[string]string{"X": "z"}), unset), []Firing{
		{Level: 0, Rule: 0, Fired: false, Pairs: []ir.Pair{{Var: "X", Value: "a"}}},
		{Level: 1, Rule: 1, Fired: false, Pairs: []ir.Pair{{Var: "Y", Value: "b"}}},
	}))
}
