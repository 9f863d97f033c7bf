package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/queryir"
)

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	seedRuns(t, s)

	run, err := s.ReadRun(context.Background(), "run-z")
	require.NoError(t, err)

	assert.Equal(t, int64(2), run.Seq)
	assert.True(t, run.Input.Equal(ir.FromStrings(map[string]string{"X": "z"})))
	assert.Contains(t, run.Output, "Z", "unset output is reported explicitly")
	assert.False(t, run.Output.Get("Z").IsSet())
	assert.Equal(t, ir.MustBindingHash(run.Output), run.OutputHash)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadPlan_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadPlan(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadFirings_Order(t *testing.T) {
	s := createTestStore(t)
	seedRuns(t, s)

	firings, err := s.ReadFirings(context.Background(), "run-a")
	require.NoError(t, err)
	require.Len(t, firings, 2)

	assert.Equal(t, Firing{RunID: "run-a", Ordinal: 0, Level: 0, Rule: 0, Fired: true, Pairs: []ir.Pair{{Var: "Y", Value: "b"}}}, firings[0])
	assert.Equal(t, 1, firings[1].Ordinal)
	assert.Equal(t, 1, firings[1].Level)
}

func TestReadFirings_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	firings, err := s.ReadFirings(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, firings)
	assert.Empty(t, firings)
}

func TestListRuns_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	seedRuns(t, s)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "run-z", runs[1].ID)

	runs, err = s.ListRuns(ctx, "other-plan")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestGetLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	seedRuns(t, s)
	seq, err = s.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestFindRuns(t *testing.T) {
	s := createTestStore(t)
	seedRuns(t, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter queryir.Predicate
		want   []string
	}{
		{"no filter", nil, []string{"run-a", "run-z"}},
		{"input equals", queryir.InputEquals{Var: "X", Value: "a"}, []string{"run-a"}},
		{"output equals", queryir.OutputEquals{Var: "Z", Value: "c"}, []string{"run-a"}},
		{"output unset", queryir.OutputUnset{Var: "Z"}, []string{"run-z"}},
		{"non-output never unset", queryir.OutputUnset{Var: "Y"}, nil},
		{"rule fired", queryir.RuleFired{Rule: 1}, []string{"run-a"}},
		{"conjunction", queryir.And{Predicates: []queryir.Predicate{
			queryir.InputEquals{Var: "X", Value: "z"},
			queryir.OutputUnset{Var: "Z"},
		}}, []string{"run-z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.FindRuns(ctx, queryir.Runs{Plan: "plan-1", Filter: tt.filter})
			require.NoError(t, err)

			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFindRuns_Limit(t *testing.T) {
	s := createTestStore(t)
	seedRuns(t, s)

	runs, err := s.FindRuns(context.Background(), queryir.Runs{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-a", runs[0].ID)
}

func TestFindRuns_Invalid(t *testing.T) {
	s := createTestStore(t)

	_, err := s.FindRuns(context.Background(), queryir.Runs{Filter: queryir.InputEquals{Var: "1bad", Value: "a"}})
	assert.ErrorContains(t, err, "invalid variable name")
}

func TestFindFirings(t *testing.T) {
	s := createTestStore(t)
	seedRuns(t, s)
	ctx := context.Background()

	firings, err := s.FindFirings(ctx, queryir.Firings{Run: "run-a", Filter: queryir.LevelEquals{Level: 1}})
	require.NoError(t, err)
	require.Len(t, firings, 1)
	assert.Equal(t, 1, firings[0].Rule)

	firings, err = s.FindFirings(ctx, queryir.Firings{Run: "run-z", Filter: queryir.FiredOnly{}})
	require.NoError(t, err)
	assert.Empty(t, firings)
}
