package runner

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/store"
	"github.com/roach88/prodrule/internal/testutil"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func chainInterpreter(t *testing.T) *engine.Interpreter {
	t.Helper()
	in, err := engine.BuildPlan(testutil.ChainVars(), testutil.ChainRules())
	require.NoError(t, err)
	return in
}

// newTestRunner registers the chain plan and returns a deterministic runner.
func newTestRunner(t *testing.T, st *store.Store) *Runner {
	t.Helper()
	in := chainInterpreter(t)
	hash, err := Register(context.Background(), st, "chain", in)
	require.NoError(t, err)
	return New(st, in, hash,
		WithRunIDGenerator(testutil.NewSequentialIDGenerator("run")),
		WithClock(testutil.NewReplayClock()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestRegister_Idempotent(t *testing.T) {
	st := openStore(t)
	in := chainInterpreter(t)
	ctx := context.Background()

	h1, err := Register(ctx, st, "chain", in)
	require.NoError(t, err)
	h2, err := Register(ctx, st, "chain", in)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	plan, err := st.ReadPlan(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}}, plan.Levels)
	assert.Equal(t, testutil.ChainVars(), plan.Variables)
}

func TestRun_RecordsRunAndFirings(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	run, err := r.Run(ctx, testutil.Input("X", "a"))
	require.NoError(t, err)

	assert.Equal(t, "run-0001", run.ID)
	assert.Equal(t, int64(1), run.Seq)
	assert.True(t, run.Output.Equal(testutil.Input("Z", "c")))
	assert.NotContains(t, run.Output, "Y", "internals are not recorded as output")

	stored, err := st.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.OutputHash, stored.OutputHash)

	firings, err := st.ReadFirings(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, firings, 2)
	assert.True(t, firings[0].Fired)
	assert.Equal(t, []ir.Pair{{Var: "Z", Value: "c"}}, firings[1].Pairs)
}

func TestRun_SkippedRuleRecordsFailedPair(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	run, err := r.Run(ctx, testutil.Input("X", "z"))
	require.NoError(t, err)
	assert.False(t, run.Output.Get("Z").IsSet())

	firings, err := st.ReadFirings(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, firings, 2)
	assert.False(t, firings[0].Fired)
	assert.Equal(t, []ir.Pair{{Var: "X", Value: "a"}}, firings[0].Pairs)
	assert.Equal(t, []ir.Pair{{Var: "Y", Value: "b"}}, firings[1].Pairs)
}

func TestRun_MissingInputIsRecorded(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	run, err := r.Run(ctx, ir.Bindings{})
	require.Error(t, err)
	assert.True(t, engine.IsMissingInputBinding(err))
	assert.Equal(t, string(engine.ErrCodeMissingInputBinding), run.ErrorCode)

	stored, err := st.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, stored.Failed())
	assert.Empty(t, stored.Output)
}

func TestRun_SeqIncreases(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		run, err := r.Run(ctx, testutil.Input("X", "a"))
		require.NoError(t, err)
		assert.Equal(t, int64(i), run.Seq)
	}
}

func TestRun_DefaultClockResumesFromStore(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	first := newTestRunner(t, st)
	_, err := first.Run(ctx, testutil.Input("X", "a"))
	require.NoError(t, err)

	second := New(st, chainInterpreter(t), first.PlanHash())
	run, err := second.Run(ctx, testutil.Input("X", "a"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), run.Seq)

	parsed, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestReplay_Identical(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	for _, x := range []string{"a", "z"} {
		_, err := r.Run(ctx, testutil.Input("X", x))
		require.NoError(t, err)
	}
	_, err := r.Run(ctx, ir.Bindings{})
	require.Error(t, err)

	results, err := r.ReplayAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.True(t, res.Identical(), "run %s", res.RunID)
	}
}

func TestReplay_DetectsTamperedOutput(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	run, err := r.Run(ctx, testutil.Input("X", "a"))
	require.NoError(t, err)

	_, err = st.DB().Exec(`UPDATE runs SET output_hash = 'tampered' WHERE id = ?`, run.ID)
	require.NoError(t, err)

	res, err := r.Replay(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, res.Identical())
	assert.True(t, res.FiringsMatch)
}

func TestReplay_WrongPlan(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)
	ctx := context.Background()

	run, err := r.Run(ctx, testutil.Input("X", "a"))
	require.NoError(t, err)

	other := New(st, chainInterpreter(t), "other-plan")
	_, err = other.Replay(ctx, run.ID)
	assert.ErrorContains(t, err, "belongs to plan")
}

func TestReplay_UnknownRun(t *testing.T) {
	st := openStore(t)
	r := newTestRunner(t, st)

	_, err := r.Replay(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
