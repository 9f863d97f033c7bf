package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/prodrule/internal/ir"
)

func TestEvaluateAll_OrderAndErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	in, err := BuildPlan([]string{"X", "Y", "Z"}, chainRules())
	require.NoError(t, err)

	var inputs []ir.Bindings
	for i := 0; i < 50; i++ {
		switch i % 3 {
		case 0:
			inputs = append(inputs, ir.FromStrings(map[string]string{"X": "a"}))
		case 1:
			inputs = append(inputs, ir.FromStrings(map[string]string{"X": fmt.Sprintf("v%d", i)}))
		default:
			inputs = append(inputs, ir.Bindings{})
		}
	}

	results, err := EvaluateAll(context.Background(), in, inputs, 4)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	for i, r := range results {
		switch i % 3 {
		case 0:
			require.NoError(t, r.Err)
			assert.Equal(t, ir.Set("c"), r.Outputs["Z"], "input %d", i)
		case 1:
			require.NoError(t, r.Err)
			assert.False(t, r.Outputs["Z"].IsSet(), "input %d", i)
		default:
			assert.True(t, IsMissingInputBinding(r.Err), "input %d", i)
		}
	}
}

func TestEvaluateAll_UnboundedWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	in, err := BuildPlan([]string{"X", "Y", "Z"}, chainRules())
	require.NoError(t, err)

	inputs := []ir.Bindings{
		ir.FromStrings(map[string]string{"X": "a"}),
		ir.FromStrings(map[string]string{"X": "b"}),
	}
	results, err := EvaluateAll(context.Background(), in, inputs, 0)
	require.NoError(t, err)
	assert.Equal(t, ir.Set("c"), results[0].Outputs["Z"])
	assert.False(t, results[1].Outputs["Z"].IsSet())
}

func TestEvaluateAll_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	in, err := BuildPlan([]string{"X", "Y", "Z"}, chainRules())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := EvaluateAll(ctx, in, []ir.Bindings{ir.FromStrings(map[string]string{"X": "a"})}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestEvaluateAll_CancelAfterCompletionKeepsResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	in, err := BuildPlan([]string{"X", "Y", "Z"}, chainRules())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	inputs := []ir.Bindings{
		ir.FromStrings(map[string]string{"X": "a"}),
		ir.FromStrings(map[string]string{"X": "b"}),
	}

	results, err := EvaluateAll(ctx, in, inputs, 1)
	cancel()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ir.Set("c"), results[0].Outputs["Z"])
	assert.False(t, results[1].Outputs["Z"].IsSet())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestEvaluateAll_Empty(t *testing.T) {
	in, err := BuildPlan(nil, nil)
	require.NoError(t, err)

	results, err := EvaluateAll(context.Background(), in, nil, 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}
