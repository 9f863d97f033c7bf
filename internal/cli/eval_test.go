package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodrule/internal/ir"
)

func TestEvalSet(t *testing.T) {
	out, err := execute(t, "eval", chainProject, "--set", "X=a")
	require.NoError(t, err)
	assert.Equal(t, "Z <= c\n", out)

	out, err = execute(t, "eval", chainProject, "--set", "X=z")
	require.NoError(t, err)
	assert.Equal(t, "Z <= (unset)\n", out)
}

func TestEvalMissingInput(t *testing.T) {
	out, err := execute(t, "eval", chainProject)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]: MISSING_INPUT_BINDING")
}

func TestEvalInvalidSet(t *testing.T) {
	_, err := execute(t, "eval", chainProject, "--set", "X")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidArg)
}

func TestEvalInputFileArray(t *testing.T) {
	input := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"X": "a"}, {"X": "z"}, {"X": null}]`), 0o644))

	out, err := execute(t, "eval", chainProject, "--input", input, "--workers", "2", "--format", "json")
	require.Error(t, err, "the third input has no X")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var results []EvalResult
	resp := decode(t, out, &results)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, results, 3)

	assert.Equal(t, ir.Set("c"), results[0].Output.Get("Z"))
	assert.Nil(t, results[0].Error)

	require.Contains(t, results[1].Output, "Z")
	assert.False(t, results[1].Output.Get("Z").IsSet())

	require.NotNil(t, results[2].Error)
	assert.Equal(t, ErrCodeMissingInput, results[2].Error.Code)
	assert.False(t, results[2].Input.Get("X").IsSet())
}

func TestEvalInputFileObjectWithOverride(t *testing.T) {
	input := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"X": "z"}`), 0o644))

	out, err := execute(t, "eval", chainProject, "--input", input, "--set", "X=a")
	require.NoError(t, err)
	assert.Equal(t, "Z <= c\n", out)
}

func TestEvalRandomIsSeeded(t *testing.T) {
	run := func() []EvalResult {
		out, err := execute(t, "eval", chainProject, "--random", "--seed", "42", "--format", "json")
		require.NoError(t, err)
		var results []EvalResult
		decode(t, out, &results)
		require.Len(t, results, 1)
		return results
	}

	first := run()
	assert.Contains(t, []string{"a", "z"}, first[0].Input.Get("X").String())
	assert.Equal(t, first, run())
}

func TestEvalRandomAndInputConflict(t *testing.T) {
	_, err := execute(t, "eval", chainProject, "--random", "--input", "x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestEvalUnresolvable(t *testing.T) {
	_, err := execute(t, "eval", toggleProject, "--set", "X=a")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeUnresolvable)
}
