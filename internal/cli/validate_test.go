package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidProject(t *testing.T) {
	out, err := execute(t, "validate", chainProject)
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 ")
	assert.Contains(t, out, "is valid (3 variable(s), 2 rule(s))")
}

func TestValidateValidProjectJSON(t *testing.T) {
	out, err := execute(t, "validate", chainProject, "--format", "json")
	require.NoError(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Plan)
}

func TestValidateCycle(t *testing.T) {
	out, err := execute(t, "validate", toggleProject)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "\u2717 UNRESOLVABLE_DEPENDENCY")
	assert.Contains(t, out, "! ")
}

func TestValidateCycleJSON(t *testing.T) {
	out, err := execute(t, "validate", toggleProject, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "1 validation error(s)", resp.Error.Message)
	assert.False(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.ElementsMatch(t, []string{"forward", "back"}, result.Warnings[0].Rules)
}

func TestValidateMissingProject(t *testing.T) {
	_, err := execute(t, "validate", "/nonexistent/demo.esp")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
