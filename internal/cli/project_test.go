package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDemoProject creates demo.esp with a two-rule chain through the CLI.
func newDemoProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	esp := filepath.Join(dir, "demo", "demo.esp")

	steps := [][]string{
		{"project", "new", dir, "demo"},
		{"project", "add-var", esp, "X", "a", "z"},
		{"project", "add-var", esp, "Y", "b"},
		{"project", "add-var", esp, "Z"},
		{"project", "add-value", esp, "Z", "c", "d"},
		{"project", "add-rule", esp, "--if", "X=a", "--then", "Y=b"},
		{"project", "add-rule", esp, "--then", "Z=c"},
		{"project", "add-if", esp, "last", "Y=b"},
	}
	for _, args := range steps {
		_, err := execute(t, args...)
		require.NoError(t, err, "%v", args)
	}
	return esp
}

func TestProjectBuildAndShow(t *testing.T) {
	esp := newDemoProject(t)

	out, err := execute(t, "project", "show", esp, "--format", "json")
	require.NoError(t, err)

	var view ProjectView
	decode(t, out, &view)
	assert.Equal(t, "demo", view.Name)
	require.Len(t, view.Variables, 3)
	assert.Equal(t, []string{"c", "d"}, view.Variables[2].Domain)
	assert.Equal(t, []string{
		"IF X = a THEN Y := b",
		"IF Y = b THEN Z := c",
	}, view.Rules)
}

func TestProjectCompilesAndEvaluates(t *testing.T) {
	esp := newDemoProject(t)

	out, err := execute(t, "eval", esp, "--set", "X=a")
	require.NoError(t, err)
	assert.Equal(t, "Z <= c\n", out)
}

func TestProjectRenameVarUpdatesRules(t *testing.T) {
	esp := newDemoProject(t)

	out, err := execute(t, "project", "rename-var", esp, "X", "W")
	require.NoError(t, err)
	assert.Contains(t, out, "0 IF W = a THEN Y := b")

	out, err = execute(t, "project", "rename-value", esp, "Z", "c", "e")
	require.NoError(t, err)
	assert.Contains(t, out, "1 IF Y = b THEN Z := e")
}

func TestProjectPairAndRuleRemoval(t *testing.T) {
	esp := newDemoProject(t)

	out, err := execute(t, "project", "rm-if", esp, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 IF TRUE THEN Z := c")

	_, err = execute(t, "project", "add-then", esp, "1", "Y=b")
	require.NoError(t, err)
	out, err = execute(t, "project", "rm-then", esp, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 IF TRUE THEN Z := c\n")

	out, err = execute(t, "project", "rm-rule", esp, "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "X = a")
}

func TestProjectRemoveValueAndVar(t *testing.T) {
	esp := newDemoProject(t)

	out, err := execute(t, "project", "rm-value", esp, "Z", "d")
	require.NoError(t, err)
	assert.Contains(t, out, "2 Z: c\n")

	out, err = execute(t, "project", "rm-var", esp, "Z")
	require.NoError(t, err)
	assert.NotContains(t, out, "Z:")
}

func TestProjectRejectedEdits(t *testing.T) {
	esp := newDemoProject(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown variable", []string{"rm-var", esp, "Q"}, ErrCodeProject},
		{"duplicate variable", []string{"add-var", esp, "X"}, ErrCodeProject},
		{"invalid identifier", []string{"add-var", esp, "9X"}, ErrCodeProject},
		{"value outside domain", []string{"add-if", esp, "0", "X=q"}, ErrCodeProject},
		{"unknown rule", []string{"rm-rule", esp, "7"}, ErrCodeProject},
		{"malformed pair", []string{"add-then", esp, "0", "X"}, ErrCodeInvalidArg},
		{"malformed index", []string{"rm-if", esp, "first"}, ErrCodeInvalidArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"project"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}

	out, err := execute(t, "project", "show", esp)
	require.NoError(t, err)
	assert.Contains(t, out, "0 IF X = a THEN Y := b", "rejected edits leave the project unchanged")
}

func TestProjectRejectedEditJSONDetails(t *testing.T) {
	esp := newDemoProject(t)

	out, err := execute(t, "project", "rm-var", esp, "Q", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]any{"code": float64(4), "subject": "Q"}, resp.Error.Details)
}

func TestProjectNewInvalidName(t *testing.T) {
	_, err := execute(t, "project", "new", t.TempDir(), "bad name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeProject)
}

func TestProjectOpenMissing(t *testing.T) {
	_, err := execute(t, "project", "show", filepath.Join(t.TempDir(), "none.esp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeLoadFailed)
}
