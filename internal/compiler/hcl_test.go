package compiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileHCL_Chain(t *testing.T) {
	p, err := LoadHCLFile(filepath.Join("testdata", "chain.hcl"))
	require.NoError(t, err)
	assert.Equal(t, chainProject(), p)
}

func TestCompileHCL_VacuousRule(t *testing.T) {
	src := `
variable "Z" {
  values = ["c"]
}

rule "always" {
  then {
    var   = "Z"
    value = "c"
  }
}
`
	p, err := CompileHCL([]byte(src), "vacuous.hcl")
	require.NoError(t, err)

	require.Len(t, p.Rules, 1)
	assert.Empty(t, p.Rules[0].If)
	assert.NotNil(t, p.Rules[0].If)
	assert.Equal(t, "", p.Name)
}

func TestCompileHCL_SyntaxError(t *testing.T) {
	_, err := CompileHCL([]byte(`variable "X" {`), "broken.hcl")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "broken.hcl", ce.File)
	assert.Positive(t, ce.Line)
}

func TestCompileHCL_DecodeError(t *testing.T) {
	src := `
rule "R1" {
  when {
    var = "X"
  }
}
`
	_, err := CompileHCL([]byte(src), "missing-value.hcl")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "hcl", ce.Field)
	assert.Contains(t, ce.Message, "value")
}

func TestLoadHCLFile_Missing(t *testing.T) {
	_, err := LoadHCLFile(filepath.Join("testdata", "nope.hcl"))
	assert.ErrorContains(t, err, "reading")
}
