package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodrule/internal/ir"
)

func TestAnalyzeCycles_NoCycles(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(chainRules()))
	assert.Empty(t, AnalyzeCycles(nil))
}

func TestAnalyzeCycles_TwoRuleCycle(t *testing.T) {
	warnings := AnalyzeCycles(cyclicRules())
	require.Len(t, warnings, 1)

	w := warnings[0]
	assert.Equal(t, []string{"X", "Y", "X"}, w.Path)
	assert.Equal(t, []string{"R1", "R2"}, w.Rules)
	assert.Equal(t, "warning", w.Level)
	assert.Equal(t, "variable cycle: X -> Y -> X", w.Message)
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	rules := []ir.Rule{
		{Name: "toggle", If: pairs("S=on"), Then: pairs("S=off")},
	}
	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 1)

	assert.Equal(t, []string{"S", "S"}, warnings[0].Path)
	assert.Equal(t, []string{"toggle"}, warnings[0].Rules)
	assert.Equal(t, "rule toggle reads and writes S", warnings[0].Message)
}

func TestAnalyzeCycles_ShortestPathAndOrder(t *testing.T) {
	rules := []ir.Rule{
		rule("A=1", "B=1"),
		rule("B=1", "C=1"),
		rule("C=1", "A=1"),
		rule("B=1", "A=1"),
		rule("P=1", "Q=1"),
		rule("Q=1", "P=1"),
	}
	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 2)

	assert.Equal(t, []string{"A", "B", "A"}, warnings[0].Path)
	assert.Equal(t, []string{"R1", "R4"}, warnings[0].Rules)
	assert.Equal(t, []string{"P", "Q", "P"}, warnings[1].Path)
}

func TestAnalyzeCycles_Deterministic(t *testing.T) {
	rules := []ir.Rule{
		rule("A=1", "B=1"),
		rule("B=1", "C=1"),
		rule("C=1", "A=1"),
		rule("D=1", "E=1"),
		rule("E=1", "D=1"),
	}
	first := AnalyzeCycles(rules)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeCycles(rules))
	}
}
