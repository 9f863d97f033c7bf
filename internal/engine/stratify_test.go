package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodrule/internal/ir"
)

func TestStratify_Chain(t *testing.T) {
	plan, err := Stratify(chainRules(), []string{"X"}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0}, {1}}, plan.Levels)
	assert.Equal(t, []string{"X"}, plan.Inputs)
}

func TestStratify_EmptyRuleSet(t *testing.T) {
	plan, err := Stratify(nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{}}, plan.Levels, "level 0 always exists")
}

func TestStratify_VacuousRulesStayAtLevelZero(t *testing.T) {
	rules := []ir.Rule{
		rule("", "A=1"),
		rule("A=1", "B=1"),
		rule("", "C=1"),
	}
	plan, err := Stratify(rules, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0, 2}, {1}}, plan.Levels)
}

func TestStratify_LiftedRulesKeepOrder(t *testing.T) {
	// R1 and R3 need Y; R2 produces it; R4 needs W from R3.
	rules := []ir.Rule{
		rule("Y=b", "Z=1"),
		rule("X=a", "Y=b"),
		rule("Y=b", "W=1"),
		rule("W=1", "V=1"),
		rule("X=a", "U=1"),
	}
	plan, err := Stratify(rules, []string{"X"}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, 4}, {0, 2}, {3}}, plan.Levels)
}

func TestStratify_WriterInSameLevelDoesNotDefine(t *testing.T) {
	// R2 precedes R1 in a level only if Y is defined before that level.
	rules := []ir.Rule{
		rule("X=a", "Y=b"),
		rule("Y=b", "Y=c"),
	}
	plan, err := Stratify(rules, []string{"X"}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0}, {1}}, plan.Levels)
}

func TestStratify_Partition(t *testing.T) {
	rules := []ir.Rule{
		rule("A=1", "B=1"),
		rule("B=1", "C=1"),
		rule("C=1,A=1", "D=1"),
		rule("", "E=1"),
		rule("E=1,D=1", "F=1"),
		rule("A=2", "C=2"),
	}
	plan, err := Stratify(rules, []string{"A"}, nil)
	require.NoError(t, err)

	count := map[int]int{}
	for _, level := range plan.Levels {
		for i := 1; i < len(level); i++ {
			assert.Less(t, level[i-1], level[i], "rules within a level keep rule-set order")
		}
		for _, idx := range level {
			count[idx]++
		}
	}
	require.Len(t, count, len(rules))
	for idx := range rules {
		assert.Equal(t, 1, count[idx], "rule %d must appear exactly once", idx)
	}

	// Every rule sits in its minimal level.
	assert.Equal(t, [][]int{{0, 3, 5}, {1, 2}, {4}}, plan.Levels)
}

func TestStratify_CyclicDependency(t *testing.T) {
	plan, err := Stratify(cyclicRules(), nil, nil)
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.True(t, IsUnresolvableDependency(err))

	var ue *UnresolvableDependencyError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []UnmetRule{
		{Index: 0, Label: "R1", Vars: []string{"X"}},
		{Index: 1, Label: "R2", Vars: []string{"Y"}},
	}, ue.Unmet)
	assert.Equal(t, [][]string{{"X", "Y", "X"}}, ue.Cycles)
	assert.Equal(t, 3, ue.LevelCap)
	assert.Contains(t, err.Error(), "R1 reads X")
	assert.Contains(t, err.Error(), "cycle X -> Y -> X")
}

func TestStratify_UnproducibleVariable(t *testing.T) {
	rules := []ir.Rule{
		rule("X=a", "Y=b"),
		{Name: "needs-q", If: pairs("Y=b,Q=1"), Then: pairs("Z=1")},
	}
	_, err := Stratify(rules, []string{"X"}, nil)

	var ue *UnresolvableDependencyError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []UnmetRule{{Index: 1, Label: "needs-q", Vars: []string{"Q"}}}, ue.Unmet)
	assert.Empty(t, ue.Cycles)
}

func TestStratify_CycleBrokenByInput(t *testing.T) {
	// X is an input, so the X/Y loop resolves.
	plan, err := Stratify(cyclicRules(), []string{"X"}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0}, {1}}, plan.Levels)
}

func TestStratify_ObserverEvents(t *testing.T) {
	rec := NewRecorder()
	_, err := Stratify(chainRules(), []string{"X"}, rec)
	require.NoError(t, err)

	assert.Equal(t, []TraceEvent{
		{Kind: EventLifted, Level: 0, Rule: 1, Var: "Y"},
		{Kind: EventLevelClosed, Level: 0, Rule: -1, Rules: []int{0}},
		{Kind: EventLevelClosed, Level: 1, Rule: -1, Rules: []int{1}},
	}, rec.Events())
}

func TestPlan_LevelHelpers(t *testing.T) {
	plan, err := Stratify(chainRules(), []string{"X"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []ir.Rule{chainRules()[1]}, plan.Level(1))
	assert.Equal(t, 2, plan.Len())
	assert.Equal(t, 0, plan.LevelOf(0))
	assert.Equal(t, 1, plan.LevelOf(1))
	assert.Equal(t, -1, plan.LevelOf(7))
}
