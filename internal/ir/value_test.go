package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_UnsetIsNotEmptyString(t *testing.T) {
	assert.False(t, Unset().IsSet())
	assert.True(t, Set("").IsSet())
	assert.NotEqual(t, Unset(), Set(""))

	assert.False(t, Unset().Matches(""), "unset never matches, not even the empty string")
	assert.True(t, Set("").Matches(""))
	assert.False(t, Set("a").Matches("b"))
}

func TestValue_ZeroValueIsUnset(t *testing.T) {
	var v Value
	assert.Equal(t, Unset(), v)
	_, ok := v.Get()
	assert.False(t, ok)
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "a", Set("a").String())
	assert.Equal(t, "(unset)", Unset().String())
}

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		json string
	}{
		{"set", Set("a"), `"a"`},
		{"empty", Set(""), `""`},
		{"unset", Unset(), `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.json, string(data))

			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.val, got)
		})
	}
}

func TestValue_UnmarshalRejectsNonString(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`42`), &v))
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestBindings_CloneIsIndependent(t *testing.T) {
	orig := FromStrings(map[string]string{"X": "a"})
	clone := orig.Clone()
	clone.Set("X", "b")
	clone.Set("Y", "c")

	assert.Equal(t, Set("a"), orig.Get("X"))
	assert.False(t, orig.Get("Y").IsSet())
	assert.Len(t, orig, 1)
}

func TestBindings_ProjectReportsUnsetExplicitly(t *testing.T) {
	b := FromStrings(map[string]string{"X": "a", "Y": "b"})
	p := b.Project([]string{"Y", "Z"})

	require.Len(t, p, 2)
	assert.Equal(t, Set("b"), p["Y"])
	v, present := p["Z"]
	assert.True(t, present, "missing names must appear as explicit unset entries")
	assert.False(t, v.IsSet())
}

func TestBindings_Equal(t *testing.T) {
	a := Bindings{"X": Set("a"), "Y": Unset()}
	b := Bindings{"X": Set("a")}
	assert.True(t, a.Equal(b), "explicit unset equals absent")

	c := Bindings{"X": Set("a"), "Y": Set("")}
	assert.False(t, a.Equal(c))
}

func TestBindings_JSONRoundTrip(t *testing.T) {
	b := Bindings{"Z": Unset(), "A": Set("x")}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"A":"x","Z":null}`, string(data))

	var got Bindings
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, b.Equal(got))
	_, present := got["Z"]
	assert.True(t, present)
}
