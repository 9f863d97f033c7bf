package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Value is a variable's state: either a concrete string or unset.
//
// The zero Value is unset. Set("") is a concrete empty string and is
// never equal to an unset Value.
type Value struct {
	s   string
	set bool
}

// Set returns a concrete Value.
func Set(s string) Value {
	return Value{s: s, set: true}
}

// Unset returns the unset Value.
func Unset() Value {
	return Value{}
}

// IsSet reports whether the value is concrete.
func (v Value) IsSet() bool {
	return v.set
}

// Get returns the concrete string and whether the value is set.
func (v Value) Get() (string, bool) {
	return v.s, v.set
}

// Matches reports whether v is set and equal to s.
// An unset value never matches anything.
func (v Value) Matches(s string) bool {
	return v.set && v.s == s
}

// String renders the value for display; unset renders as "(unset)".
func (v Value) String() string {
	if !v.set {
		return "(unset)"
	}
	return v.s
}

// MarshalJSON encodes a set value as a JSON string and unset as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON accepts a JSON string or null. Any other JSON type is
// rejected: values are strings only.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Unset()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value must be a string or null: %s", string(data))
	}
	*v = Set(s)
	return nil
}

// Bindings maps variable names to values. A missing key is unset.
type Bindings map[string]Value

// FromStrings builds Bindings with every entry set.
func FromStrings(m map[string]string) Bindings {
	b := make(Bindings, len(m))
	for k, s := range m {
		b[k] = Set(s)
	}
	return b
}

// Get returns the value bound to name (unset if absent).
func (b Bindings) Get(name string) Value {
	return b[name]
}

// Set binds name to a concrete value.
func (b Bindings) Set(name, value string) {
	b[name] = Set(value)
}

// Unset binds name to the unset value explicitly.
func (b Bindings) Unset(name string) {
	b[name] = Unset()
}

// Clone returns an independent copy.
func (b Bindings) Clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Project returns a new Bindings holding exactly names, each reported
// explicitly (absent names become unset entries).
func (b Bindings) Project(names []string) Bindings {
	out := make(Bindings, len(names))
	for _, n := range names {
		out[n] = b[n]
	}
	return out
}

// SortedKeys returns keys in RFC 8785 canonical order.
func (b Bindings) SortedKeys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Equal reports whether both bindings hold the same entries. An explicit
// unset entry equals an absent one.
func (b Bindings) Equal(other Bindings) bool {
	for k, v := range b {
		if other[k] != v {
			return false
		}
	}
	for k, v := range other {
		if b[k] != v {
			return false
		}
	}
	return true
}

// MarshalJSON encodes bindings with keys in canonical order.
func (b Bindings) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(b))
	for k, v := range b {
		obj[k] = v
	}
	return MarshalCanonical(obj)
}
