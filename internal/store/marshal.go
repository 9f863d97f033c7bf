package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/prodrule/internal/ir"
)

// marshalBindings converts bindings to canonical JSON TEXT for storage.
func marshalBindings(b ir.Bindings) (string, error) {
	if b == nil {
		b = ir.Bindings{}
	}
	data, err := b.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal bindings: %w", err)
	}
	return string(data), nil
}

// unmarshalBindings parses JSON TEXT to bindings; null entries become
// explicit unset entries.
func unmarshalBindings(data string) (ir.Bindings, error) {
	b := ir.Bindings{}
	if data == "" || data == "{}" {
		return b, nil
	}
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("unmarshal bindings: %w", err)
	}
	return b, nil
}

// marshalJSON encodes structured columns (rules, levels, pairs).
// HTML escaping is disabled so stored text matches canonical output.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalJSON(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}
