package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainRuleSet  = "prodrule/ruleset/v1"
	DomainBindings = "prodrule/bindings/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleSetHash computes the content-addressed identity of a rule set.
//
// Variable declaration order and rule order both participate: reordering
// rules changes tie-break order within a level and therefore the identity.
// Variable domains are excluded since the engine never reads them.
func RuleSetHash(varNames []string, rules []Rule) (string, error) {
	ruleList := make([]any, len(rules))
	for i, r := range rules {
		ruleList[i] = map[string]any{
			"name": r.Name,
			"if":   pairsToCanonical(r.If),
			"then": pairsToCanonical(r.Then),
		}
	}
	obj := map[string]any{
		"variables": varNames,
		"rules":     ruleList,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// BindingHash computes the identity of a binding set. Used to compare
// recorded outputs against replayed ones.
func BindingHash(b Bindings) (string, error) {
	canonical, err := MarshalCanonical(b)
	if err != nil {
		return "", fmt.Errorf("BindingHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBindings, canonical), nil
}

// MustRuleSetHash is like RuleSetHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRuleSetHash(varNames []string, rules []Rule) string {
	h, err := RuleSetHash(varNames, rules)
	if err != nil {
		panic(err)
	}
	return h
}

// MustBindingHash is like BindingHash but panics on error.
func MustBindingHash(b Bindings) string {
	h, err := BindingHash(b)
	if err != nil {
		panic(err)
	}
	return h
}

func pairsToCanonical(pairs []Pair) []any {
	out := make([]any, len(pairs))
	for i, p := range pairs {
		out[i] = []any{p.Var, p.Value}
	}
	return out
}
