package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnresolvableDependency indicates plan construction found rules
	// whose IF variables can never become defined.
	ErrCodeUnresolvableDependency ErrorCode = "UNRESOLVABLE_DEPENDENCY"

	// ErrCodeMissingInputBinding indicates evaluation was called without a
	// value for a required input variable.
	ErrCodeMissingInputBinding ErrorCode = "MISSING_INPUT_BINDING"
)

// UnmetRule describes one rule that could not be placed in any level.
type UnmetRule struct {
	Index int      `json:"index"` // Position in the rule set
	Label string   `json:"label"` // Rule name or "R<n>"
	Vars  []string `json:"vars"`  // IF variables never defined
}

// UnresolvableDependencyError is returned by plan construction when some
// rules read variables that are neither inputs nor produced by any
// placeable rule.
type UnresolvableDependencyError struct {
	// Unmet lists the unplaceable rules in rule-set order.
	Unmet []UnmetRule

	// Cycles lists variable cycles among the unmet rules, each as a closed
	// path such as ["X", "Y", "X"]. Empty when the failure is caused only by
	// variables nothing writes.
	Cycles [][]string

	// LevelCap is the level limit that was in force.
	LevelCap int
}

// Code returns ErrCodeUnresolvableDependency.
func (e *UnresolvableDependencyError) Code() ErrorCode {
	return ErrCodeUnresolvableDependency
}

// Error implements the error interface.
func (e *UnresolvableDependencyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d rule(s) can never fire", e.Code(), len(e.Unmet))
	for i, u := range e.Unmet {
		if i == 0 {
			sb.WriteString(" (")
		} else {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s reads %s", u.Label, strings.Join(u.Vars, ", "))
	}
	if len(e.Unmet) > 0 {
		sb.WriteString(")")
	}
	for _, c := range e.Cycles {
		fmt.Fprintf(&sb, "; cycle %s", strings.Join(c, " -> "))
	}
	return sb.String()
}

// MissingInputBindingError is returned by evaluation when a required input
// has no concrete value. No rule is evaluated when it is returned.
type MissingInputBindingError struct {
	// Var is the first missing input in declaration order.
	Var string

	// Missing lists every missing input in declaration order.
	Missing []string
}

// Code returns ErrCodeMissingInputBinding.
func (e *MissingInputBindingError) Code() ErrorCode {
	return ErrCodeMissingInputBinding
}

// Error implements the error interface.
func (e *MissingInputBindingError) Error() string {
	if len(e.Missing) > 1 {
		return fmt.Sprintf("%s: no value for input %q (also missing: %s)",
			e.Code(), e.Var, strings.Join(e.Missing[1:], ", "))
	}
	return fmt.Sprintf("%s: no value for input %q", e.Code(), e.Var)
}

// IsUnresolvableDependency reports whether err is, or wraps, an
// UnresolvableDependencyError.
func IsUnresolvableDependency(err error) bool {
	var ue *UnresolvableDependencyError
	return errors.As(err, &ue)
}

// IsMissingInputBinding reports whether err is, or wraps, a
// MissingInputBindingError.
func IsMissingInputBinding(err error) bool {
	var me *MissingInputBindingError
	return errors.As(err, &me)
}
