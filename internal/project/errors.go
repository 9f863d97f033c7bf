package project

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an editing failure. The numeric values are stable
// and appear in error text.
type ErrorCode int

const (
	NoErrors ErrorCode = iota
	InvalidIdentifier
	IdentifierAlreadyExists
	UnknownVariableID
	UnknownVariableName
	UnknownValueID
	UnknownValueName
	UnknownRuleID
)

var messages = map[ErrorCode]string{
	NoErrors:                "No Errors.",
	InvalidIdentifier:       "Invalid Identifier: Identifier must consist only of letters, digits and underscores, and must not begin with a digit.",
	IdentifierAlreadyExists: "Identifier already exists.",
	UnknownVariableID:       "Unknown Variable Id.",
	UnknownVariableName:     "Unknown Variable Name.",
	UnknownValueID:          "Unknown Value Id.",
	UnknownValueName:        "Unknown Value Name.",
	UnknownRuleID:           "Unknown Rule Id.",
}

// Message returns the human-readable text for the code.
func (c ErrorCode) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return fmt.Sprintf("Unknown error code %d.", int(c))
}

// Error is returned by every editing operation that rejects its arguments.
// The project is unchanged when an Error is returned.
type Error struct {
	Code ErrorCode
	// Subject is the identifier or index that was rejected, if any.
	Subject string
}

func newError(code ErrorCode, subject string) *Error {
	return &Error{Code: code, Subject: subject}
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("Error code %d: %s (%s)", int(e.Code), e.Code.Message(), e.Subject)
	}
	return fmt.Sprintf("Error code %d: %s", int(e.Code), e.Code.Message())
}

// CodeOf returns the ErrorCode carried by err, or NoErrors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return NoErrors
}
