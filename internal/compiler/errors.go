package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/hashicorp/hcl/v2"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Field, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func cueError(field, msg string, pos token.Pos) *CompileError {
	ce := &CompileError{Field: field, Message: msg}
	if pos.IsValid() {
		ce.File = pos.Filename()
		ce.Line = pos.Line()
		ce.Column = pos.Column()
	}
	return ce
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return cueError("cue", first.Error(), positions[0])
	}
	return err
}

// formatHCLDiags converts the first error diagnostic to a CompileError.
func formatHCLDiags(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		ce := &CompileError{Field: "hcl", Message: d.Summary}
		if d.Detail != "" {
			ce.Message = d.Summary + ": " + d.Detail
		}
		if d.Subject != nil {
			ce.File = d.Subject.Filename
			ce.Line = d.Subject.Start.Line
			ce.Column = d.Subject.Start.Column
		}
		return ce
	}
	return nil
}
