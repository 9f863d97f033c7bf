package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/ir"
)

// Load reads a project definition from any supported source: a directory
// of .cue files, a single .cue or .hcl file, or an .esp project.
func Load(path string) (*ir.Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	if info.IsDir() {
		return compiler.LoadDir(path)
	}
	if filepath.Ext(path) == ".esp" {
		p, err := Open(path)
		if err != nil {
			return nil, err
		}
		return p.IR(), nil
	}
	return compiler.LoadFile(path)
}
