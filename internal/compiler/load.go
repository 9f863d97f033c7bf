package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/prodrule/internal/ir"
)

// LoadFile compiles a single .cue or .hcl project file.
func LoadFile(path string) (*ir.Project, error) {
	switch filepath.Ext(path) {
	case ".cue":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return CompileCUE(src, path)
	case ".hcl":
		return LoadHCLFile(path)
	default:
		return nil, fmt.Errorf("unsupported project file %s: want .cue or .hcl", path)
	}
}
