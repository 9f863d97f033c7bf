package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the classification and stratification of a project.
type CompilationResult struct {
	Name      string       `json:"name"`
	Hash      string       `json:"hash"`
	Inputs    []string     `json:"inputs"`
	Internals []string     `json:"internals"`
	Outputs   []string     `json:"outputs"`
	Unused    []string     `json:"unused"`
	Levels    [][]string   `json:"levels"` // rule labels per level
	Plan      *engine.Plan `json:"plan"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <project>",
		Short: "Classify variables and stratify rules",
		Long: `Compile a project definition into an evaluation plan.

The project may be a directory of .cue files, a .cue or .hcl file, or an
.esp project. The command prints which variables are inputs, internals
and outputs, and the rules of every level.

Exit codes:
  0 - Plan built
  1 - Some rules can never fire (unresolvable dependency)
  2 - Command error (project not found or malformed)

Examples:
  prodrule compile ./demo
  prodrule compile demo.hcl --format json
  prodrule compile demo.esp --output plan.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled plan as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	proj, err := loadProject(f, path)
	if err != nil {
		return err
	}
	f.VerboseLog("Loaded %d variable(s), %d rule(s) from %s", len(proj.Variables), len(proj.Rules), path)

	in, err := buildInterpreter(ctx, f, proj)
	if err != nil {
		return err
	}

	result, err := compilationResult(proj, in)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writePlanFile(result, opts.Output); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if f.JSON() {
		return f.Success(result)
	}
	printCompilation(f, result, opts.Output)
	return nil
}

func compilationResult(proj *ir.Project, in *engine.Interpreter) (*CompilationResult, error) {
	hash, err := ir.RuleSetHash(in.Declared(), in.Rules())
	if err != nil {
		return nil, err
	}
	class := in.Classification()
	plan := in.Plan()
	labels := ruleLabels(plan.Rules)

	levels := make([][]string, plan.Len())
	for i, level := range plan.Levels {
		levels[i] = make([]string, len(level))
		for j, idx := range level {
			levels[i][j] = labels[idx]
		}
	}

	return &CompilationResult{
		Name:      proj.Name,
		Hash:      hash,
		Inputs:    class.Inputs,
		Internals: class.Internals,
		Outputs:   class.Outputs,
		Unused:    class.Unused,
		Levels:    levels,
		Plan:      plan,
	}, nil
}

func printCompilation(f *OutputFormatter, r *CompilationResult, outputFile string) {
	w := f.Writer
	fmt.Fprintf(w, "\u2713 Compiled %d rule(s) into %d level(s)\n\n", len(r.Plan.Rules), len(r.Levels))

	fmt.Fprintf(w, "Inputs:    %s\n", listOrNone(r.Inputs))
	fmt.Fprintf(w, "Internals: %s\n", listOrNone(r.Internals))
	fmt.Fprintf(w, "Outputs:   %s\n", listOrNone(r.Outputs))
	if len(r.Unused) > 0 {
		fmt.Fprintf(w, "Unused:    %s\n", listOrNone(r.Unused))
	}
	fmt.Fprintln(w)

	labels := ruleLabels(r.Plan.Rules)
	for i, level := range r.Plan.Levels {
		fmt.Fprintf(w, "Level %d:\n", i)
		for _, idx := range level {
			fmt.Fprintf(w, "  %s: %s\n", labels[idx], r.Plan.Rules[idx])
		}
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote plan to %s\n", outputFile)
	}
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

// writePlanFile writes the compilation result as indented JSON.
// Canonical JSON is reserved for hashing.
func writePlanFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
