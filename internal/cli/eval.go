package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/project"
	"github.com/roach88/prodrule/internal/runner"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Set     []string // X=a assignments
	Input   string   // JSON file with one object or an array of objects
	Random  bool     // bind every input to a random domain value
	Seed    uint64   // seed for --random
	DB      string   // record runs in this database
	Workers int      // parallelism for array inputs without --db
}

// EvalResult is the outcome of evaluating one input.
type EvalResult struct {
	Input  ir.Bindings `json:"input"`
	Output ir.Bindings `json:"output,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
	RunID  string      `json:"run_id,omitempty"`
	Seq    int64       `json:"seq,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <project>",
		Short: "Evaluate a project for an input binding",
		Long: `Evaluate a project against input bindings and print its outputs.

Inputs come from --set flags, a JSON file (--input) or --random. A JSON
file holds one object or an array of objects; null means unset. Unset
outputs are printed as (unset).

With --db every evaluation is recorded, together with its rule firings,
for later replay and querying.

Exit codes:
  0 - Every evaluation succeeded
  1 - An input variable was missing, or the rule set is unresolvable
  2 - Command error

Examples:
  prodrule eval ./demo --set X=a
  prodrule eval demo.esp --input cases.json --format json
  prodrule eval demo.esp --random --seed 7 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "bind an input variable (X=a), repeatable")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "JSON file with input bindings")
	cmd.Flags().BoolVar(&opts.Random, "random", false, "bind every input to a random value of its domain")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed for --random")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record runs in this SQLite database")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel evaluations for array inputs (0 = one per input)")

	return cmd
}

func runEval(opts *EvalOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	proj, err := loadProject(f, path)
	if err != nil {
		return err
	}
	if errs := compiler.Validate(proj); len(errs) > 0 {
		return f.Fail(ExitCommandError, ErrCodeLoadFailed, errs[0].Error(), errs)
	}

	in, err := buildInterpreter(ctx, f, proj)
	if err != nil {
		return err
	}

	inputs, err := evalInputs(opts, proj, in)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
	}

	var results []EvalResult
	if opts.DB != "" {
		results, err = recordEvals(cmd, f, opts.DB, proj.Name, in, inputs)
	} else {
		results, err = batchEvals(cmd, in, inputs, opts.Workers)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}

	if f.JSON() {
		if err := f.Success(results); err != nil {
			return err
		}
	} else {
		printEvals(f, results, in.Outputs())
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d evaluation(s) failed", failed))
	}
	return nil
}

// evalInputs assembles the input bindings from flags. --set applies on
// top of every other source.
func evalInputs(opts *EvalOptions, proj *ir.Project, in *engine.Interpreter) ([]ir.Bindings, error) {
	var inputs []ir.Bindings
	switch {
	case opts.Input != "" && opts.Random:
		return nil, errors.New("--input and --random are mutually exclusive")
	case opts.Input != "":
		loaded, err := readInputFile(opts.Input)
		if err != nil {
			return nil, err
		}
		inputs = loaded
	case opts.Random:
		rnd := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
		b, err := project.RandomInputs(proj.Variables, in.RequiredInputs(), rnd)
		if err != nil {
			return nil, err
		}
		inputs = []ir.Bindings{b}
	default:
		inputs = []ir.Bindings{{}}
	}

	for _, kv := range opts.Set {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid --set %q: expected VAR=value", kv)
		}
		for _, b := range inputs {
			b.Set(name, value)
		}
	}
	return inputs, nil
}

// readInputFile reads one binding object or an array of them.
func readInputFile(path string) ([]ir.Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []ir.Bindings
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, fmt.Errorf("parsing input file: %w", err)
		}
		for i := range many {
			if many[i] == nil {
				many[i] = ir.Bindings{}
			}
		}
		return many, nil
	}
	one := ir.Bindings{}
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parsing input file: %w", err)
	}
	return []ir.Bindings{one}, nil
}

// batchEvals evaluates in parallel without recording.
func batchEvals(cmd *cobra.Command, in *engine.Interpreter, inputs []ir.Bindings, workers int) ([]EvalResult, error) {
	batch, err := engine.EvaluateAll(commandContext(cmd), in, inputs, workers)
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("evaluation cancelled: %v", err))
	}
	results := make([]EvalResult, len(batch))
	for i, b := range batch {
		results[i] = EvalResult{Input: inputs[i], Output: b.Outputs, Error: evalError(b.Err)}
	}
	return results, nil
}

// recordEvals evaluates sequentially and records every run.
func recordEvals(cmd *cobra.Command, f *OutputFormatter, dbPath, name string, in *engine.Interpreter, inputs []ir.Bindings) ([]EvalResult, error) {
	ctx := commandContext(cmd)
	st, err := openStore(f, dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	hash, err := runner.Register(ctx, st, name, in)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("registering plan: %v", err), nil)
	}
	r := runner.New(st, in, hash)

	results := make([]EvalResult, len(inputs))
	for i, input := range inputs {
		run, err := r.Run(ctx, input)
		if err != nil && run.ID == "" {
			return nil, f.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
		}
		results[i] = EvalResult{Input: input, Output: run.Output, Error: evalError(err), RunID: run.ID, Seq: run.Seq}
		if err != nil {
			results[i].Output = nil
		}
	}
	return results, nil
}

func evalError(err error) *CLIError {
	if err == nil {
		return nil
	}
	var missing *engine.MissingInputBindingError
	if errors.As(err, &missing) {
		return &CLIError{Code: ErrCodeMissingInput, Message: missing.Error(), Details: missing}
	}
	return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

func printEvals(f *OutputFormatter, results []EvalResult, outputs []string) {
	w := f.Writer
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# input %d\n", i+1)
		}
		if r.RunID != "" {
			fmt.Fprintf(w, "run %s (seq %d)\n", r.RunID, r.Seq)
		}
		if r.Error != nil {
			fmt.Fprintf(w, "Error [%s]: %s\n", r.Error.Code, r.Error.Message)
			continue
		}
		for _, line := range ir.ResultLines(r.Output, outputs) {
			fmt.Fprintln(w, line)
		}
	}
}
