package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/compiler"
	"github.com/roach88/prodrule/internal/ctxlog"
	"github.com/roach88/prodrule/internal/engine"
	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/project"
	"github.com/roach88/prodrule/internal/store"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadProject loads a project definition and reports failures through f.
func loadProject(f *OutputFormatter, path string) (*ir.Project, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("project not found: %s", path), nil)
	}
	proj, err := project.Load(path)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return nil, f.Fail(ExitCommandError, ErrCodeLoadFailed, compileErr.Error(), compileErr)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
	}
	return proj, nil
}

// buildInterpreter builds the plan for proj. With --verbose the engine's
// plan and evaluation events are logged at debug level.
func buildInterpreter(ctx context.Context, f *OutputFormatter, proj *ir.Project) (*engine.Interpreter, error) {
	in, err := engine.BuildPlan(proj.VarNames(), proj.Rules, engine.WithLogger(ctxlog.FromContext(ctx)))
	if err != nil {
		return nil, planError(f, err)
	}
	return in, nil
}

// planError reports a plan construction failure. Unresolvable rule sets
// are failures of the input, not of the command.
func planError(f *OutputFormatter, err error) error {
	var ue *engine.UnresolvableDependencyError
	if errors.As(err, &ue) {
		return f.Fail(ExitFailure, ErrCodeUnresolvable, ue.Error(), ue)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// openStore opens the run log and reports failures through f.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	return st, nil
}

// requireDB opens an existing run log. Opening a missing path would
// silently create an empty database.
func requireDB(f *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}
	return openStore(f, path)
}

// ruleLabels returns the display label of every rule.
func ruleLabels(rules []ir.Rule) []string {
	labels := make([]string, len(rules))
	for i, r := range rules {
		labels[i] = r.Label(i)
	}
	return labels
}
