package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prodrule/internal/ir"
	"github.com/roach88/prodrule/internal/project"
)

// ProjectView is the printed form of an .esp project.
type ProjectView struct {
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	Variables []ir.Variable `json:"variables"`
	Rules     []string      `json:"rules"`
}

func projectView(p *project.Project) ProjectView {
	return ProjectView{
		Name:      p.Name(),
		Path:      p.Path(),
		Variables: p.Variables(),
		Rules:     p.RuleStrings(),
	}
}

// NewProjectCommand creates the project command and its editing
// subcommands.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and edit .esp projects",
		Long: `Create and edit rule-set projects stored as .esp/.var/.rul files.

Variables and values are named; rules are addressed by their 0-based
index, or "last". Every edit is validated and saved immediately; a
rejected edit leaves the files untouched.

Examples:
  prodrule project new ./work demo
  prodrule project add-var work/demo/demo.esp X a b
  prodrule project add-rule work/demo/demo.esp --if X=a --then Y=b
  prodrule project rm-if work/demo/demo.esp last
  prodrule project show work/demo/demo.esp`,
	}

	cmd.AddCommand(
		newProjectNewCommand(rootOpts),
		newProjectShowCommand(rootOpts),
		projectEditCommand(rootOpts, "add-var <esp> <var> [values...]", "Declare a variable", cobra.MinimumNArgs(2),
			func(p *project.Project, args []string) error {
				return p.AddVar(args[0], args[1:]...)
			}),
		projectEditCommand(rootOpts, "add-value <esp> <var> <values...>", "Extend a variable's domain", cobra.MinimumNArgs(3),
			func(p *project.Project, args []string) error {
				id, err := p.VarID(args[0])
				if err != nil {
					return err
				}
				return p.AddVarValues(id, args[1:]...)
			}),
		projectEditCommand(rootOpts, "rm-var <esp> <var>", "Remove a variable", cobra.ExactArgs(2),
			func(p *project.Project, args []string) error {
				id, err := p.VarID(args[0])
				if err != nil {
					return err
				}
				return p.DeleteVar(id)
			}),
		projectEditCommand(rootOpts, "rm-value <esp> <var> <value>", "Remove a value from a domain", cobra.ExactArgs(3),
			func(p *project.Project, args []string) error {
				id, valueID, err := valueIDs(p, args[0], args[1])
				if err != nil {
					return err
				}
				return p.DeleteVarValue(id, valueID)
			}),
		projectEditCommand(rootOpts, "rename-var <esp> <var> <new-name>", "Rename a variable and its uses", cobra.ExactArgs(3),
			func(p *project.Project, args []string) error {
				id, err := p.VarID(args[0])
				if err != nil {
					return err
				}
				return p.RenameVar(id, args[1])
			}),
		projectEditCommand(rootOpts, "rename-value <esp> <var> <value> <new-value>", "Rename a value and its uses", cobra.ExactArgs(4),
			func(p *project.Project, args []string) error {
				id, valueID, err := valueIDs(p, args[0], args[1])
				if err != nil {
					return err
				}
				return p.RenameVarValue(id, valueID, args[2])
			}),
		newProjectAddRuleCommand(rootOpts),
		projectEditCommand(rootOpts, "rm-rule <esp> <rule>", "Remove a rule", cobra.ExactArgs(2),
			func(p *project.Project, args []string) error {
				id, err := parseRuleIndex(args[0])
				if err != nil {
					return err
				}
				return p.DeleteRule(id)
			}),
		projectEditCommand(rootOpts, "add-if <esp> <rule> <VAR=value>", "Append an IF pair to a rule", cobra.ExactArgs(3),
			func(p *project.Project, args []string) error {
				id, pair, err := ruleAndPair(args[0], args[1])
				if err != nil {
					return err
				}
				return p.AddIfPair(id, pair)
			}),
		projectEditCommand(rootOpts, "add-then <esp> <rule> <VAR=value>", "Append a THEN pair to a rule", cobra.ExactArgs(3),
			func(p *project.Project, args []string) error {
				id, pair, err := ruleAndPair(args[0], args[1])
				if err != nil {
					return err
				}
				return p.AddThenPair(id, pair)
			}),
		projectEditCommand(rootOpts, "rm-if <esp> <rule>", "Drop the last IF pair of a rule", cobra.ExactArgs(2),
			func(p *project.Project, args []string) error {
				id, err := parseRuleIndex(args[0])
				if err != nil {
					return err
				}
				return p.DeleteIfPair(id)
			}),
		projectEditCommand(rootOpts, "rm-then <esp> <rule>", "Drop the last THEN pair of a rule", cobra.ExactArgs(2),
			func(p *project.Project, args []string) error {
				id, err := parseRuleIndex(args[0])
				if err != nil {
					return err
				}
				return p.DeleteThenPair(id)
			}),
	)

	return cmd
}

func newProjectNewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "new <dir> <name>",
		Short:         "Create an empty project in dir/name/",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			p, err := project.Create(args[0], args[1])
			if err != nil {
				return projectFail(f, err)
			}
			return reportProject(f, p, fmt.Sprintf("Created %s", p.Path()))
		},
	}
}

func newProjectShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <esp>",
		Short:         "Print a project's variables and rules",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			p, err := project.Open(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
			}
			return reportProject(f, p, "")
		},
	}
}

func newProjectAddRuleCommand(rootOpts *RootOptions) *cobra.Command {
	var ifs, thens []string

	cmd := projectEditCommand(rootOpts, "add-rule <esp>", "Append a rule", cobra.ExactArgs(1),
		func(p *project.Project, _ []string) error {
			ifPairs, err := parsePairs(ifs)
			if err != nil {
				return err
			}
			thenPairs, err := parsePairs(thens)
			if err != nil {
				return err
			}
			return p.AddRule(ir.Rule{If: ifPairs, Then: thenPairs})
		})
	cmd.Flags().StringArrayVar(&ifs, "if", nil, "IF pair VAR=value, repeatable")
	cmd.Flags().StringArrayVar(&thens, "then", nil, "THEN pair VAR=value, repeatable")
	return cmd
}

// projectEditCommand builds a subcommand that opens the .esp file named by
// the first argument, applies edit to the remaining arguments and saves.
func projectEditCommand(rootOpts *RootOptions, use, short string, args cobra.PositionalArgs, edit func(*project.Project, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			p, err := project.Open(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
			}
			if err := edit(p, args[1:]); err != nil {
				return projectFail(f, err)
			}
			if err := p.Save(); err != nil {
				return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
			}
			f.VerboseLog("Saved %s", p.Path())
			return reportProject(f, p, fmt.Sprintf("Updated %s", p.Path()))
		},
	}
}

// projectFail reports a rejected edit. The project error code is kept
// in the details.
func projectFail(f *OutputFormatter, err error) error {
	var pe *project.Error
	if errors.As(err, &pe) {
		return f.Fail(ExitFailure, ErrCodeProject, pe.Error(), map[string]any{"code": int(pe.Code), "subject": pe.Subject})
	}
	return f.Fail(ExitCommandError, ErrCodeInvalidArg, err.Error(), nil)
}

func reportProject(f *OutputFormatter, p *project.Project, headline string) error {
	view := projectView(p)
	if f.JSON() {
		return f.Success(view)
	}
	w := f.Writer
	if headline != "" {
		fmt.Fprintf(w, "\u2713 %s\n\n", headline)
	}
	fmt.Fprintf(w, "Project %s\n", view.Name)
	fmt.Fprintln(w, "Variables:")
	if len(view.Variables) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, v := range view.Variables {
		fmt.Fprintf(w, "  %d %s: %s\n", i, v.Name, strings.Join(v.Domain, " "))
	}
	fmt.Fprintln(w, "Rules:")
	if len(view.Rules) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, r := range view.Rules {
		fmt.Fprintf(w, "  %d %s\n", i, r)
	}
	return nil
}

func valueIDs(p *project.Project, varName, value string) (int, int, error) {
	id, err := p.VarID(varName)
	if err != nil {
		return 0, 0, err
	}
	valueID, err := p.ValueID(id, value)
	if err != nil {
		return 0, 0, err
	}
	return id, valueID, nil
}

// parseRuleIndex accepts a 0-based rule index or "last".
func parseRuleIndex(s string) (int, error) {
	if s == "last" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid rule index %q", s)
	}
	return n, nil
}

func parsePair(s string) (ir.Pair, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" || value == "" {
		return ir.Pair{}, fmt.Errorf("invalid pair %q: expected VAR=value", s)
	}
	return ir.Pair{Var: name, Value: value}, nil
}

func parsePairs(terms []string) ([]ir.Pair, error) {
	pairs := make([]ir.Pair, 0, len(terms))
	for _, t := range terms {
		pair, err := parsePair(t)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func ruleAndPair(index, pair string) (int, ir.Pair, error) {
	id, err := parseRuleIndex(index)
	if err != nil {
		return 0, ir.Pair{}, err
	}
	p, err := parsePair(pair)
	if err != nil {
		return 0, ir.Pair{}, err
	}
	return id, p, nil
}
