package store

import (
	"context"
	"fmt"

	"github.com/roach88/prodrule/internal/ir"
)

// WritePlan inserts a plan record. Uses ON CONFLICT(hash) DO NOTHING:
// a plan is identified by its rule-set hash, so rewriting it is a no-op.
func (s *Store) WritePlan(ctx context.Context, p PlanRecord) error {
	vars := p.Variables
	if vars == nil {
		vars = []string{}
	}
	varsJSON, err := marshalJSON(vars)
	if err != nil {
		return fmt.Errorf("write plan: marshal variables: %w", err)
	}

	rules := p.Rules
	if rules == nil {
		rules = []ir.Rule{}
	}
	rulesJSON, err := marshalJSON(rules)
	if err != nil {
		return fmt.Errorf("write plan: marshal rules: %w", err)
	}

	levels := p.Levels
	if levels == nil {
		levels = [][]int{}
	}
	levelsJSON, err := marshalJSON(levels)
	if err != nil {
		return fmt.Errorf("write plan: marshal levels: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans
		(hash, name, variables, rules, levels, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		p.Hash,
		p.Name,
		varsJSON,
		rulesJSON,
		levelsJSON,
		p.EngineVersion,
		p.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// WriteRun inserts a run and its firings in a single transaction.
// The plan referenced by PlanHash must exist (foreign key constraint).
// Firings are renumbered by slice position; their RunID is taken from run.
func (s *Store) WriteRun(ctx context.Context, run Run, firings []Firing) error {
	inputJSON, err := marshalBindings(run.Input)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	outputJSON, err := marshalBindings(run.Output)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, plan_hash, seq, input, output, output_hash, error_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.PlanHash,
		run.Seq,
		inputJSON,
		outputJSON,
		run.OutputHash,
		run.ErrorCode,
	)
	if err != nil {
		return fmt.Errorf("write run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO firings
		(run_id, ordinal, level, rule_index, fired, pairs)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare firings: %w", err)
	}
	defer stmt.Close()

	for i, f := range firings {
		pairs := f.Pairs
		if pairs == nil {
			pairs = []ir.Pair{}
		}
		pairsJSON, err := marshalJSON(pairs)
		if err != nil {
			return fmt.Errorf("write run: marshal firing %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, f.Level, f.Rule, boolToInt(f.Fired), pairsJSON); err != nil {
			return fmt.Errorf("write run: insert firing %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
