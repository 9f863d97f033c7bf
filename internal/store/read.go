package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a plan or run does not exist.
var ErrNotFound = errors.New("not found")

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadPlan retrieves a plan by hash.
// Returns an error wrapping ErrNotFound if it does not exist.
func (s *Store) ReadPlan(ctx context.Context, hash string) (PlanRecord, error) {
	var p PlanRecord
	var varsJSON, rulesJSON, levelsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, name, variables, rules, levels, engine_version, ir_version
		FROM plans
		WHERE hash = ?
	`, hash).Scan(&p.Hash, &p.Name, &varsJSON, &rulesJSON, &levelsJSON, &p.EngineVersion, &p.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, fmt.Errorf("plan %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return PlanRecord{}, fmt.Errorf("read plan: %w", err)
	}

	if err := unmarshalJSON(varsJSON, &p.Variables); err != nil {
		return PlanRecord{}, fmt.Errorf("read plan: variables: %w", err)
	}
	if err := unmarshalJSON(rulesJSON, &p.Rules); err != nil {
		return PlanRecord{}, fmt.Errorf("read plan: rules: %w", err)
	}
	if err := unmarshalJSON(levelsJSON, &p.Levels); err != nil {
		return PlanRecord{}, fmt.Errorf("read plan: levels: %w", err)
	}
	return p, nil
}

// ReadRun retrieves a single run by ID.
// Returns an error wrapping ErrNotFound if it does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, plan_hash, seq, input, output, output_hash, error_code
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListRuns returns the runs of one plan (all plans when planHash is empty)
// in log order.
func (s *Store) ListRuns(ctx context.Context, planHash string) ([]Run, error) {
	query := `
		SELECT id, plan_hash, seq, input, output, output_hash, error_code
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	var args []any
	if planHash != "" {
		query = `
		SELECT id, plan_hash, seq, input, output, output_hash, error_code
		FROM runs
		WHERE plan_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
		args = append(args, planHash)
	}
	return s.queryRuns(ctx, query, args...)
}

// ReadFirings returns the trace of a run in firing order.
// Returns an empty slice (not nil) for a run without firings.
func (s *Store) ReadFirings(ctx context.Context, runID string) ([]Firing, error) {
	return s.queryFirings(ctx, `
		SELECT run_id, ordinal, level, rule_index, fired, pairs
		FROM firings
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
}

// GetLastSeq returns the highest seq recorded, or 0 for an empty log.
// Used to resume the logical clock.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM runs
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) queryFirings(ctx context.Context, query string, args ...any) ([]Firing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	firings := []Firing{}
	for rows.Next() {
		f, err := scanFiring(rows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return firings, nil
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var inputJSON, outputJSON string
	err := sc.Scan(&run.ID, &run.PlanHash, &run.Seq, &inputJSON, &outputJSON, &run.OutputHash, &run.ErrorCode)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.Input, err = unmarshalBindings(inputJSON); err != nil {
		return Run{}, fmt.Errorf("scan run %s: input: %w", run.ID, err)
	}
	if run.Output, err = unmarshalBindings(outputJSON); err != nil {
		return Run{}, fmt.Errorf("scan run %s: output: %w", run.ID, err)
	}
	return run, nil
}

func scanFiring(sc scanner) (Firing, error) {
	var f Firing
	var fired int
	var pairsJSON string
	if err := sc.Scan(&f.RunID, &f.Ordinal, &f.Level, &f.Rule, &fired, &pairsJSON); err != nil {
		return Firing{}, fmt.Errorf("scan firing: %w", err)
	}
	f.Fired = fired == 1
	if err := unmarshalJSON(pairsJSON, &f.Pairs); err != nil {
		return Firing{}, fmt.Errorf("scan firing: pairs: %w", err)
	}
	return f, nil
}
