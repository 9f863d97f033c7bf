package store

import (
	"context"
	"fmt"

	"github.com/roach88/prodrule/internal/queryir"
	"github.com/roach88/prodrule/internal/querysql"
)

// FindRuns returns the runs matching q in log order.
func (s *Store) FindRuns(ctx context.Context, q queryir.Runs) ([]Run, error) {
	query, args, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	return s.queryRuns(ctx, query, args...)
}

// FindFirings returns the firings of one run matching q in firing order.
func (s *Store) FindFirings(ctx context.Context, q queryir.Firings) ([]Firing, error) {
	query, args, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find firings: %w", err)
	}
	return s.queryFirings(ctx, query, args...)
}
