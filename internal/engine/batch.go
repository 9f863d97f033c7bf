package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/prodrule/internal/ir"
)

// BatchResult is the outcome of one evaluation in EvaluateAll.
type BatchResult struct {
	Outputs ir.Bindings
	Err     error
}

// EvaluateAll evaluates every input against in using at most workers
// goroutines (workers <= 0 means one per input). Results are returned in
// input order. Per-input evaluation errors are reported in the matching
// BatchResult; the returned error is non-nil only when ctx is cancelled
// before all inputs were evaluated. A cancellation that lands after the
// last evaluation finished does not discard the results.
//
// The interpreter's observer is not used; batch evaluation is silent.
func EvaluateAll(ctx context.Context, in *Interpreter, inputs []ir.Bindings, workers int) ([]BatchResult, error) {
	results := make([]BatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out, err := in.EvaluateWith(input, NopObserver{})
			results[i] = BatchResult{Outputs: out, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
