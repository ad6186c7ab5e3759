package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sourcegraph/conc/pool"

	"github.com/nathiss/franklin/internal/model"
)

var ErrWorkerFailure = errors.New("evaluation worker failed")

// Evaluator mutates and scores every non-elite candidate on a bounded pool of
// goroutines and returns once all of them are done.
type Evaluator struct {
	workers int
}

func NewEvaluator(workers int) (*Evaluator, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be > 0")
	}
	return &Evaluator{workers: workers}, nil
}

func (e *Evaluator) Workers() int {
	return e.workers
}

// Evaluate runs one task per candidate. Index 0 is never mutated; it is only
// scored while it still carries the unscored sentinel. seeds[i] seeds the
// random source of task i so the outcome does not depend on scheduling.
func (e *Evaluator) Evaluate(rc *RunContext, population []model.Candidate, seeds []int64) error {
	if len(seeds) != len(population) {
		return fmt.Errorf("seed count mismatch: got=%d want=%d", len(seeds), len(population))
	}

	p := pool.New().WithMaxGoroutines(e.workers).WithErrors().WithFirstError()
	for i := range population {
		if i == 0 && population[0].Scored() {
			continue
		}
		candidate := &population[i]
		seed := seeds[i]
		idx := i
		p.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: candidate %d: panic: %v", ErrWorkerFailure, idx, r)
				}
			}()

			if idx == 0 {
				score, err := rc.score(candidate.Image)
				if err != nil {
					return fmt.Errorf("%w: candidate %d: %w", ErrWorkerFailure, idx, err)
				}
				candidate.Score = score
				return nil
			}
			if err := rc.mutateAndScore(rand.New(rand.NewSource(seed)), candidate); err != nil {
				return fmt.Errorf("%w: candidate %d: %w", ErrWorkerFailure, idx, err)
			}
			return nil
		})
	}
	return p.Wait()
}
