package evo

import (
	"fmt"
	"math/rand"

	"github.com/nathiss/franklin/internal/fitness"
	"github.com/nathiss/franklin/internal/model"
	"github.com/nathiss/franklin/internal/mutation"
)

// RunContext is the read-only state shared by every evaluation task of a run.
// It is built once and never mutated, so workers may read it concurrently.
type RunContext struct {
	target  *model.Image
	mode    model.ColorMode
	mutator mutation.Mutator
	fitness fitness.Function
}

func NewRunContext(target *model.Image, mode model.ColorMode, mutator mutation.Mutator, fn fitness.Function) (*RunContext, error) {
	if target == nil || target.Len() == 0 {
		return nil, fmt.Errorf("target image is required")
	}
	if mutator == nil {
		return nil, fmt.Errorf("mutator is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	return &RunContext{
		target:  target.Clone(),
		mode:    mode,
		mutator: mutator,
		fitness: fn,
	}, nil
}

func (rc *RunContext) ColorMode() model.ColorMode { return rc.mode }
func (rc *RunContext) Mutator() mutation.Mutator { return rc.mutator }
func (rc *RunContext) Fitness() fitness.Function { return rc.fitness }
func (rc *RunContext) Height() int { return rc.target.Height }
func (rc *RunContext) Width() int { return rc.target.Width }

func (rc *RunContext) score(img *model.Image) (uint64, error) {
	return rc.fitness.Score(rc.target, img, rc.mode)
}

func (rc *RunContext) mutateAndScore(rng *rand.Rand, c *model.Candidate) error {
	rc.mutator.Mutate(rng, c.Image, rc.mode)
	score, err := rc.score(c.Image)
	if err != nil {
		return err
	}
	c.Score = score
	return nil
}
