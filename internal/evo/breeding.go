package evo

import (
	"fmt"
	"math/rand"

	"github.com/nathiss/franklin/internal/crossover"
	"github.com/nathiss/franklin/internal/model"
)

// pickParents draws two distinct survivor positions. Consecutive draws are
// independent, so a survivor may parent many children.
func pickParents(rng *rand.Rand, survivors int) (int, int) {
	first := rng.Intn(survivors)
	second := rng.Intn(survivors - 1)
	if second >= first {
		second++
	}
	return first, second
}

// Breed refills the population up to size with unscored children of random
// survivor pairs. Survivors stay in [0, len(survivors)).
func Breed(rng *rand.Rand, fn crossover.Function, survivors []model.Candidate, size int) ([]model.Candidate, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(survivors) < 2 {
		return nil, fmt.Errorf("breeding requires at least 2 survivors, got %d", len(survivors))
	}
	if size < len(survivors) {
		return nil, fmt.Errorf("population size %d is smaller than survivor count %d", size, len(survivors))
	}

	count := len(survivors)
	population := survivors
	for len(population) < size {
		i, j := pickParents(rng, count)
		child, err := fn.Breed(rng, survivors[i].Image, survivors[j].Image)
		if err != nil {
			return nil, fmt.Errorf("breed %s: %w", fn.Name(), err)
		}
		population = append(population, model.NewCandidate(child))
	}
	return population, nil
}
