package evo

import (
	"sort"

	"github.com/nathiss/franklin/internal/model"
)

// SurvivorCount returns how many ranked candidates are kept after truncation:
// two below a population of 100, one in fifty above it.
func SurvivorCount(generationSize int) int {
	if generationSize < 100 {
		return 2
	}
	return generationSize / 50
}

// Rank sorts the population ascending by score in place. Equal scores keep
// their relative order, so the previous elite wins ties.
func Rank(population []model.Candidate) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Score < population[j].Score
	})
}

// Select ranks the population and truncates it to the survivors.
func Select(population []model.Candidate, survivors int) []model.Candidate {
	Rank(population)
	if survivors > len(population) {
		survivors = len(population)
	}
	return population[:survivors]
}

func summarizeGeneration(ranked []model.Candidate, generation, survivors int) model.GenerationDiagnostics {
	if len(ranked) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}
	total := 0.0
	for _, c := range ranked {
		total += float64(c.Score)
	}
	return model.GenerationDiagnostics{
		Generation: generation,
		BestScore:  ranked[0].Score,
		MeanScore:  total / float64(len(ranked)),
		WorstScore: ranked[len(ranked)-1].Score,
		Survivors:  survivors,
	}
}
