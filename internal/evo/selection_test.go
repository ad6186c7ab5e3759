package evo

import (
	"testing"

	"github.com/nathiss/franklin/internal/model"
)

func TestSurvivorCount(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{3, 2},
		{20, 2},
		{99, 2},
		{100, 2},
		{150, 3},
		{1000, 20},
	}
	for _, tc := range cases {
		if got := SurvivorCount(tc.size); got != tc.want {
			t.Fatalf("SurvivorCount(%d) = %d want %d", tc.size, got, tc.want)
		}
	}
}

func scoredPopulation(scores ...uint64) []model.Candidate {
	population := make([]model.Candidate, len(scores))
	for i, s := range scores {
		img := model.BlankImage(1, 1, model.Gray(uint8(i)))
		population[i] = model.Candidate{Image: img, Score: s}
	}
	return population
}

func TestSelectKeepsLowestScoresInStableOrder(t *testing.T) {
	population := scoredPopulation(7, 3, 9, 3, 1)
	survivors := Select(population, 3)
	if len(survivors) != 3 {
		t.Fatalf("survivor count %d", len(survivors))
	}
	wantScores := []uint64{1, 3, 3}
	for i, s := range wantScores {
		if survivors[i].Score != s {
			t.Fatalf("survivor %d score %d want %d", i, survivors[i].Score, s)
		}
	}
	// the two candidates scoring 3 were at positions 1 and 3
	if survivors[1].Image.Pixels[0] != model.Gray(1) || survivors[2].Image.Pixels[0] != model.Gray(3) {
		t.Fatal("ties were reordered")
	}
}

func TestRankTieKeepsPreviousElite(t *testing.T) {
	population := scoredPopulation(0, 0, 0, 5)
	elite := population[0].Image
	Rank(population)
	if population[0].Image != elite {
		t.Fatal("elite lost its position on a tie")
	}
}

func TestSummarizeGeneration(t *testing.T) {
	population := scoredPopulation(2, 4, 6)
	diag := summarizeGeneration(population, 7, 2)
	if diag.Generation != 7 || diag.BestScore != 2 || diag.WorstScore != 6 || diag.MeanScore != 4 || diag.Survivors != 2 {
		t.Fatalf("unexpected diagnostics: %+v", diag)
	}
}
