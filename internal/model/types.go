package model

import "math"

// UnscoredScore marks a candidate that has not been evaluated yet.
const UnscoredScore uint64 = math.MaxUint64

// Candidate is one image of the population with its fitness score. Lower scores are better.
type Candidate struct {
	Image *Image
	Score uint64
}

func NewCandidate(img *Image) Candidate {
	return Candidate{Image: img, Score: UnscoredScore}
}

func (c Candidate) Scored() bool {
	return c.Score != UnscoredScore
}

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type GenerationDiagnostics struct {
	Generation int     `json:"generation"`
	BestScore  uint64  `json:"best_score"`
	MeanScore  float64 `json:"mean_score"`
	WorstScore uint64  `json:"worst_score"`
	Survivors  int     `json:"survivors"`
}

type RunRecord struct {
	VersionedRecord
	ID             string `json:"id"`
	Target         string `json:"target"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	ColorMode      string `json:"color_mode"`
	Mutator        string `json:"mutator"`
	Fitness        string `json:"fitness"`
	Crossover      string `json:"crossover"`
	GenerationSize int    `json:"generation_size"`
	Threads        int    `json:"threads"`
	Seed           int64  `json:"seed"`
	Generations    int    `json:"generations"`
	BestScore      uint64 `json:"best_score"`
	ExitReason     string `json:"exit_reason"`
	CreatedAtUTC   string `json:"created_at_utc"`
}
