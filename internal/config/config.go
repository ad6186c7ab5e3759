package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/nathiss/franklin/internal/crossover"
	"github.com/nathiss/franklin/internal/evo"
	"github.com/nathiss/franklin/internal/fitness"
	"github.com/nathiss/franklin/internal/model"
	"github.com/nathiss/franklin/internal/mutation"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every run setting. It is loaded from JSON and then
// overridden by command-line flags.
type Config struct {
	Image          string `json:"image"`
	ColorMode      string `json:"mode"`
	Mutator        string `json:"mutator"`
	Fitness        string `json:"fitness"`
	Crossover      string `json:"crossover"`
	GenerationSize int    `json:"generation_size"`
	Threads        int    `json:"threads"`
	// Display and Save take "never", "all" or "every:N".
	Display        string `json:"display"`
	Save           string `json:"save"`
	OutputDir      string `json:"output_dir"`
	FilenamePrefix string `json:"filename_prefix"`
	Seed           int64  `json:"seed"`
	MaxGenerations int    `json:"max_generations"`
	MaxDim         int    `json:"max_dim"`
	HistoryEvery   int    `json:"history_every"`
	// HistoryLimit caps recorded diagnostics; 0 uses the engine default.
	HistoryLimit int `json:"history_limit"`
}

func Default() Config {
	return Config{
		ColorMode:      model.RGB.String(),
		Mutator:        mutation.Rectangle{}.Name(),
		Fitness:        fitness.SquareDistance{}.Name(),
		Crossover:      (&crossover.LeftOrRight{}).Name(),
		GenerationSize: 100,
		Threads:        runtime.NumCPU(),
		Display:        "never",
		Save:           "never",
		HistoryEvery:   1,
	}
}

// Load reads a JSON config file on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault returns Default when path is empty.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// ParseCadence parses "never", "all" or "every:N" (also "none" and "every N").
func ParseCadence(value string) (evo.Cadence, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "never", "none":
		return evo.Never(), nil
	case "all":
		return evo.All(), nil
	}
	rest, ok := strings.CutPrefix(v, "every")
	if !ok {
		return evo.Cadence{}, fmt.Errorf("%w: unknown cadence %q", ErrInvalidConfig, value)
	}
	rest = strings.TrimLeft(rest, ": ")
	n, err := strconv.Atoi(rest)
	if err != nil {
		return evo.Cadence{}, fmt.Errorf("%w: cadence %q: %v", ErrInvalidConfig, value, err)
	}
	c := evo.Every(n)
	if err := c.Validate(); err != nil {
		return evo.Cadence{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c, nil
}

// Validate checks every setting before an engine is built. Every failure
// wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Image) == "" {
		return invalid("image path is required")
	}
	if _, err := model.ParseColorMode(c.ColorMode); err != nil {
		return invalid("%v", err)
	}
	if _, err := mutation.ByName(c.Mutator); err != nil {
		return invalid("%v", err)
	}
	if _, err := fitness.ByName(c.Fitness); err != nil {
		return invalid("%v", err)
	}
	if _, err := crossover.ByName(c.Crossover); err != nil {
		return invalid("%v", err)
	}
	if c.GenerationSize < evo.MinGenerationSize {
		return invalid("generation size cannot be smaller than %d, got %d", evo.MinGenerationSize, c.GenerationSize)
	}
	if c.Threads < 1 {
		return invalid("thread count must be at least 1, got %d", c.Threads)
	}
	if c.MaxGenerations < 0 {
		return invalid("max generations must be >= 0")
	}
	if c.MaxDim < 0 {
		return invalid("max dimension must be >= 0")
	}
	if c.HistoryEvery < 0 {
		return invalid("history cadence must be >= 0")
	}
	if c.HistoryLimit < 0 {
		return invalid("history limit must be >= 0")
	}
	if _, err := ParseCadence(c.Display); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	save, err := ParseCadence(c.Save)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if save.Enabled() {
		if c.OutputDir == "" {
			return invalid("output directory is required when saving")
		}
		info, err := os.Stat(c.OutputDir)
		if err != nil {
			return invalid("output directory %s does not exist", c.OutputDir)
		}
		if !info.IsDir() {
			return invalid("output path %s is not a directory", c.OutputDir)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
