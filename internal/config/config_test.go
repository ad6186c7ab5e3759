package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nathiss/franklin/internal/evo"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg := Default()
	cfg.Image = "target.png"
	cfg.Threads = 2
	return cfg
}

func TestDefaultIsValidOnceImageIsSet(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if err := Default().Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected missing image to be invalid, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"generation size 2", func(c *Config) { c.GenerationSize = 2 }},
		{"zero threads", func(c *Config) { c.Threads = 0 }},
		{"unknown mode", func(c *Config) { c.ColorMode = "cmyk" }},
		{"unknown mutator", func(c *Config) { c.Mutator = "Hexagon" }},
		{"unknown fitness", func(c *Config) { c.Fitness = "Cosine" }},
		{"unknown crossover", func(c *Config) { c.Crossover = "Random" }},
		{"save every 0", func(c *Config) { c.Save = "every:0"; c.OutputDir = t.TempDir() }},
		{"display every 0", func(c *Config) { c.Display = "every:0" }},
		{"save without directory", func(c *Config) { c.Save = "all" }},
		{"missing output directory", func(c *Config) { c.Save = "all"; c.OutputDir = filepath.Join(t.TempDir(), "missing") }},
		{"output path is a file", func(c *Config) { c.Save = "all"; c.OutputDir = file }},
		{"negative max generations", func(c *Config) { c.MaxGenerations = -1 }},
		{"negative max dim", func(c *Config) { c.MaxDim = -1 }},
		{"negative history limit", func(c *Config) { c.HistoryLimit = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected invalid config, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsSaveIntoDirectory(t *testing.T) {
	cfg := validConfig(t)
	cfg.Save = "every:25"
	cfg.OutputDir = t.TempDir()
	cfg.Display = "all"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseCadence(t *testing.T) {
	cases := []struct {
		in   string
		want evo.Cadence
	}{
		{"", evo.Never()},
		{"never", evo.Never()},
		{"None", evo.Never()},
		{"all", evo.All()},
		{"every:50", evo.Every(50)},
		{"every 7", evo.Every(7)},
	}
	for _, tc := range cases {
		got, err := ParseCadence(tc.in)
		if err != nil {
			t.Fatalf("ParseCadence(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCadence(%q) = %v want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"every:0", "every:-3", "every:x", "sometimes"} {
		if _, err := ParseCadence(bad); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("ParseCadence(%q): expected invalid config, got %v", bad, err)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	payload := `{"image": "mona.png", "mutator": "Triangle", "generation_size": 50, "save": "every:10", "output_dir": "out"}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Image != "mona.png" || cfg.Mutator != "Triangle" || cfg.GenerationSize != 50 {
		t.Fatalf("unexpected loaded fields: %+v", cfg)
	}
	if cfg.Fitness != "SquareDistance" || cfg.HistoryEvery != 1 {
		t.Fatalf("defaults were not kept: %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(`{"population": 10}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if cfg.GenerationSize != 100 {
		t.Fatalf("unexpected default: %+v", cfg)
	}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected missing file error")
	}
}
