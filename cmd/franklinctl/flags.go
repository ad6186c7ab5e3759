package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nathiss/franklin/internal/config"
)

// overrideFromFlags copies explicitly set flag values over the loaded config.
func overrideFromFlags(cfg *config.Config, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "image":
			cfg.Image = v.(string)
		case "mode":
			cfg.ColorMode = v.(string)
		case "mutator":
			cfg.Mutator = v.(string)
		case "fitness":
			cfg.Fitness = v.(string)
		case "crossover":
			cfg.Crossover = v.(string)
		case "generation":
			cfg.GenerationSize = v.(int)
		case "threads":
			cfg.Threads = v.(int)
		case "output-dir":
			cfg.OutputDir = v.(string)
		case "filename-prefix":
			cfg.FilenamePrefix = v.(string)
		case "seed":
			cfg.Seed = v.(int64)
		case "max-generations":
			cfg.MaxGenerations = v.(int)
		case "max-dim":
			cfg.MaxDim = v.(int)
		case "history-every":
			cfg.HistoryEvery = v.(int)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

// cadenceFromFlags resolves --<name>-all and --<name>-every into a cadence
// string. The two flags are mutually exclusive; when neither is set the
// configured value is kept.
func cadenceFromFlags(name, current string, set map[string]bool, all bool, every int) (string, error) {
	allSet := set[name+"-all"]
	everySet := set[name+"-every"]
	switch {
	case allSet && everySet:
		return "", usageError(fmt.Sprintf("--%s-all and --%s-every are mutually exclusive", name, name))
	case everySet:
		if every < 1 {
			return "", fmt.Errorf("%w: --%s-every must be at least 1, got %d", config.ErrInvalidConfig, name, every)
		}
		return fmt.Sprintf("every:%d", every), nil
	case allSet:
		if all {
			return "all", nil
		}
		return "never", nil
	default:
		return current, nil
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: use debug|info|warn|error", value)
	}
	return level, nil
}
