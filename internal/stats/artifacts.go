package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nathiss/franklin/internal/model"
)

const (
	configFile         = "config.json"
	diagnosticsFile    = "generation_diagnostics.json"
	diagnosticsCSVFile = "generation_diagnostics.csv"
	plotFile           = "fitness.png"
	summaryFile        = "summary.json"
)

var diagnosticsHeader = []string{"generation", "best_score", "mean_score", "worst_score", "survivors"}

type RunConfig struct {
	RunID          string `json:"run_id"`
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
	MaxGenerations int    `json:"max_generations"`
	HistoryEvery   int    `json:"history_every"`
	Display        string `json:"display"`
	Save           string `json:"save"`
	OutputDir      string `json:"output_dir,omitempty"`
	FilenamePrefix string `json:"filename_prefix,omitempty"`
	CreatedAtUTC   string `json:"created_at_utc,omitempty"`
}

type RunArtifacts struct {
	Config                RunConfig                     `json:"config"`
	GenerationDiagnostics []model.GenerationDiagnostics `json:"generation_diagnostics"`
	Summary               RunSummary                    `json:"summary"`
}

// RunSummary condenses a run's diagnostics history.
type RunSummary struct {
	RunID       string `json:"run_id"`
	Generations int    `json:"generations"`
	ExitReason  string `json:"exit_reason"`
	// BestScore is the elite score at exit; FinalBest only covers recorded generations.
	BestScore   uint64 `json:"best_score"`
	InitialBest uint64 `json:"initial_best"`
	FinalBest   uint64 `json:"final_best"`
	// Improvement is InitialBest minus FinalBest; scores only ever go down.
	Improvement uint64 `json:"improvement"`
}

func Summarize(runID string, generations int, exitReason string, history []model.GenerationDiagnostics) RunSummary {
	summary := RunSummary{RunID: runID, Generations: generations, ExitReason: exitReason}
	if len(history) == 0 {
		return summary
	}
	summary.InitialBest = history[0].BestScore
	summary.FinalBest = history[len(history)-1].BestScore
	if summary.InitialBest > summary.FinalBest {
		summary.Improvement = summary.InitialBest - summary.FinalBest
	}
	return summary
}

// WriteRunArtifacts writes the run config, diagnostics (JSON and CSV), summary
// and fitness plot under baseDir/<run id>. The plot is skipped when there is
// no history to draw.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if strings.TrimSpace(artifacts.Config.RunID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	diagnostics := artifacts.GenerationDiagnostics
	if diagnostics == nil {
		diagnostics = []model.GenerationDiagnostics{}
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), diagnostics); err != nil {
		return "", err
	}
	if err := WriteDiagnosticsCSV(filepath.Join(runDir, diagnosticsCSVFile), diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if len(diagnostics) > 0 {
		title := fmt.Sprintf("%s (%s, %s)", artifacts.Config.RunID, artifacts.Config.Mutator, artifacts.Config.Fitness)
		if err := PlotFitness(diagnostics, title, filepath.Join(runDir, plotFile)); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

// ListRunIDs returns the run directories under baseDir that hold a run
// config, sorted by name. A missing baseDir yields no runs.
func ListRunIDs(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(baseDir, entry.Name(), configFile)); err != nil {
			continue
		}
		ids = append(ids, entry.Name())
	}
	return ids, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	path := filepath.Join(baseDir, runID, summaryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunSummary{}, false, nil
		}
		return RunSummary{}, false, err
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return RunSummary{}, false, err
	}
	return summary, true, nil
}

func WriteDiagnosticsCSV(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(diagnosticsHeader); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Generation),
			strconv.FormatUint(d.BestScore, 10),
			strconv.FormatFloat(d.MeanScore, 'f', -1, 64),
			strconv.FormatUint(d.WorstScore, 10),
			strconv.Itoa(d.Survivors),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadDiagnosticsCSV(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	path := filepath.Join(baseDir, runID, diagnosticsCSVFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.GenerationDiagnostics{}, true, nil
		}
		return nil, false, err
	}
	if len(header) != len(diagnosticsHeader) {
		return nil, false, fmt.Errorf("diagnostics header must have %d columns", len(diagnosticsHeader))
	}

	diagnostics := make([]model.GenerationDiagnostics, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		d, err := parseDiagnosticsRow(record)
		if err != nil {
			return nil, false, err
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics, true, nil
}

func parseDiagnosticsRow(record []string) (model.GenerationDiagnostics, error) {
	var (
		d   model.GenerationDiagnostics
		err error
	)
	if d.Generation, err = strconv.Atoi(record[0]); err != nil {
		return d, fmt.Errorf("generation: %w", err)
	}
	if d.BestScore, err = strconv.ParseUint(record[1], 10, 64); err != nil {
		return d, fmt.Errorf("best score: %w", err)
	}
	if d.MeanScore, err = strconv.ParseFloat(record[2], 64); err != nil {
		return d, fmt.Errorf("mean score: %w", err)
	}
	if d.WorstScore, err = strconv.ParseUint(record[3], 10, 64); err != nil {
		return d, fmt.Errorf("worst score: %w", err)
	}
	if d.Survivors, err = strconv.Atoi(record[4]); err != nil {
		return d, fmt.Errorf("survivors: %w", err)
	}
	return d, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
