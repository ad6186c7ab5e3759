package franklin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nathiss/franklin/internal/config"
	"github.com/nathiss/franklin/internal/crossover"
	"github.com/nathiss/franklin/internal/evo"
	"github.com/nathiss/franklin/internal/fitness"
	"github.com/nathiss/franklin/internal/imageio"
	"github.com/nathiss/franklin/internal/model"
	"github.com/nathiss/franklin/internal/mutation"
	"github.com/nathiss/franklin/internal/stats"
	"github.com/nathiss/franklin/internal/storage"
)

const (
	defaultDBPath = "franklin.db"
	// Fixed-width so run records sort lexically by creation time.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir receives per-run artifacts; empty disables them.
	ArtifactsDir string
	Logger       *slog.Logger
}

type Client struct {
	store        storage.Store
	artifactsDir string
	logger       *slog.Logger

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	// RunID defaults to a random UUID.
	RunID  string
	Config config.Config
	// Display is required when Config.Display is not "never". It is polled
	// for cancellation even when no generation is displayed.
	Display   evo.DisplaySink
	Canceller evo.Canceller
	Observers []evo.Observer
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Width        int
	Height       int
	Generations  int
	BestScore    uint64
	ExitReason   string
	History      []model.GenerationDiagnostics
}

type RunsRequest struct {
	Limit int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type PlotRequest struct {
	RunID   string
	Latest  bool
	OutPath string
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		store:        store,
		artifactsDir: opts.ArtifactsDir,
		logger:       logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the store. Every other method calls it; repeated calls are
// no-ops.
func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run loads the target, evolves it until the context, the canceller or the
// display stops the run (or the generation limit is hit) and records the
// outcome. A failed run is still recorded before its error is returned.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	mode, err := model.ParseColorMode(cfg.ColorMode)
	if err != nil {
		return RunSummary{}, err
	}
	mutator, err := mutation.ByName(cfg.Mutator)
	if err != nil {
		return RunSummary{}, err
	}
	fn, err := fitness.ByName(cfg.Fitness)
	if err != nil {
		return RunSummary{}, err
	}
	breeder, err := crossover.ByName(cfg.Crossover)
	if err != nil {
		return RunSummary{}, err
	}
	displayCadence, err := config.ParseCadence(cfg.Display)
	if err != nil {
		return RunSummary{}, err
	}
	saveCadence, err := config.ParseCadence(cfg.Save)
	if err != nil {
		return RunSummary{}, err
	}

	target, err := imageio.Load(cfg.Image)
	if err != nil {
		return RunSummary{}, err
	}
	target, err = imageio.Fit(target, cfg.MaxDim)
	if err != nil {
		return RunSummary{}, err
	}
	rc, err := evo.NewRunContext(target, mode, mutator, fn)
	if err != nil {
		return RunSummary{}, err
	}

	gate := evo.OutputGate{
		Display:        req.Display,
		DisplayCadence: displayCadence,
		SaveCadence:    saveCadence,
	}
	if saveCadence.Enabled() {
		writer, err := imageio.NewWriter(cfg.OutputDir, cfg.FilenamePrefix)
		if err != nil {
			return RunSummary{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		gate.Save = writer
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := c.logger.With("run_id", runID)

	engine, err := evo.NewEngine(evo.EngineConfig{
		RunContext:     rc,
		Crossover:      breeder,
		GenerationSize: cfg.GenerationSize,
		Threads:        cfg.Threads,
		Seed:           cfg.Seed,
		MaxGenerations: cfg.MaxGenerations,
		HistoryEvery:   cfg.HistoryEvery,
		HistoryLimit:   cfg.HistoryLimit,
		Output:         gate,
		Canceller:      req.Canceller,
		Observers:      req.Observers,
		Logger:         logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	logger.Info("target loaded", "path", cfg.Image, "width", target.Width, "height", target.Height)
	createdAt := time.Now().UTC()
	result, runErr := engine.Run(ctx)

	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Target:          cfg.Image,
		Width:           target.Width,
		Height:          target.Height,
		ColorMode:       mode.String(),
		Mutator:         mutator.Name(),
		Fitness:         fn.Name(),
		Crossover:       breeder.Name(),
		GenerationSize:  cfg.GenerationSize,
		Threads:         cfg.Threads,
		Seed:            cfg.Seed,
		Generations:     result.Generations,
		BestScore:       result.Elite.Score,
		ExitReason:      string(result.ExitReason),
		CreatedAtUTC:    createdAt.Format(timestampLayout),
	}
	// Persistence uses a fresh context so a cancelled run is still recorded.
	persistCtx := context.WithoutCancel(ctx)
	if err := c.store.SaveRun(persistCtx, record); err != nil {
		return RunSummary{}, errors.Join(runErr, fmt.Errorf("save run %s: %w", runID, err))
	}
	if err := c.store.SaveGenerationDiagnostics(persistCtx, runID, result.History); err != nil {
		return RunSummary{}, errors.Join(runErr, fmt.Errorf("save diagnostics %s: %w", runID, err))
	}

	summary := RunSummary{
		RunID:       runID,
		Width:       target.Width,
		Height:      target.Height,
		Generations: result.Generations,
		BestScore:   result.Elite.Score,
		ExitReason:  string(result.ExitReason),
		History:     result.History,
	}
	if c.artifactsDir != "" {
		runSummary := stats.Summarize(runID, result.Generations, string(result.ExitReason), result.History)
		runSummary.BestScore = result.Elite.Score
		runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
			Config: stats.RunConfig{
				RunID:          runID,
				Target:         cfg.Image,
				Width:          target.Width,
				Height:         target.Height,
				ColorMode:      mode.String(),
				Mutator:        mutator.Name(),
				Fitness:        fn.Name(),
				Crossover:      breeder.Name(),
				GenerationSize: cfg.GenerationSize,
				Threads:        cfg.Threads,
				Seed:           cfg.Seed,
				MaxGenerations: cfg.MaxGenerations,
				HistoryEvery:   cfg.HistoryEvery,
				Display:        displayCadence.String(),
				Save:           saveCadence.String(),
				OutputDir:      cfg.OutputDir,
				FilenamePrefix: cfg.FilenamePrefix,
				CreatedAtUTC:   record.CreatedAtUTC,
			},
			GenerationDiagnostics: result.History,
			Summary:               runSummary,
		})
		if err != nil {
			return RunSummary{}, errors.Join(runErr, fmt.Errorf("write artifacts %s: %w", runID, err))
		}
		summary.ArtifactsDir = filepath.Clean(runDir)
	}
	if runErr != nil {
		return summary, runErr
	}
	return summary, nil
}

// Runs lists recorded runs, newest first. Runs that only left artifacts
// behind (for example under the memory store) are listed as well.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	artifactRuns, err := c.artifactOnlyRuns(runs)
	if err != nil {
		return nil, err
	}
	runs = append(runs, artifactRuns...)
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
		}
		return runs[i].ID > runs[j].ID
	})
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		run, ok, err = c.runFromArtifacts(runID)
		if err != nil {
			return model.RunRecord{}, err
		}
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok && c.artifactsDir != "" {
		diagnostics, ok, err = stats.ReadDiagnosticsCSV(c.artifactsDir, runID)
		if err != nil {
			return nil, fmt.Errorf("read diagnostics artifact %s: %w", runID, err)
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

// Plot renders the stored fitness history of a run to req.OutPath.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (string, error) {
	if req.OutPath == "" {
		return "", errors.New("plot requires an output path")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return "", err
	}
	run, err := c.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	diagnostics, err := c.Diagnostics(ctx, DiagnosticsRequest{RunID: runID})
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("%s (%s, %s)", run.ID, run.Mutator, run.Fitness)
	if err := stats.PlotFitness(diagnostics, title, req.OutPath); err != nil {
		return "", err
	}
	return runID, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	runs, err := c.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}

// runFromArtifacts rebuilds a run record from the config and summary files a
// run leaves under the artifacts directory.
func (c *Client) runFromArtifacts(runID string) (model.RunRecord, bool, error) {
	if c.artifactsDir == "" {
		return model.RunRecord{}, false, nil
	}
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("read run config artifact %s: %w", runID, err)
	}
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              cfg.RunID,
		Target:          cfg.Target,
		Width:           cfg.Width,
		Height:          cfg.Height,
		ColorMode:       cfg.ColorMode,
		Mutator:         cfg.Mutator,
		Fitness:         cfg.Fitness,
		Crossover:       cfg.Crossover,
		GenerationSize:  cfg.GenerationSize,
		Threads:         cfg.Threads,
		Seed:            cfg.Seed,
		CreatedAtUTC:    cfg.CreatedAtUTC,
	}
	if run.ID == "" {
		run.ID = runID
	}
	summary, ok, err := stats.ReadRunSummary(c.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("read run summary artifact %s: %w", runID, err)
	}
	if ok {
		run.Generations = summary.Generations
		run.BestScore = summary.BestScore
		run.ExitReason = summary.ExitReason
	}
	return run, true, nil
}

func (c *Client) artifactOnlyRuns(known []model.RunRecord) ([]model.RunRecord, error) {
	if c.artifactsDir == "" {
		return nil, nil
	}
	ids, err := stats.ListRunIDs(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(known))
	for _, run := range known {
		seen[run.ID] = true
	}
	var out []model.RunRecord
	for _, id := range ids {
		if seen[id] {
			continue
		}
		run, ok, err := c.runFromArtifacts(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, run)
		}
	}
	return out, nil
}
