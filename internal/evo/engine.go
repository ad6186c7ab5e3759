package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/nathiss/franklin/internal/crossover"
	"github.com/nathiss/franklin/internal/model"
)

const MinGenerationSize = 3

// DefaultHistoryLimit bounds the recorded history when EngineConfig.HistoryLimit is 0.
const DefaultHistoryLimit = 4096

type State int

const (
	StateInitializing State = iota
	StateRunning
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateExiting:
		return "exiting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type ExitReason string

const (
	ExitCancelled       ExitReason = "cancelled"
	ExitDisplayClosed   ExitReason = "display_closed"
	ExitGenerationLimit ExitReason = "generation_limit"
	ExitFailed          ExitReason = "failed"
)

// Canceller is polled once per generation; it must not block.
type Canceller interface {
	Cancelled() bool
}

type Observer interface {
	ObserveGeneration(diag model.GenerationDiagnostics)
}

type EngineConfig struct {
	RunContext     *RunContext
	Crossover      crossover.Function
	GenerationSize int
	Threads        int
	Seed           int64
	// MaxGenerations stops the loop after that many generations; 0 runs until cancelled.
	MaxGenerations int
	// HistoryEvery records diagnostics every N generations; 0 disables history.
	HistoryEvery int
	// HistoryLimit caps the recorded history. Once exceeded, every other
	// entry is dropped and the recording cadence doubles, so the history
	// keeps spanning the whole run. 0 means DefaultHistoryLimit.
	HistoryLimit int
	Output       OutputGate
	Canceller    Canceller
	Observers    []Observer
	Logger       *slog.Logger
}

type RunResult struct {
	Generations int
	Elite       model.Candidate
	History     []model.GenerationDiagnostics
	ExitReason  ExitReason
}

// Engine drives the generation loop: evaluate, select, breed, emit. The
// population is owned by the goroutine calling Run or Step.
type Engine struct {
	cfg        EngineConfig
	rng        *rand.Rand
	evaluator  *Evaluator
	survivors  int
	population []model.Candidate
	generation int
	state      State
	logger     *slog.Logger

	history []model.GenerationDiagnostics
	// historyEvery starts at cfg.HistoryEvery and doubles on each compaction.
	historyEvery int
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.RunContext == nil {
		return nil, fmt.Errorf("run context is required")
	}
	if cfg.Crossover == nil {
		return nil, fmt.Errorf("crossover function is required")
	}
	if cfg.GenerationSize < MinGenerationSize {
		return nil, fmt.Errorf("generation size must be >= %d, got %d", MinGenerationSize, cfg.GenerationSize)
	}
	if cfg.MaxGenerations < 0 {
		return nil, fmt.Errorf("max generations must be >= 0")
	}
	if cfg.HistoryEvery < 0 {
		return nil, fmt.Errorf("history cadence must be >= 0")
	}
	if cfg.HistoryLimit < 0 {
		return nil, fmt.Errorf("history limit must be >= 0")
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if err := cfg.Output.Validate(); err != nil {
		return nil, err
	}
	evaluator, err := NewEvaluator(cfg.Threads)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		evaluator: evaluator,
		survivors: SurvivorCount(cfg.GenerationSize),
		state:     StateInitializing,
		logger:    logger,

		historyEvery: cfg.HistoryEvery,
	}
	e.population = blankPopulation(cfg.RunContext, cfg.GenerationSize)
	return e, nil
}

func blankPopulation(rc *RunContext, size int) []model.Candidate {
	population := make([]model.Candidate, size)
	for i := range population {
		population[i] = model.NewCandidate(model.BlankImage(rc.Height(), rc.Width(), model.White))
	}
	return population
}

func (e *Engine) State() State { return e.state }

func (e *Engine) Generation() int { return e.generation }

func (e *Engine) SurvivorCount() int { return e.survivors }

// Elite returns the best candidate of the last completed generation.
func (e *Engine) Elite() model.Candidate {
	return e.population[0]
}

func (e *Engine) History() []model.GenerationDiagnostics {
	return append([]model.GenerationDiagnostics(nil), e.history...)
}

// Step runs exactly one generation.
func (e *Engine) Step() error {
	if e.State() == StateExiting {
		return fmt.Errorf("engine has exited")
	}

	seeds := make([]int64, len(e.population))
	for i := range seeds {
		seeds[i] = e.rng.Int63()
	}
	if err := e.evaluator.Evaluate(e.cfg.RunContext, e.population, seeds); err != nil {
		return err
	}

	survivors := Select(e.population, e.survivors)
	diag := summarizeGeneration(e.population, e.generation+1, len(survivors))

	next, err := Breed(e.rng, e.cfg.Crossover, survivors, e.cfg.GenerationSize)
	if err != nil {
		return err
	}
	e.population = next
	e.generation++

	e.record(diag)
	for _, o := range e.cfg.Observers {
		o.ObserveGeneration(diag)
	}
	e.logger.Debug("generation complete",
		"generation", e.generation,
		"best_score", diag.BestScore,
		"mean_score", diag.MeanScore,
	)

	displayed, saved, err := e.cfg.Output.Emit(e.generation, e.population[0])
	if err != nil {
		return err
	}
	if saved {
		e.logger.Info("saved elite", "generation", e.generation, "score", e.population[0].Score)
	}
	if displayed {
		e.logger.Debug("displayed elite", "generation", e.generation)
	}
	return nil
}

// Run loops until cancellation is observed at a generation boundary, the
// generation limit is reached, or a generation fails. A generation in flight
// always completes before Run returns.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	e.state = StateRunning
	e.logger.Info("run started",
		"generation_size", e.cfg.GenerationSize,
		"survivors", e.SurvivorCount(),
		"threads", e.evaluator.Workers(),
		"mutator", e.cfg.RunContext.Mutator().Name(),
		"fitness", e.cfg.RunContext.Fitness().Name(),
		"crossover", e.cfg.Crossover.Name(),
		"color_mode", e.cfg.RunContext.ColorMode().String(),
	)

	for {
		if reason, done := e.exitReason(ctx); done {
			e.state = StateExiting
			e.logger.Info("run finished", "reason", string(reason), "generations", e.Generation(), "best_score", e.Elite().Score)
			return e.result(reason), nil
		}
		if err := e.Step(); err != nil {
			e.state = StateExiting
			e.logger.Error("run failed", "generation", e.generation+1, "error", err)
			return e.result(ExitFailed), err
		}
	}
}

func (e *Engine) record(diag model.GenerationDiagnostics) {
	if e.historyEvery == 0 || diag.Generation%e.historyEvery != 0 {
		return
	}
	e.history = append(e.history, diag)
	if len(e.history) <= e.cfg.HistoryLimit {
		return
	}
	e.historyEvery *= 2
	kept := e.history[:0]
	for _, d := range e.history {
		if d.Generation%e.historyEvery == 0 {
			kept = append(kept, d)
		}
	}
	e.history = kept
	e.logger.Debug("history compacted", "entries", len(e.history), "every", e.historyEvery)
}

func (e *Engine) exitReason(ctx context.Context) (ExitReason, bool) {
	if ctx.Err() != nil {
		return ExitCancelled, true
	}
	if e.cfg.Canceller != nil && e.cfg.Canceller.Cancelled() {
		return ExitCancelled, true
	}
	if e.cfg.Output.Display != nil && e.cfg.Output.Display.Cancelled() {
		return ExitDisplayClosed, true
	}
	if e.cfg.MaxGenerations > 0 && e.generation >= e.cfg.MaxGenerations {
		return ExitGenerationLimit, true
	}
	return "", false
}

func (e *Engine) result(reason ExitReason) RunResult {
	return RunResult{
		Generations: e.Generation(),
		Elite:       e.Elite(),
		History:     e.History(),
		ExitReason:  reason,
	}
}
