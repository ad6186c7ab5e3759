package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/nathiss/franklin/internal/config"
	"github.com/nathiss/franklin/internal/crossover"
	"github.com/nathiss/franklin/internal/display"
	"github.com/nathiss/franklin/internal/fitness"
	"github.com/nathiss/franklin/internal/imageio"
	"github.com/nathiss/franklin/internal/model"
	"github.com/nathiss/franklin/internal/mutation"
	"github.com/nathiss/franklin/internal/progress"
	"github.com/nathiss/franklin/internal/storage"
	"github.com/nathiss/franklin/pkg/franklin"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "franklin.db"
	windowTitle         = "franklin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:], out)
	case "runs":
		return runRuns(ctx, args[1:], out)
	case "diagnostics":
		return runDiagnostics(ctx, args[1:], out)
	case "plot":
		return runPlot(ctx, args[1:], out)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string, out io.Writer) error {
	defaults := config.Default()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional JSON run config path")
	image := fs.String("image", "", "target image path")
	mode := fs.String("mode", defaults.ColorMode, "color mode: rgb|grayscale")
	mutator := fs.String("mutator", defaults.Mutator, "mutator: "+strings.Join(mutation.Names(), "|"))
	fitnessName := fs.String("fitness", defaults.Fitness, "fitness function: "+strings.Join(fitness.Names(), "|"))
	crossoverName := fs.String("crossover", defaults.Crossover, "crossover: "+strings.Join(crossover.Names(), "|"))
	generation := fs.Int("generation", defaults.GenerationSize, "number of candidates per generation")
	threads := fs.Int("threads", defaults.Threads, "worker goroutines used for mutation and scoring")
	displayAll := fs.Bool("display-all", false, "display every generation")
	displayEvery := fs.Int("display-every", 0, "display every Nth generation")
	saveAll := fs.Bool("save-all", false, "save every generation")
	saveEvery := fs.Int("save-every", 0, "save every Nth generation")
	outputDir := fs.String("output-dir", defaults.OutputDir, "directory for saved generations")
	filenamePrefix := fs.String("filename-prefix", defaults.FilenamePrefix, "filename prefix for saved generations")
	seed := fs.Int64("seed", defaults.Seed, "rng seed")
	maxGenerations := fs.Int("max-generations", defaults.MaxGenerations, "stop after N generations (0 runs until cancelled)")
	maxDim := fs.Int("max-dim", defaults.MaxDim, "downscale the target so its longest edge is at most N pixels (0 keeps it)")
	historyEvery := fs.Int("history-every", defaults.HistoryEvery, "record diagnostics every N generations (0 disables)")
	runID := fs.String("run-id", "", "explicit run id (defaults to a random uuid)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "directory for run artifacts (empty disables them)")
	showProgress := fs.Bool("progress", isatty.IsTerminal(os.Stderr.Fd()), "draw a progress bar on stderr")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageError(fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}

	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&cfg, setFlags, map[string]any{
		"image":           *image,
		"mode":            *mode,
		"mutator":         *mutator,
		"fitness":         *fitnessName,
		"crossover":       *crossoverName,
		"generation":      *generation,
		"threads":         *threads,
		"output-dir":      *outputDir,
		"filename-prefix": *filenamePrefix,
		"seed":            *seed,
		"max-generations": *maxGenerations,
		"max-dim":         *maxDim,
		"history-every":   *historyEvery,
	}); err != nil {
		return err
	}
	if cfg.Display, err = cadenceFromFlags("display", cfg.Display, setFlags, *displayAll, *displayEvery); err != nil {
		return err
	}
	if cfg.Save, err = cadenceFromFlags("save", cfg.Save, setFlags, *saveAll, *saveEvery); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := franklin.New(franklin.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: *artifactsDir,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := franklin.RunRequest{
		RunID:  *runID,
		Config: cfg,
	}
	var bar *progress.Bar
	if *showProgress {
		bar = progress.New(os.Stderr, cfg.MaxGenerations)
		req.Observers = append(req.Observers, bar)
	}

	displayCadence, err := config.ParseCadence(cfg.Display)
	if err != nil {
		return err
	}
	var summary franklin.RunSummary
	if displayCadence.Enabled() {
		summary, err = runWithWindow(ctx, client, req)
	} else {
		summary, err = client.Run(ctx, req)
	}
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run_id=%s size=%dx%d generations=%d best=%s exit=%s\n",
		summary.RunID,
		summary.Width,
		summary.Height,
		summary.Generations,
		formatScore(summary.BestScore),
		summary.ExitReason,
	)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
	}
	return nil
}

// runWithWindow gives the fyne event loop the calling goroutine and runs the
// engine beside it. Closing the window cancels the run; the end of the run
// closes the window, which stops the event loop.
func runWithWindow(ctx context.Context, client *franklin.Client, req franklin.RunRequest) (franklin.RunSummary, error) {
	target, err := imageio.Load(req.Config.Image)
	if err != nil {
		return franklin.RunSummary{}, err
	}
	target, err = imageio.Fit(target, req.Config.MaxDim)
	if err != nil {
		return franklin.RunSummary{}, err
	}

	a := app.New()
	win := display.Open(a, windowTitle, target.Height, target.Width)
	req.Display = win

	var (
		summary franklin.RunSummary
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = client.Run(ctx, req)
		win.Close()
	}()
	a.Run()
	<-done
	return summary, runErr
}

func runRuns(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifacts directory consulted for runs missing from the store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := franklin.New(franklin.Options{StoreKind: *storeKind, DBPath: *dbPath, ArtifactsDir: *artifactsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, franklin.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %s  %dx%d  %s/%s/%s  gens=%s  best=%s  exit=%s\n",
			r.ID,
			formatCreatedAt(r.CreatedAtUTC),
			r.Target,
			r.Width,
			r.Height,
			r.Mutator,
			r.Fitness,
			r.Crossover,
			humanize.Comma(int64(r.Generations)),
			formatScore(r.BestScore),
			r.ExitReason,
		)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifacts directory consulted for runs missing from the store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("diagnostics requires --run-id or --latest")
	}

	client, err := franklin.New(franklin.Options{StoreKind: *storeKind, DBPath: *dbPath, ArtifactsDir: *artifactsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, franklin.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(out, diagnostics)
	}
	if len(diagnostics) == 0 {
		fmt.Fprintln(out, "no diagnostics")
		return nil
	}
	for _, d := range diagnostics {
		fmt.Fprintf(out, "gen=%d best=%s mean=%s worst=%s survivors=%d\n",
			d.Generation,
			formatScore(d.BestScore),
			humanize.Commaf(math.Round(d.MeanScore)),
			formatScore(d.WorstScore),
			d.Survivors,
		)
	}
	return nil
}

func runPlot(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "plot the most recent run")
	outPath := fs.String("out", "fitness.png", "output PNG path")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifacts directory consulted for runs missing from the store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("plot requires --run-id or --latest")
	}

	client, err := franklin.New(franklin.Options{StoreKind: *storeKind, DBPath: *dbPath, ArtifactsDir: *artifactsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	id, err := client.Plot(ctx, franklin.PlotRequest{RunID: *runID, Latest: *latest, OutPath: *outPath})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "plot run_id=%s out=%s\n", id, *outPath)
	return nil
}

func formatScore(score uint64) string {
	if score == model.UnscoredScore {
		return "unscored"
	}
	if score > math.MaxInt64 {
		return humanize.Comma(math.MaxInt64) + "+"
	}
	return humanize.Comma(int64(score))
}

func formatCreatedAt(value string) string {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return humanize.Time(t)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: franklinctl <run|runs|diagnostics|plot> [flags]", msg)
}
