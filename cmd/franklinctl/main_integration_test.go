//go:build sqlite

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathiss/franklin/internal/model"
)

func TestSQLiteRunIsListedAndPlotted(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir)
	dbPath := filepath.Join(dir, "franklin.db")
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, []string{
		"run",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--image", target,
		"--generation", "4",
		"--max-generations", "3",
		"--seed", "11",
		"--run-id", "sqlite-run",
		"--artifacts-dir", "",
		"--progress=false",
		"--log-level", "error",
	}, &out); err != nil {
		t.Fatalf("run command: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	out.Reset()
	if err := run(ctx, []string{"runs", "--store", "sqlite", "--db-path", dbPath, "--json"}, &out); err != nil {
		t.Fatalf("runs command: %v", err)
	}
	var runs []model.RunRecord
	if err := json.Unmarshal(out.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "sqlite-run" || runs[0].Generations != 3 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	out.Reset()
	if err := run(ctx, []string{"diagnostics", "--store", "sqlite", "--db-path", dbPath, "--latest"}, &out); err != nil {
		t.Fatalf("diagnostics command: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 3 || !strings.HasPrefix(lines[0], "gen=1 ") {
		t.Fatalf("unexpected diagnostics output %q", out.String())
	}

	plotPath := filepath.Join(dir, "fitness.png")
	out.Reset()
	if err := run(ctx, []string{"plot", "--store", "sqlite", "--db-path", dbPath, "--run-id", "sqlite-run", "--out", plotPath}, &out); err != nil {
		t.Fatalf("plot command: %v", err)
	}
	if info, err := os.Stat(plotPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected plot at %s: %v", plotPath, err)
	}
}

func TestDefaultStorePersistsRunsAcrossCommands(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir)
	dbPath := filepath.Join(dir, "franklin.db")
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, []string{
		"run",
		"--db-path", dbPath,
		"--image", target,
		"--generation", "4",
		"--max-generations", "2",
		"--run-id", "default-store",
		"--artifacts-dir", "",
		"--progress=false",
		"--log-level", "error",
	}, &out); err != nil {
		t.Fatalf("run command: %v", err)
	}

	out.Reset()
	if err := run(ctx, []string{"runs", "--db-path", dbPath, "--artifacts-dir", ""}, &out); err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.HasPrefix(out.String(), "default-store ") {
		t.Fatalf("run missing from default store listing: %q", out.String())
	}
}
