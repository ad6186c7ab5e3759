package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nathiss/franklin/internal/model"
)

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "run-fixture-1" || run.Mutator != "Triangle" || run.BestScore != 1234567 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Width != 64 || run.Height != 96 || run.ExitReason != "generation_limit" {
		t.Fatalf("unexpected run shape: %+v", run)
	}
}

func TestDecodeRunRejectsOldSchema(t *testing.T) {
	_, err := DecodeRun(readFixture(t, "run_v0.json"))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestRunCodecRoundTrip(t *testing.T) {
	in := sampleRun("run-1", "2024-01-01T00:00:00Z")
	data, err := EncodeRun(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\nin=%+v\nout=%+v", in, out)
	}
}

func TestDecodeGenerationDiagnosticsRejectsGarbage(t *testing.T) {
	if _, err := DecodeGenerationDiagnostics([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSortRunsByCreationThenID(t *testing.T) {
	runs := []model.RunRecord{
		sampleRun("b", "2024-01-02T00:00:00Z"),
		sampleRun("c", "2024-01-01T00:00:00Z"),
		sampleRun("a", "2024-01-02T00:00:00Z"),
	}
	sortRuns(runs)
	got := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		Target:          "target.png",
		Width:           8,
		Height:          6,
		ColorMode:       "rgb",
		Mutator:         "Rectangle",
		Fitness:         "SquareDistance",
		Crossover:       "EqualHalves",
		GenerationSize:  20,
		Threads:         2,
		Seed:            7,
		Generations:     30,
		BestScore:       99,
		ExitReason:      "cancelled",
		CreatedAtUTC:    createdAt,
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
