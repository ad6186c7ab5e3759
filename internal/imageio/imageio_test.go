package imageio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nathiss/franklin/internal/model"
)

func gradient(height, width int) *model.Image {
	img := model.BlankImage(height, width, model.White)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, model.Pixel{R: uint8(x * 10), G: uint8(y * 10), B: 77})
		}
	}
	return img
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	src := gradient(4, 7)
	if err := Save(path, src); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Width != 7 || got.Height != 4 {
		t.Fatalf("unexpected dimensions %dx%d", got.Width, got.Height)
	}
	for i := range src.Pixels {
		if got.Pixels[i] != src.Pixels[i] {
			t.Fatalf("pixel %d: got %+v want %+v", i, got.Pixels[i], src.Pixels[i])
		}
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error for missing file, got %v", err)
	}
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(garbage); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error for garbage, got %v", err)
	}
}

func TestSaveIntoMissingDirectoryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "img.png")
	if err := Save(path, gradient(2, 2)); !errors.Is(err, ErrEncode) {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func TestFit(t *testing.T) {
	cases := []struct {
		name          string
		height, width int
		maxDim        int
		wantH, wantW  int
	}{
		{"disabled", 40, 80, 0, 40, 80},
		{"already fits", 10, 20, 32, 10, 20},
		{"landscape", 40, 80, 20, 10, 20},
		{"portrait", 90, 30, 30, 30, 10},
		{"thin strip", 1, 200, 50, 1, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fit(gradient(tc.height, tc.width), tc.maxDim)
			if err != nil {
				t.Fatalf("fit: %v", err)
			}
			if got.Height != tc.wantH || got.Width != tc.wantW {
				t.Fatalf("got %dx%d want %dx%d", got.Height, got.Width, tc.wantH, tc.wantW)
			}
			if got.Len() != tc.wantH*tc.wantW {
				t.Fatalf("pixel count %d", got.Len())
			}
		})
	}
}

func TestWriterNamesFilesByGeneration(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "elite_")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if got := w.Path(42); got != filepath.Join(dir, "elite_000042.png") {
		t.Fatalf("unexpected path %s", got)
	}
	if err := w.Save(7, gradient(3, 3)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "elite_000007.png")); err != nil {
		t.Fatalf("expected saved file: %v", err)
	}
}

func TestNewWriterRejectsBadDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewWriter(filepath.Join(dir, "missing"), ""); err == nil {
		t.Fatal("expected error for missing directory")
	}
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewWriter(file, ""); err == nil {
		t.Fatal("expected error for a file path")
	}
}
