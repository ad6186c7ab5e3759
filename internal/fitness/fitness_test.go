package fitness

import (
	"errors"
	"testing"

	"github.com/nathiss/franklin/internal/model"
)

func mustImage(t *testing.T, h, w int, pixels ...model.Pixel) *model.Image {
	t.Helper()
	img, err := model.NewImage(h, w, pixels)
	if err != nil {
		t.Fatalf("new image: %v", err)
	}
	return img
}

func TestScoreAgainstItselfIsZero(t *testing.T) {
	target := mustImage(t, 1, 3, model.Pixel{R: 1, G: 2, B: 3}, model.White, model.Gray(7))
	for _, name := range Names() {
		fn, err := ByName(name)
		if err != nil {
			t.Fatalf("by name %s: %v", name, err)
		}
		for _, mode := range []model.ColorMode{model.RGB, model.Grayscale} {
			got, err := fn.Score(target, target, mode)
			if err != nil {
				t.Fatalf("%s/%s score: %v", name, mode, err)
			}
			if got != 0 {
				t.Fatalf("%s/%s self score = %d", name, mode, got)
			}
		}
	}
}

func TestSquareDistance(t *testing.T) {
	a := mustImage(t, 1, 2, model.Pixel{R: 10, G: 0, B: 0}, model.Pixel{R: 0, G: 0, B: 0})
	b := mustImage(t, 1, 2, model.Pixel{R: 13, G: 4, B: 0}, model.Pixel{R: 0, G: 0, B: 255})

	rgb, err := SquareDistance{}.Score(a, b, model.RGB)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if want := uint64(9 + 16 + 255*255); rgb != want {
		t.Fatalf("rgb score = %d want %d", rgb, want)
	}

	gray, err := SquareDistance{}.Score(a, b, model.Grayscale)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if want := uint64(9 * 9); gray != want {
		t.Fatalf("grayscale score = %d want %d", gray, want)
	}
}

func TestAbsoluteDistance(t *testing.T) {
	a := mustImage(t, 1, 1, model.Pixel{R: 200, G: 10, B: 30})
	b := mustImage(t, 1, 1, model.Pixel{R: 100, G: 20, B: 0})

	rgb, err := AbsoluteDistance{}.Score(a, b, model.RGB)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if rgb != 140 {
		t.Fatalf("rgb score = %d want 140", rgb)
	}
	gray, err := AbsoluteDistance{}.Score(a, b, model.Grayscale)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if gray != 300 {
		t.Fatalf("grayscale score = %d want 300", gray)
	}
}

func TestScoreRejectsSizeMismatch(t *testing.T) {
	a := model.BlankImage(2, 2, model.White)
	b := model.BlankImage(1, 2, model.White)
	if _, err := (SquareDistance{}).Score(a, b, model.RGB); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected size mismatch, got %v", err)
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("Hamming"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if fn, err := ByName("squaredistance"); err != nil || fn.Name() != "SquareDistance" {
		t.Fatalf("case-insensitive lookup failed: %v %v", fn, err)
	}
}
