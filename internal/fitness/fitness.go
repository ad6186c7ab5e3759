package fitness

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nathiss/franklin/internal/model"
)

var (
	ErrSizeMismatch = errors.New("images must have the same pixel count")
	ErrNotFound     = errors.New("fitness function not found")
)

// Function scores how far a candidate is from the target. Lower is more similar,
// and scoring an image against itself yields 0.
type Function interface {
	Name() string
	Score(target, candidate *model.Image, mode model.ColorMode) (uint64, error)
}

type pixelDistance func(a, b model.Pixel, mode model.ColorMode) uint64

func sumDistance(target, candidate *model.Image, mode model.ColorMode, dist pixelDistance) (uint64, error) {
	if target.Len() != candidate.Len() {
		return 0, fmt.Errorf("%w: target=%d candidate=%d", ErrSizeMismatch, target.Len(), candidate.Len())
	}
	var sum uint64
	for i, px := range target.Pixels {
		sum += dist(px, candidate.Pixels[i], mode)
	}
	return sum, nil
}

func channelDiff(a, b uint8) int64 {
	return int64(a) - int64(b)
}

// SquareDistance sums squared per-channel differences. In grayscale mode only the
// red channel is compared and its difference counts for all three channels.
type SquareDistance struct{}

func (SquareDistance) Name() string { return "SquareDistance" }

func (SquareDistance) Score(target, candidate *model.Image, mode model.ColorMode) (uint64, error) {
	return sumDistance(target, candidate, mode, func(a, b model.Pixel, mode model.ColorMode) uint64 {
		if mode == model.Grayscale {
			d := channelDiff(a.R, b.R) * 3
			return uint64(d * d)
		}
		dr := channelDiff(a.R, b.R)
		dg := channelDiff(a.G, b.G)
		db := channelDiff(a.B, b.B)
		return uint64(dr*dr + dg*dg + db*db)
	})
}

// AbsoluteDistance sums absolute per-channel differences.
type AbsoluteDistance struct{}

func (AbsoluteDistance) Name() string { return "AbsoluteDistance" }

func (AbsoluteDistance) Score(target, candidate *model.Image, mode model.ColorMode) (uint64, error) {
	return sumDistance(target, candidate, mode, func(a, b model.Pixel, mode model.ColorMode) uint64 {
		if mode == model.Grayscale {
			return uint64(abs(channelDiff(a.R, b.R) * 3))
		}
		return uint64(abs(channelDiff(a.R, b.R)) + abs(channelDiff(a.G, b.G)) + abs(channelDiff(a.B, b.B)))
	})
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

var registry = map[string]func() Function{
	"squaredistance":   func() Function { return SquareDistance{} },
	"absolutedistance": func() Function { return AbsoluteDistance{} },
}

// ByName resolves a fitness function from its CLI name, case-insensitively.
func ByName(name string) (Function, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := []string{SquareDistance{}.Name(), AbsoluteDistance{}.Name()}
	sort.Strings(names)
	return names
}
