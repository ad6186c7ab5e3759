package crossover

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/nathiss/franklin/internal/model"
)

var (
	ErrNotFound       = errors.New("crossover function not found")
	ErrParentMismatch = errors.New("parents must have the same dimensions")
)

// Function breeds a new image from two parents. It is only called from the
// goroutine that owns the population, so implementations may keep state.
type Function interface {
	Name() string
	Breed(rng *rand.Rand, first, second *model.Image) (*model.Image, error)
}

func checkParents(first, second *model.Image) error {
	if first.Height != second.Height || first.Width != second.Width {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrParentMismatch, first.Width, first.Height, second.Width, second.Height)
	}
	return nil
}

// LeftOrRight alternates between cloning the second and the first parent.
type LeftOrRight struct {
	counter int
}

func (*LeftOrRight) Name() string { return "LeftOrRight" }

func (c *LeftOrRight) Breed(_ *rand.Rand, first, second *model.Image) (*model.Image, error) {
	if err := checkParents(first, second); err != nil {
		return nil, err
	}
	c.counter++
	if c.counter%2 == 0 {
		return first.Clone(), nil
	}
	return second.Clone(), nil
}

// EqualHalves takes the leading half of the pixels (rounded up) from the first
// parent and the rest from the second.
type EqualHalves struct{}

func (EqualHalves) Name() string { return "EqualHalves" }

func (EqualHalves) Breed(_ *rand.Rand, first, second *model.Image) (*model.Image, error) {
	if err := checkParents(first, second); err != nil {
		return nil, err
	}
	n := first.Len()
	split := (n + 1) / 2
	pixels := make([]model.Pixel, n)
	copy(pixels[:split], first.Pixels[:split])
	copy(pixels[split:], second.Pixels[split:])
	return model.NewImage(first.Height, first.Width, pixels)
}

// ArithmeticAverage averages every channel of both parents.
type ArithmeticAverage struct{}

func (ArithmeticAverage) Name() string { return "ArithmeticAverage" }

func (ArithmeticAverage) Breed(_ *rand.Rand, first, second *model.Image) (*model.Image, error) {
	if err := checkParents(first, second); err != nil {
		return nil, err
	}
	pixels := make([]model.Pixel, first.Len())
	for i, a := range first.Pixels {
		b := second.Pixels[i]
		pixels[i] = model.Pixel{
			R: uint8((uint16(a.R) + uint16(b.R)) / 2),
			G: uint8((uint16(a.G) + uint16(b.G)) / 2),
			B: uint8((uint16(a.B) + uint16(b.B)) / 2),
		}
	}
	return model.NewImage(first.Height, first.Width, pixels)
}

// Uniform picks every pixel from either parent with equal probability.
type Uniform struct{}

func (Uniform) Name() string { return "Uniform" }

func (Uniform) Breed(rng *rand.Rand, first, second *model.Image) (*model.Image, error) {
	if err := checkParents(first, second); err != nil {
		return nil, err
	}
	pixels := make([]model.Pixel, first.Len())
	for i := range pixels {
		if rng.Intn(2) == 0 {
			pixels[i] = first.Pixels[i]
		} else {
			pixels[i] = second.Pixels[i]
		}
	}
	return model.NewImage(first.Height, first.Width, pixels)
}

var registry = map[string]func() Function{
	"leftorright":       func() Function { return &LeftOrRight{} },
	"equalhalves":       func() Function { return EqualHalves{} },
	"equalhalfs":        func() Function { return EqualHalves{} },
	"arithmeticaverage": func() Function { return ArithmeticAverage{} },
	"uniform":           func() Function { return Uniform{} },
}

// ByName resolves a crossover function from its CLI name, case-insensitively.
// Every call returns a fresh instance.
func ByName(name string) (Function, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := []string{(&LeftOrRight{}).Name(), EqualHalves{}.Name(), ArithmeticAverage{}.Name(), Uniform{}.Name()}
	sort.Strings(names)
	return names
}
