package mutation

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/nathiss/franklin/internal/model"
)

var ErrNotFound = errors.New("mutator not found")

// Mutator paints a random change into an image in place. Implementations must be
// safe for concurrent use on distinct images; all randomness comes from rng.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, img *model.Image, mode model.ColorMode)
}

func randomColor(rng *rand.Rand, mode model.ColorMode) model.Pixel {
	if mode == model.Grayscale {
		return model.Gray(uint8(rng.Intn(256)))
	}
	return model.Pixel{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
	}
}

// Rectangle fills a random axis-aligned rectangle with a random color.
type Rectangle struct{}

func (Rectangle) Name() string { return "Rectangle" }

func (Rectangle) Mutate(rng *rand.Rand, img *model.Image, mode model.ColorMode) {
	x := rng.Intn(img.Width)
	y := rng.Intn(img.Height)
	w := rng.Intn(img.Width-x) + 1
	h := rng.Intn(img.Height-y) + 1
	px := randomColor(rng, mode)

	for j := y; j < y+h; j++ {
		row := img.Pixels[j*img.Width : (j+1)*img.Width]
		for i := x; i < x+w; i++ {
			row[i] = px
		}
	}
}

// Circle fills a random disc that lies entirely inside the image.
type Circle struct{}

func (Circle) Name() string { return "Circle" }

func (Circle) Mutate(rng *rand.Rand, img *model.Image, mode model.ColorMode) {
	cx := rng.Intn(img.Width)
	cy := rng.Intn(img.Height)
	limit := min(cx, cy, img.Width-1-cx, img.Height-1-cy)
	r := rng.Intn(limit + 1)
	px := randomColor(rng, mode)

	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.Set(cx+dx, cy+dy, px)
			}
		}
	}
}

type point struct {
	x, y int
}

// Triangle fills a triangle spanned by three random points. Degenerate
// (collinear) triangles paint the covered segment.
type Triangle struct{}

func (Triangle) Name() string { return "Triangle" }

func (Triangle) Mutate(rng *rand.Rand, img *model.Image, mode model.ColorMode) {
	var v [3]point
	for i := range v {
		v[i] = point{x: rng.Intn(img.Width), y: rng.Intn(img.Height)}
	}
	px := randomColor(rng, mode)

	minX, maxX := min(v[0].x, v[1].x, v[2].x), max(v[0].x, v[1].x, v[2].x)
	minY, maxY := min(v[0].y, v[1].y, v[2].y), max(v[0].y, v[1].y, v[2].y)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if insideTriangle(v, point{x: x, y: y}) {
				img.Set(x, y, px)
			}
		}
	}
}

func edge(a, b, p point) int {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

func insideTriangle(v [3]point, p point) bool {
	e0 := edge(v[0], v[1], p)
	e1 := edge(v[1], v[2], p)
	e2 := edge(v[2], v[0], p)
	if e0 == 0 && e1 == 0 && e2 == 0 {
		return onSegmentHull(v, p)
	}
	return (e0 >= 0 && e1 >= 0 && e2 >= 0) || (e0 <= 0 && e1 <= 0 && e2 <= 0)
}

// onSegmentHull reports whether p lies within the bounding box of collinear vertices.
func onSegmentHull(v [3]point, p point) bool {
	return p.x >= min(v[0].x, v[1].x, v[2].x) && p.x <= max(v[0].x, v[1].x, v[2].x) &&
		p.y >= min(v[0].y, v[1].y, v[2].y) && p.y <= max(v[0].y, v[1].y, v[2].y)
}

var registry = map[string]func() Mutator{
	"rectangle": func() Mutator { return Rectangle{} },
	"triangle":  func() Mutator { return Triangle{} },
	"circle":    func() Mutator { return Circle{} },
}

// ByName resolves a mutator from its CLI name, case-insensitively.
func ByName(name string) (Mutator, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := []string{Rectangle{}.Name(), Triangle{}.Name(), Circle{}.Name()}
	sort.Strings(names)
	return names
}
