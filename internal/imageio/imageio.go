package imageio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"github.com/nathiss/franklin/internal/model"
)

var (
	ErrDecode = errors.New("decode image")
	ErrEncode = errors.New("encode image")
)

// Load decodes the image at path into an RGB image. Alpha is dropped.
func Load(path string) (*model.Image, error) {
	src, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	img, err := model.FromImage(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return img, nil
}

// Save writes img as a PNG file.
func Save(path string, img *model.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrEncode)
	}
	if err := imgio.Save(path, img.ToRGBA(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, path, err)
	}
	return nil
}

// Fit scales img down so neither side exceeds maxDim, keeping the aspect
// ratio. maxDim <= 0 or an image that already fits returns img unchanged.
func Fit(img *model.Image, maxDim int) (*model.Image, error) {
	if maxDim <= 0 || (img.Width <= maxDim && img.Height <= maxDim) {
		return img, nil
	}
	width, height := maxDim, maxDim
	if img.Width >= img.Height {
		height = max(1, img.Height*maxDim/img.Width)
	} else {
		width = max(1, img.Width*maxDim/img.Height)
	}
	return model.FromImage(transform.Resize(img.ToRGBA(), width, height, transform.Lanczos))
}

// Writer saves elites as <Dir>/<Prefix><generation>.png with the generation
// zero-padded to six digits.
type Writer struct {
	Dir    string
	Prefix string
}

func NewWriter(dir, prefix string) (*Writer, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output directory %s is not a directory", dir)
	}
	return &Writer{Dir: dir, Prefix: prefix}, nil
}

func (w *Writer) Path(generation int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s%06d.png", w.Prefix, generation))
}

func (w *Writer) Save(generation int, img *model.Image) error {
	return Save(w.Path(generation), img)
}
