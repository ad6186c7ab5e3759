package model

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

var ErrDimensionMismatch = errors.New("pixel count does not match image dimensions")

// Pixel is a single 8-bit RGB sample.
type Pixel struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var White = Pixel{R: 255, G: 255, B: 255}

// Gray returns a pixel with all three channels set to v.
func Gray(v uint8) Pixel {
	return Pixel{R: v, G: v, B: v}
}

type ColorMode int

const (
	RGB ColorMode = iota
	Grayscale
)

func (m ColorMode) String() string {
	switch m {
	case RGB:
		return "rgb"
	case Grayscale:
		return "grayscale"
	default:
		return fmt.Sprintf("color_mode(%d)", int(m))
	}
}

func ParseColorMode(name string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rgb":
		return RGB, nil
	case "grayscale", "gray", "greyscale":
		return Grayscale, nil
	default:
		return RGB, fmt.Errorf("unknown color mode: %s", name)
	}
}

// Image is a row-major pixel buffer. len(Pixels) == Height*Width always holds
// for images built through NewImage, BlankImage or FromImage.
type Image struct {
	Height int
	Width  int
	Pixels []Pixel
}

func NewImage(height, width int, pixels []Pixel) (*Image, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pixels) != height*width {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrDimensionMismatch, len(pixels), height*width)
	}
	return &Image{Height: height, Width: width, Pixels: pixels}, nil
}

// BlankImage returns an image filled with px.
func BlankImage(height, width int, px Pixel) *Image {
	pixels := make([]Pixel, height*width)
	for i := range pixels {
		pixels[i] = px
	}
	return &Image{Height: height, Width: width, Pixels: pixels}
}

func (img *Image) Len() int {
	return len(img.Pixels)
}

func (img *Image) At(x, y int) Pixel {
	return img.Pixels[y*img.Width+x]
}

func (img *Image) Set(x, y int, px Pixel) {
	img.Pixels[y*img.Width+x] = px
}

func (img *Image) Clone() *Image {
	pixels := make([]Pixel, len(img.Pixels))
	copy(pixels, img.Pixels)
	return &Image{Height: img.Height, Width: img.Width, Pixels: pixels}
}

func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i, px := range img.Pixels {
		o := i * 4
		out.Pix[o] = px.R
		out.Pix[o+1] = px.G
		out.Pix[o+2] = px.B
		out.Pix[o+3] = 0xff
	}
	return out
}

// FromImage converts any decoded image to RGB, dropping alpha.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", b.Dx(), b.Dy())
	}
	pixels := make([]Pixel, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			pixels = append(pixels, Pixel{R: c.R, G: c.G, B: c.B})
		}
	}
	return NewImage(b.Dy(), b.Dx(), pixels)
}
