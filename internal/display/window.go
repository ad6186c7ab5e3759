package display

import (
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/nathiss/franklin/internal/model"
)

// minSide is the smallest on-screen edge; tiny targets are scaled up.
const minSide = 480

// Window shows the current elite in a fyne window. Closing the window or
// pressing Escape marks it cancelled; the engine polls Cancelled between
// generations.
type Window struct {
	win    fyne.Window
	raster *canvas.Image
	closed atomic.Bool
}

// Open creates and shows the window. It must be called on the fyne main
// goroutine, before the app event loop starts.
func Open(app fyne.App, title string, height, width int) *Window {
	w := &Window{win: app.NewWindow(title)}

	w.raster = canvas.NewImageFromImage(model.BlankImage(height, width, model.White).ToRGBA())
	w.raster.FillMode = canvas.ImageFillContain
	w.raster.ScaleMode = canvas.ImageScalePixels
	size := scaledSize(height, width)
	w.raster.SetMinSize(size)

	w.win.SetContent(w.raster)
	w.win.Resize(size)
	w.win.SetOnClosed(func() { w.closed.Store(true) })
	w.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			w.closed.Store(true)
			w.win.Close()
		}
	})
	w.win.Show()
	return w
}

func scaledSize(height, width int) fyne.Size {
	scale := 1
	if side := max(height, width); side > 0 && side < minSide {
		scale = minSide / side
	}
	return fyne.NewSize(float32(width*scale), float32(height*scale))
}

// Show replaces the displayed image. It is safe to call from any goroutine;
// after the window is closed it does nothing.
func (w *Window) Show(title string, img *model.Image) error {
	if w.closed.Load() {
		return nil
	}
	rgba := img.ToRGBA()
	fyne.Do(func() {
		w.raster.Image = rgba
		w.raster.Refresh()
		w.win.SetTitle(title)
	})
	return nil
}

func (w *Window) Cancelled() bool {
	return w.closed.Load()
}

// Close closes the window from any goroutine.
func (w *Window) Close() {
	if w.closed.Swap(true) {
		return
	}
	fyne.Do(w.win.Close)
}
