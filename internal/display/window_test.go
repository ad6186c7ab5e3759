package display

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"github.com/nathiss/franklin/internal/model"
)

func TestShowUpdatesTitleAndImage(t *testing.T) {
	app := test.NewTempApp(t)
	w := Open(app, "franklin", 2, 3)

	img := model.BlankImage(2, 3, model.White)
	img.Set(1, 1, model.Pixel{R: 10, G: 20, B: 30})
	if err := w.Show("Generation 5 (score 12)", img); err != nil {
		t.Fatalf("show: %v", err)
	}
	if got := w.win.Title(); got != "Generation 5 (score 12)" {
		t.Fatalf("unexpected title %q", got)
	}
	got := color.RGBAModel.Convert(w.raster.Image.At(1, 1)).(color.RGBA)
	if got.R != 10 || got.G != 20 || got.B != 30 {
		t.Fatalf("unexpected pixel %+v", got)
	}
	if w.Cancelled() {
		t.Fatal("window should not start cancelled")
	}
}

func TestEscapeCancels(t *testing.T) {
	app := test.NewTempApp(t)
	w := Open(app, "franklin", 4, 4)
	w.win.Canvas().OnTypedKey()(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if !w.Cancelled() {
		t.Fatal("expected escape to cancel")
	}
	if err := w.Show("ignored", model.BlankImage(4, 4, model.White)); err != nil {
		t.Fatalf("show after close: %v", err)
	}
	if w.win.Title() == "ignored" {
		t.Fatal("closed window was updated")
	}
}

func TestOtherKeysDoNotCancel(t *testing.T) {
	app := test.NewTempApp(t)
	w := Open(app, "franklin", 4, 4)
	w.win.Canvas().OnTypedKey()(&fyne.KeyEvent{Name: fyne.KeySpace})
	if w.Cancelled() {
		t.Fatal("space must not cancel")
	}
	w.Close()
	if !w.Cancelled() {
		t.Fatal("expected close to cancel")
	}
}

func TestScaledSize(t *testing.T) {
	cases := []struct {
		height, width int
		want          fyne.Size
	}{
		{10, 20, fyne.NewSize(480, 240)},
		{600, 800, fyne.NewSize(800, 600)},
		{480, 100, fyne.NewSize(100, 480)},
	}
	for _, tc := range cases {
		if got := scaledSize(tc.height, tc.width); got != tc.want {
			t.Fatalf("scaledSize(%d, %d) = %v want %v", tc.height, tc.width, got, tc.want)
		}
	}
}
