package progress

import (
	"io"
	"math"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/nathiss/franklin/internal/model"
)

const (
	boundedTemplate   = `{{counters . }} {{bar . }} {{percent . }} {{etime . }} best {{string . "best"}}`
	unboundedTemplate = `gen {{counters . }} {{etime . }} best {{string . "best"}}`
)

// Bar renders generation progress and the current best score. A limit of 0
// draws an open-ended counter instead of a bar.
type Bar struct {
	bar *pb.ProgressBar
}

func New(w io.Writer, limit int) *Bar {
	tmpl := unboundedTemplate
	if limit > 0 {
		tmpl = boundedTemplate
	}
	bar := pb.New(limit).SetWriter(w).SetTemplateString(tmpl)
	bar.Set("best", "-")
	return &Bar{bar: bar.Start()}
}

func (b *Bar) ObserveGeneration(diag model.GenerationDiagnostics) {
	best := diag.BestScore
	if best > math.MaxInt64 {
		best = math.MaxInt64
	}
	b.bar.Set("best", humanize.Comma(int64(best)))
	b.bar.SetCurrent(int64(diag.Generation))
}

// Finish draws the final state and stops the refresh goroutine.
func (b *Bar) Finish() {
	b.bar.Finish()
}
