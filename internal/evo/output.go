package evo

import (
	"fmt"

	"github.com/nathiss/franklin/internal/model"
)

type CadenceKind int

const (
	CadenceNever CadenceKind = iota
	CadenceAll
	CadenceEvery
)

// Cadence decides on which generations an output fires.
type Cadence struct {
	Kind CadenceKind
	N    int
}

func Never() Cadence { return Cadence{Kind: CadenceNever} }

func All() Cadence { return Cadence{Kind: CadenceAll} }

func Every(n int) Cadence { return Cadence{Kind: CadenceEvery, N: n} }

func (c Cadence) Enabled() bool { return c.Kind != CadenceNever }

func (c Cadence) Validate() error {
	switch c.Kind {
	case CadenceNever, CadenceAll:
		return nil
	case CadenceEvery:
		if c.N <= 0 {
			return fmt.Errorf("generation gap must be a positive integer, got %d", c.N)
		}
		return nil
	default:
		return fmt.Errorf("unknown cadence kind %d", c.Kind)
	}
}

// Fires reports whether the output is due after the given generation.
func (c Cadence) Fires(generation int) bool {
	switch c.Kind {
	case CadenceAll:
		return true
	case CadenceEvery:
		return c.N > 0 && generation%c.N == 0
	default:
		return false
	}
}

func (c Cadence) String() string {
	switch c.Kind {
	case CadenceAll:
		return "all"
	case CadenceEvery:
		return fmt.Sprintf("every:%d", c.N)
	default:
		return "never"
	}
}

// DisplaySink shows the elite on screen. Cancelled must not block.
type DisplaySink interface {
	Show(title string, img *model.Image) error
	Cancelled() bool
}

// SaveSink persists the elite of a generation.
type SaveSink interface {
	Save(generation int, img *model.Image) error
}

// OutputGate pushes the elite to the display and save sinks according to their
// cadences. The two checks are independent.
type OutputGate struct {
	Display        DisplaySink
	DisplayCadence Cadence
	Save           SaveSink
	SaveCadence    Cadence
}

func (g OutputGate) Validate() error {
	if err := g.DisplayCadence.Validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if err := g.SaveCadence.Validate(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if g.DisplayCadence.Enabled() && g.Display == nil {
		return fmt.Errorf("display cadence %s requires a display sink", g.DisplayCadence)
	}
	if g.SaveCadence.Enabled() && g.Save == nil {
		return fmt.Errorf("save cadence %s requires a save sink", g.SaveCadence)
	}
	return nil
}

// Emit reports which outputs fired.
func (g OutputGate) Emit(generation int, elite model.Candidate) (displayed, saved bool, err error) {
	if g.Display != nil && g.DisplayCadence.Fires(generation) {
		title := fmt.Sprintf("Generation %d (score %d)", generation, elite.Score)
		if err := g.Display.Show(title, elite.Image); err != nil {
			return false, false, fmt.Errorf("display generation %d: %w", generation, err)
		}
		displayed = true
	}
	if g.Save != nil && g.SaveCadence.Fires(generation) {
		if err := g.Save.Save(generation, elite.Image); err != nil {
			return displayed, false, fmt.Errorf("save generation %d: %w", generation, err)
		}
		saved = true
	}
	return displayed, saved, nil
}
