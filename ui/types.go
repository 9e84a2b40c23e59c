// Package ui draws the options panel, the HUD and the debug overlays on top of
// the globe. Panel rows are described by metadata so new tunables only need a
// descriptor, not layout code.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/pipeline"
)

// SliderDescriptor binds one panel slider to a field of pipeline.Options.
type SliderDescriptor struct {
	ID     string // Unique identifier
	Label  string // Display label
	Format string // Printf format for the value readout
	Min    float32
	Max    float32
	Get    func(pipeline.Options) float32
	Set    func(*pipeline.Options, float32)
}

// Clamp restricts v to the slider range.
func (s SliderDescriptor) Clamp(v float32) float32 {
	return min(max(v, s.Min), s.Max)
}

// Style is the shared palette and metrics of the panels. Sizes are pixels.
type Style struct {
	Backdrop, Edge rl.Color
	Heading        rl.Color
	Label, Value   rl.Color
	Warn           rl.Color
	Track, Level   rl.Color // meter background and fill

	Inset  int32 // panel padding
	Row    int32 // line advance
	Gutter int32 // label column width
	BarH   int32

	Text, HeadingText int32 // font sizes
}

// DefaultStyle is the dark translucent look used over the globe.
func DefaultStyle() Style {
	return Style{
		Backdrop:    rl.Color{R: 12, G: 18, B: 28, A: 225},
		Edge:        rl.Color{R: 60, G: 75, B: 95, A: 255},
		Heading:     rl.Color{R: 120, G: 200, B: 255, A: 255},
		Label:       rl.LightGray,
		Value:       rl.RayWhite,
		Warn:        rl.Orange,
		Track:       rl.Color{R: 40, G: 40, B: 48, A: 255},
		Level:       rl.Color{R: 90, G: 160, B: 220, A: 255},
		Inset:       10,
		Row:         16,
		Gutter:      96,
		BarH:        12,
		Text:        12,
		HeadingText: 14,
	}
}
