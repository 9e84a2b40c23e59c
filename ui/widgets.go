package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Painter draws the shared panel furniture. Row helpers take the current y
// and return the y of the next row.
type Painter struct {
	Style Style
}

// NewPainter returns a painter using DefaultStyle.
func NewPainter() *Painter {
	return &Painter{Style: DefaultStyle()}
}

// Panel fills a translucent box with a one pixel edge.
func (p *Painter) Panel(x, y, w, h int32) {
	rl.DrawRectangle(x, y, w, h, p.Style.Backdrop)
	rl.DrawRectangleLines(x, y, w, h, p.Style.Edge)
}

// Section draws a heading row.
func (p *Painter) Section(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, p.Style.HeadingText, p.Style.Heading)
	return y + p.Style.Row + 2
}

// Field draws "label: value" with the value in the gutter column.
func (p *Painter) Field(x, y int32, label, value string) int32 {
	return p.field(x, y, label, value, p.Style.Value)
}

// WarnField is Field with the value highlighted.
func (p *Painter) WarnField(x, y int32, label, value string) int32 {
	return p.field(x, y, label, value, p.Style.Warn)
}

func (p *Painter) field(x, y int32, label, value string, c rl.Color) int32 {
	s := p.Style
	rl.DrawText(label+":", x, y, s.Text, s.Label)
	rl.DrawText(value, x+s.Gutter, y, s.Text, c)
	return y + s.Row
}

// Meter draws a labelled level for value on [0, limit], printing the value
// to the right. width spans label, track and readout.
func (p *Painter) Meter(x, y int32, label string, value, limit float32, width int32) int32 {
	s := p.Style
	var fill float32
	if limit > 0 {
		fill = min(max(value/limit, 0), 1)
	}
	track := width - s.Gutter - 56
	tx := x + s.Gutter

	rl.DrawText(label+":", x, y, s.Text, s.Label)
	rl.DrawRectangle(tx, y+2, track, s.BarH, s.Track)
	rl.DrawRectangle(tx, y+2, int32(float32(track)*fill), s.BarH, s.Level)
	rl.DrawText(fmt.Sprintf("%.1f", value), tx+track+6, y, s.Text, s.Value)
	return y + s.Row + 2
}
