package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel lists the overlay toggles and their keys. It is itself the
// OverlayControls overlay, so the host draws it only when that is enabled.
type ControlsPanel struct {
	paint *Painter
	x, y  int32
	width int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		paint: NewPainter(),
		x:     x,
		y:     y,
		width: width,
	}
}

// SetPosition moves the panel.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// KeyBinding is a fixed key shown in the legend below the overlay toggles.
type KeyBinding struct {
	Key    string
	Action string
}

// CameraKeys are the globe navigation bindings.
var CameraKeys = []KeyBinding{
	{"Drag / Arrows", "Pan"},
	{"Wheel / + -", "Zoom"},
	{"Home", "Reset view"},
	{"S", "Save snapshot"},
	{"F11", "Fullscreen"},
}

var (
	toggleOff = rl.Color{R: 80, G: 80, B: 80, A: 255}
	toggleOn  = rl.Color{R: 100, G: 200, B: 100, A: 255}
	keyColor  = rl.Color{R: 150, G: 150, B: 150, A: 255}
)

// Draw renders the overlay list and the key legend, returning the Y below them.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	st := c.paint.Style
	groups := overlays.Categories()
	rows := len(overlays.All()) + len(groups) + len(CameraKeys) + 2
	c.paint.Panel(c.x, c.y, c.width, int32(rows)*st.Row+st.Inset*3)

	x, y := c.x+st.Inset, c.y+st.Inset
	right := x + c.width - st.Inset*2
	rl.DrawText("Overlays", x, y, 16, rl.White)
	y += st.Row + 4

	for _, group := range groups {
		y = c.paint.Section(x, y, categoryLabel(group))
		for _, desc := range overlays.ByCategory(group) {
			on := overlays.IsEnabled(desc.ID)
			mark, name := toggleOff, st.Label
			if on {
				mark, name = toggleOn, rl.White
			}
			rl.DrawRectangle(x, y+2, 8, 8, mark)
			key := ""
			if desc.KeyLabel != "" {
				key = fmt.Sprintf("[%s]", desc.KeyLabel)
			}
			y = c.legendRow(x+14, right, y, desc.Name, key, name, keyColor)
		}
	}

	y = c.paint.Section(x, y+4, "Camera")
	for _, kb := range CameraKeys {
		y = c.legendRow(x+14, right, y, kb.Action, kb.Key, st.Label, rl.Gray)
	}
	return y
}

// legendRow draws text at x and key flush against right.
func (c *ControlsPanel) legendRow(x, right, y int32, text, key string, textColor, keyCol rl.Color) int32 {
	size := c.paint.Style.Text
	rl.DrawText(text, x, y, size, textColor)
	if key != "" {
		rl.DrawText(key, right-rl.MeasureText(key, size), y, size, keyCol)
	}
	return y + c.paint.Style.Row
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "panels":
		return "Panels"
	case "globe":
		return "Globe"
	default:
		return cat
	}
}
