package render

import "sort"

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Stop is one control point of a ColorRamp.
type Stop struct {
	At    float32
	Color Color
}

// ColorRamp maps normalized speed to a color by linear interpolation between
// stops sorted by At.
type ColorRamp []Stop

// DefaultRamp runs from slow blue through green and yellow to fast red.
var DefaultRamp = ColorRamp{
	{At: 0.0, Color: Color{0.20, 0.40, 1.00, 1}},
	{At: 0.25, Color: Color{0.20, 0.85, 0.95, 1}},
	{At: 0.5, Color: Color{0.30, 0.95, 0.35, 1}},
	{At: 0.75, Color: Color{1.00, 0.90, 0.20, 1}},
	{At: 1.0, Color: Color{1.00, 0.25, 0.15, 1}},
}

// At returns the color for t, clamped to the first and last stops.
func (r ColorRamp) At(t float32) Color {
	if len(r) == 0 {
		return Color{1, 1, 1, 1}
	}
	t = clamp01(t)
	i := sort.Search(len(r), func(i int) bool { return r[i].At >= t })
	if i == 0 {
		return r[0].Color
	}
	if i == len(r) {
		return r[len(r)-1].Color
	}
	a, b := r[i-1], r[i]
	span := b.At - a.At
	if span <= 0 {
		return b.Color
	}
	f := (t - a.At) / span
	return Color{
		R: a.Color.R + (b.Color.R-a.Color.R)*f,
		G: a.Color.G + (b.Color.G-a.Color.G)*f,
		B: a.Color.B + (b.Color.B-a.Color.B)*f,
		A: a.Color.A + (b.Color.A-a.Color.A)*f,
	}
}

// Bytes returns the color as 8-bit RGBA.
func (c Color) Bytes() (r, g, b, a uint8) {
	return toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A)
}

func toByte(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
