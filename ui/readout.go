package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
)

// WindReading is the wind sampled under a picked screen point.
type WindReading struct {
	Point   geo.Cartographic
	Picked  bool // the pick hit the globe
	Wind    field.Vec3f
	Covered bool // the field has data at the point
}

// Speed returns the horizontal wind speed in m/s.
func (d WindReading) Speed() float64 {
	return math.Hypot(float64(d.Wind.U), float64(d.Wind.V))
}

// Heading returns the direction the wind blows toward, degrees clockwise from north.
func (d WindReading) Heading() float64 {
	deg := math.Atan2(float64(d.Wind.U), float64(d.Wind.V)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// ReadWind samples the field at a picked point, lifted to the particle height.
func ReadWind(store *field.Store, point geo.Cartographic, picked bool, height float64) WindReading {
	d := WindReading{Point: point, Picked: picked}
	if !picked || store == nil {
		return d
	}
	d.Point.Height = height
	d.Wind, d.Covered = store.Sample(point.Lon, point.Lat, height)
	return d
}

// WindReadout renders the wind readout panel.
type WindReadout struct {
	paint *Painter
	x, y  int32
	width int32
}

// NewWindReadout creates a new wind readout panel.
func NewWindReadout(x, y, width int32) *WindReadout {
	return &WindReadout{
		paint: NewPainter(),
		x:     x,
		y:     y,
		width: width,
	}
}

// SetPosition updates the panel position.
func (w *WindReadout) SetPosition(x, y int32) {
	w.x = x
	w.y = y
}

// Draw renders the panel and returns the Y below it.
func (w *WindReadout) Draw(data WindReading) int32 {
	r := w.paint
	padding := r.Style.Inset
	height := r.Style.Row*7 + padding*2
	r.Panel(w.x, w.y, w.width, height)

	x := w.x + padding
	y := r.Section(x, w.y+padding, "Wind")

	if !data.Picked {
		r.Field(x, y, "Cursor", "off globe")
		return w.y + height
	}
	y = r.Field(x, y, "Lon", fmt.Sprintf("%.3f", data.Point.Lon))
	y = r.Field(x, y, "Lat", fmt.Sprintf("%.3f", data.Point.Lat))
	if !data.Covered {
		r.WarnField(x, y, "Wind", "no data")
		return w.y + height
	}
	y = r.Meter(x, y, "Speed m/s", float32(data.Speed()), 60, w.width-padding*2)
	y = r.Field(x, y, "Toward", fmt.Sprintf("%.0f deg", data.Heading()))
	y = r.Field(x, y, "u, v", fmt.Sprintf("%.2f, %.2f", data.Wind.U, data.Wind.V))
	r.Field(x, y, "w", fmt.Sprintf("%.3f", data.Wind.W))
	return w.y + height
}
