// Package viewer derives the per-frame view snapshot the particle passes read:
// the visible lon/lat range and the ground size of one pixel.
package viewer

import (
	"log/slog"

	"github.com/pthm-cable/windglobe/geo"
)

const (
	// fullLonSpan is the view width beyond which the whole longitude circle is used.
	fullLonSpan = 270.0
	// padLatHeight is the view height beyond which the latitude range is padded.
	padLatHeight = 15.0
)

// Parameters is an immutable snapshot of the view. LonRange may extend past 180
// when the view crosses the antimeridian.
type Parameters struct {
	LonRange  [2]float64 `json:"lon_range"`
	LatRange  [2]float64 `json:"lat_range"`
	PixelSize float64    `json:"pixel_size"`
}

// Default covers the whole globe with no pixel size yet.
func Default() Parameters {
	return Parameters{
		LonRange: [2]float64{-180, 180},
		LatRange: [2]float64{-90, 90},
	}
}

// Range returns the lon/lat range as a normalized rectangle.
func (p Parameters) Range() geo.LonLatRange {
	return geo.NewLonLatRange(p.LonRange[0], p.LonRange[1], p.LatRange[0], p.LatRange[1])
}

// LogValue implements slog.LogValuer.
func (p Parameters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("lon_min", p.LonRange[0]),
		slog.Float64("lon_max", p.LonRange[1]),
		slog.Float64("lat_min", p.LatRange[0]),
		slog.Float64("lat_max", p.LatRange[1]),
		slog.Float64("pixel_size", p.PixelSize),
	)
}

// Camera is what the viewer needs from the host camera.
type Camera interface {
	ViewRectangle() (geo.LonLatRange, bool)
	PixelSize() float64
}

// Update recomputes the parameters from the camera. The previous range is kept
// when the camera cannot see the globe, and the previous pixel size is kept
// unless the new one is positive.
func Update(prev Parameters, cam Camera) Parameters {
	next := prev
	if rect, ok := cam.ViewRectangle(); ok {
		next.LonRange, next.LatRange = FromRectangle(rect)
	}
	if px := cam.PixelSize(); px > 0 {
		next.PixelSize = px
	}
	return next
}

// FromRectangle widens a raw view rectangle into the particle range: a view wider
// than 270° of longitude takes the whole circle, and a view taller than 15° of
// latitude is padded by half its height on each side before clamping to the poles.
func FromRectangle(r geo.LonLatRange) (lon, lat [2]float64) {
	lon = [2]float64{r.LonMin, r.LonMax}
	if r.LonWidth() > fullLonSpan || r.LonWidth() < 0 {
		lon = [2]float64{-180, 180}
	}

	lat = [2]float64{r.LatMin, r.LatMax}
	if h := r.LatHeight(); h > padLatHeight {
		lat[0] -= h / 2
		lat[1] += h / 2
	}
	lat[0] = geo.ClampLat(lat[0])
	lat[1] = geo.ClampLat(lat[1])
	return lon, lat
}
