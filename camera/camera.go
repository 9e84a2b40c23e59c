// Package camera provides an orbit camera around the globe for viewport control.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/windglobe/geo"
)

// Globe is a camera that orbits the ellipsoid looking straight down at the point
// beneath it. Supports pan and zoom with longitude wrapping.
type Globe struct {
	// Position is the sub-camera point in degrees and the height above it in meters
	Lon, Lat float64
	Height   float64

	// Vertical field of view in degrees
	FovY float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Height constraints
	MinHeight, MaxHeight float64

	Ellipsoid geo.Ellipsoid

	home   geo.Cartographic
	moving bool
}

// New creates a camera over (lon, lat) at the given height.
func New(viewportW, viewportH float64, ell geo.Ellipsoid, lon, lat, height float64) *Globe {
	g := &Globe{
		Lon:       geo.WrapLon(lon),
		Lat:       clamp(lat, -maxLat, maxLat),
		Height:    height,
		FovY:      60,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinHeight: 100,
		MaxHeight: 5e7,
		Ellipsoid: ell,
	}
	g.home = geo.Cartographic{Lon: g.Lon, Lat: g.Lat, Height: height}
	return g
}

// maxLat keeps the camera off the exact pole so east stays defined.
const maxLat = 89.9

// Position returns the camera position in ellipsoid-fixed coordinates.
func (g *Globe) Position() r3.Vec {
	return g.Ellipsoid.CartographicToCartesian(geo.Cartographic{Lon: g.Lon, Lat: g.Lat, Height: g.Height})
}

// Basis returns the camera's local east, north and up unit vectors. The view
// direction is -up.
func (g *Globe) Basis() (east, north, up r3.Vec) {
	lon := g.Lon * math.Pi / 180
	lat := g.Lat * math.Pi / 180
	sinLon, cosLon := math.Sincos(lon)
	sinLat, cosLat := math.Sincos(lat)
	east = r3.Vec{X: -sinLon, Y: cosLon}
	north = r3.Vec{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	up = r3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	return east, north, up
}

// Focal returns the focal length in pixels.
func (g *Globe) Focal() float64 {
	return (g.ViewportH / 2) / math.Tan(g.FovY*math.Pi/360)
}

// Project converts an ellipsoid-fixed point to screen coordinates. Returns false
// when the point is behind the camera or hidden by the globe.
func (g *Globe) Project(p r3.Vec) (sx, sy float64, ok bool) {
	cam := g.Position()
	east, north, up := g.Basis()
	d := r3.Sub(p, cam)

	z := -r3.Dot(d, up)
	if z <= 0 {
		return 0, 0, false
	}
	if g.occluded(cam, d) {
		return 0, 0, false
	}

	f := g.Focal()
	sx = g.ViewportW/2 + f*r3.Dot(d, east)/z
	sy = g.ViewportH/2 - f*r3.Dot(d, north)/z
	return sx, sy, true
}

// occluded reports whether the ray from cam along d enters the globe before
// reaching cam+d. Uses the inscribed sphere so points on the surface never
// occlude themselves.
func (g *Globe) occluded(cam, d r3.Vec) bool {
	r := g.Ellipsoid.B * 0.999
	a := r3.Dot(d, d)
	if a == 0 {
		return false
	}
	b := 2 * r3.Dot(cam, d)
	c := r3.Dot(cam, cam) - r*r
	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	return t > 0 && t < 1
}

// Ray returns the view ray through screen pixel (sx, sy). dir is a unit vector.
func (g *Globe) Ray(sx, sy float64) (origin, dir r3.Vec) {
	east, north, up := g.Basis()
	f := g.Focal()
	x := (sx - g.ViewportW/2) / f
	y := (g.ViewportH/2 - sy) / f
	dir = r3.Sub(r3.Add(r3.Scale(x, east), r3.Scale(y, north)), up)
	return g.Position(), r3.Unit(dir)
}

// Pick returns the surface point under screen pixel (sx, sy), or false if the
// pixel shows space.
func (g *Globe) Pick(sx, sy float64) (geo.Cartographic, bool) {
	origin, dir := g.Ray(sx, sy)
	p, ok := g.Ellipsoid.IntersectRay(origin, dir)
	if !ok {
		return geo.Cartographic{}, false
	}
	return g.Ellipsoid.CartesianToCartographic(p), true
}

// IsVisible returns true if the ellipsoid-fixed point projects inside the
// viewport expanded by margin pixels.
func (g *Globe) IsVisible(p r3.Vec, margin float64) bool {
	sx, sy, ok := g.Project(p)
	if !ok {
		return false
	}
	return sx >= -margin && sx <= g.ViewportW+margin && sy >= -margin && sy <= g.ViewportH+margin
}

// PixelSize returns the ground size of one pixel in meters at the sub-camera point.
// Zero when the viewport is empty.
func (g *Globe) PixelSize() float64 {
	if g.ViewportH <= 0 || g.ViewportW <= 0 {
		return 0
	}
	return 2 * g.Height * math.Tan(g.FovY*math.Pi/360) / g.ViewportH
}

// ViewRectangle returns the geographic rectangle around the sub-camera point that
// the view can reach: the smaller of the field-of-view footprint and the horizon.
// The longitude span is unwrapped (it may extend past 180). Returns false when
// the viewport is empty.
func (g *Globe) ViewRectangle() (geo.LonLatRange, bool) {
	if g.ViewportW <= 0 || g.ViewportH <= 0 {
		return geo.LonLatRange{}, false
	}

	r := g.Ellipsoid.A
	dist := r + math.Max(g.Height, 0)

	// Central angle to the horizon
	theta := math.Acos(r / dist)

	// Central angle reached by the corner ray of the frustum
	aspect := g.ViewportW / g.ViewportH
	halfFov := math.Atan(math.Tan(g.FovY*math.Pi/360) * math.Sqrt(1+aspect*aspect))
	if s := dist / r * math.Sin(halfFov); s < 1 {
		theta = math.Min(theta, math.Asin(s)-halfFov)
	}

	dLat := theta * 180 / math.Pi
	latMin := g.Lat - dLat
	latMax := g.Lat + dLat

	lonMin, lonMax := -180.0, 180.0
	cosLat := math.Cos(g.Lat * math.Pi / 180)
	if latMin > -90 && latMax < 90 && math.Sin(theta) < cosLat {
		dLon := math.Asin(math.Sin(theta)/cosLat) * 180 / math.Pi
		lonMin = g.Lon - dLon
		lonMax = g.Lon + dLon
	}

	return geo.LonLatRange{
		LonMin: lonMin,
		LonMax: lonMax,
		LatMin: geo.ClampLat(latMin),
		LatMax: geo.ClampLat(latMax),
	}, true
}

// Resize updates viewport dimensions. Calling it again with the same size is a no-op.
func (g *Globe) Resize(viewportW, viewportH float64) {
	if viewportW == g.ViewportW && viewportH == g.ViewportH {
		return
	}
	g.ViewportW = viewportW
	g.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels. Positive dx moves
// east, positive dy moves south. Longitude wraps; latitude stops short of the poles.
func (g *Globe) Pan(dx, dy float64) {
	px := g.PixelSize()
	lonLen, latLen := geo.MetersPerDegree(g.Lat)
	if lonLen < 1 {
		lonLen = 1
	}
	g.Lon = geo.WrapLon(g.Lon + dx*px/lonLen)
	g.Lat = clamp(g.Lat-dy*px/latLen, -maxLat, maxLat)
}

// SetHeight sets the height, clamped to min/max.
func (g *Globe) SetHeight(h float64) {
	g.Height = clamp(h, g.MinHeight, g.MaxHeight)
}

// ZoomBy divides the current height by the given factor (factor > 1 zooms in).
func (g *Globe) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	g.SetHeight(g.Height / factor)
}

// Reset returns the camera to its initial position.
func (g *Globe) Reset() {
	g.Lon = g.home.Lon
	g.Lat = g.home.Lat
	g.Height = g.home.Height
}

// BeginMove marks the start of a camera move. Returns true only on the transition
// so the caller emits one move-start per gesture.
func (g *Globe) BeginMove() bool {
	if g.moving {
		return false
	}
	g.moving = true
	return true
}

// EndMove marks the end of a camera move. Returns true only on the transition.
func (g *Globe) EndMove() bool {
	if !g.moving {
		return false
	}
	g.moving = false
	return true
}

// Moving reports whether a move is in progress.
func (g *Globe) Moving() bool {
	return g.moving
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
