// Package geo provides ellipsoid conversions and geographic range helpers.
package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ellipsoid is an oblate spheroid with semi-major axis A and semi-minor axis B (meters).
type Ellipsoid struct {
	A, B float64
}

// WGS84 is the reference ellipsoid used by the globe.
var WGS84 = Ellipsoid{A: 6378137.0, B: 6356752.3142451793}

// Cartographic is a geodetic position: degrees for lon/lat, meters for height.
type Cartographic struct {
	Lon, Lat, Height float64
}

// e2 returns the first eccentricity squared.
func (e Ellipsoid) e2() float64 {
	return 1 - (e.B*e.B)/(e.A*e.A)
}

// CartographicToCartesian converts a geodetic position to earth-centered cartesian
// coordinates (Z toward the north pole, X through lon 0).
func (e Ellipsoid) CartographicToCartesian(c Cartographic) r3.Vec {
	lon := c.Lon * math.Pi / 180
	lat := c.Lat * math.Pi / 180
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	e2 := e.e2()
	n := e.A / math.Sqrt(1-e2*sinLat*sinLat)

	return r3.Vec{
		X: (n + c.Height) * cosLat * cosLon,
		Y: (n + c.Height) * cosLat * sinLon,
		Z: (n*(1-e2) + c.Height) * sinLat,
	}
}

// CartesianToCartographic converts earth-centered cartesian coordinates back to a
// geodetic position. Uses a fixed-point iteration on latitude, which converges in a
// handful of steps for points near the surface.
func (e Ellipsoid) CartesianToCartographic(p r3.Vec) Cartographic {
	e2 := e.e2()
	rho := math.Hypot(p.X, p.Y)

	// Polar axis: longitude is undefined, report 0
	if rho < 1e-9 {
		lat := 90.0
		if p.Z < 0 {
			lat = -90
		}
		return Cartographic{Lon: 0, Lat: lat, Height: math.Abs(p.Z) - e.B}
	}

	lon := math.Atan2(p.Y, p.X)
	lat := math.Atan2(p.Z, rho*(1-e2))
	var h float64
	for i := 0; i < 6; i++ {
		sinLat := math.Sin(lat)
		n := e.A / math.Sqrt(1-e2*sinLat*sinLat)
		h = rho/math.Cos(lat) - n
		lat = math.Atan2(p.Z, rho*(1-e2*n/(n+h)))
	}

	return Cartographic{
		Lon:    lon * 180 / math.Pi,
		Lat:    lat * 180 / math.Pi,
		Height: h,
	}
}

// SurfaceNormal returns the geodetic surface normal at a cartesian point.
func (e Ellipsoid) SurfaceNormal(p r3.Vec) r3.Vec {
	a2 := e.A * e.A
	b2 := e.B * e.B
	return r3.Unit(r3.Vec{X: p.X / a2, Y: p.Y / a2, Z: p.Z / b2})
}

// IntersectRay returns the first point where the ray origin + t*dir (t >= 0)
// meets the ellipsoid surface.
func (e Ellipsoid) IntersectRay(origin, dir r3.Vec) (r3.Vec, bool) {
	// Scale to the unit sphere
	o := r3.Vec{X: origin.X / e.A, Y: origin.Y / e.A, Z: origin.Z / e.B}
	d := r3.Vec{X: dir.X / e.A, Y: dir.Y / e.A, Z: dir.Z / e.B}

	a := r3.Dot(d, d)
	if a == 0 {
		return r3.Vec{}, false
	}
	b := 2 * r3.Dot(o, d)
	c := r3.Dot(o, o) - 1
	disc := b*b - 4*a*c
	if disc < 0 {
		return r3.Vec{}, false
	}
	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t < 0 {
		t = (-b + sq) / (2 * a)
	}
	if t < 0 {
		return r3.Vec{}, false
	}
	return r3.Add(origin, r3.Scale(t, dir)), true
}

// MetersPerDegree returns the ground length of one degree of longitude and one degree
// of latitude at the given latitude (degrees).
func MetersPerDegree(lat float64) (lonLen, latLen float64) {
	phi := lat * math.Pi / 180
	lonLen = 111412.84*math.Cos(phi) - 93.5*math.Cos(3*phi) + 0.118*math.Cos(5*phi)
	latLen = 111132.92 - 559.82*math.Cos(2*phi) + 1.175*math.Cos(4*phi) - 0.0023*math.Cos(6*phi)
	return lonLen, latLen
}
