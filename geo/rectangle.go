package geo

import "math"

// LonLatRange is a geographic rectangle in degrees.
// LonMin is in [-180, 180). LonMax may exceed 180 when the rectangle crosses the
// antimeridian; the span LonMax-LonMin never exceeds 360.
type LonLatRange struct {
	LonMin, LonMax float64
	LatMin, LatMax float64
}

// FullRange covers the whole globe.
var FullRange = LonLatRange{LonMin: -180, LonMax: 180, LatMin: -90, LatMax: 90}

// WrapLon maps a longitude into [-180, 180).
func WrapLon(lon float64) float64 {
	r := math.Mod(lon+180, 360)
	if r < 0 {
		r += 360
	}
	return r - 180
}

// ClampLat restricts a latitude to [-90, 90].
func ClampLat(lat float64) float64 {
	if lat > 90 {
		return 90
	}
	if lat < -90 {
		return -90
	}
	return lat
}

// NewLonLatRange builds a normalized range from possibly unwrapped bounds.
func NewLonLatRange(lonMin, lonMax, latMin, latMax float64) LonLatRange {
	span := lonMax - lonMin
	if span >= 360 || span < 0 {
		lonMin, lonMax = -180, 180
	} else {
		lonMin = WrapLon(lonMin)
		lonMax = lonMin + span
	}
	if latMin > latMax {
		latMin, latMax = latMax, latMin
	}
	return LonLatRange{
		LonMin: lonMin,
		LonMax: lonMax,
		LatMin: ClampLat(latMin),
		LatMax: ClampLat(latMax),
	}
}

// LonWidth returns the longitude span in degrees.
func (r LonLatRange) LonWidth() float64 {
	return r.LonMax - r.LonMin
}

// LatHeight returns the latitude span in degrees.
func (r LonLatRange) LatHeight() float64 {
	return r.LatMax - r.LatMin
}

// ContainsLon reports whether lon (any representation) falls inside the longitude span.
func (r LonLatRange) ContainsLon(lon float64) bool {
	if r.LonWidth() >= 360 {
		return true
	}
	d := math.Mod(lon-r.LonMin, 360)
	if d < 0 {
		d += 360
	}
	return d <= r.LonWidth()
}

// Contains reports whether the point lies inside the rectangle.
func (r LonLatRange) Contains(lon, lat float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && r.ContainsLon(lon)
}

// Intersect returns the overlap of two ranges and whether it is non-empty.
// Longitude overlap is computed on the unwrapped spans, trying both 360 offsets so
// seam-crossing ranges intersect correctly.
func (r LonLatRange) Intersect(o LonLatRange) (LonLatRange, bool) {
	latMin := math.Max(r.LatMin, o.LatMin)
	latMax := math.Min(r.LatMax, o.LatMax)
	if latMin > latMax {
		return LonLatRange{}, false
	}

	if r.LonWidth() >= 360 {
		return LonLatRange{LonMin: o.LonMin, LonMax: o.LonMax, LatMin: latMin, LatMax: latMax}, true
	}
	if o.LonWidth() >= 360 {
		return LonLatRange{LonMin: r.LonMin, LonMax: r.LonMax, LatMin: latMin, LatMax: latMax}, true
	}

	best := LonLatRange{}
	found := false
	for _, shift := range []float64{-360, 0, 360} {
		lo := math.Max(r.LonMin, o.LonMin+shift)
		hi := math.Min(r.LonMax, o.LonMax+shift)
		if lo <= hi && (!found || hi-lo > best.LonWidth()) {
			best = LonLatRange{LonMin: lo, LonMax: hi}
			found = true
		}
	}
	if !found {
		return LonLatRange{}, false
	}
	best.LatMin = latMin
	best.LatMax = latMax
	if best.LonMin < -180 || best.LonMin >= 180 {
		w := best.LonWidth()
		best.LonMin = WrapLon(best.LonMin)
		best.LonMax = best.LonMin + w
	}
	return best, true
}
