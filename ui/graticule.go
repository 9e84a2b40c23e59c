package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/render"
)

// GraticuleLines returns meridians and parallels every step degrees, each
// sampled every sample degrees. Parallels stop short of the poles.
func GraticuleLines(step, sample float64) [][]geo.Cartographic {
	if step <= 0 || sample <= 0 {
		return nil
	}
	var lines [][]geo.Cartographic
	for lon := -180.0; lon < 180; lon += step {
		var line []geo.Cartographic
		for lat := -90.0; lat <= 90; lat += sample {
			line = append(line, geo.Cartographic{Lon: lon, Lat: lat})
		}
		lines = append(lines, line)
	}
	for lat := -90 + step; lat < 90; lat += step {
		var line []geo.Cartographic
		for lon := -180.0; lon <= 180; lon += sample {
			line = append(line, geo.Cartographic{Lon: lon, Lat: lat})
		}
		lines = append(lines, line)
	}
	return lines
}

// RangeOutline returns the closed outline of a lon/lat range. A range that
// crosses the antimeridian keeps LonMax above 180 and the points follow it.
func RangeOutline(r geo.LonLatRange, sample float64) []geo.Cartographic {
	if sample <= 0 {
		return nil
	}
	var pts []geo.Cartographic
	edge := func(lon0, lat0, lon1, lat1 float64) {
		n := int(math.Ceil(math.Max(math.Abs(lon1-lon0), math.Abs(lat1-lat0)) / sample))
		n = max(n, 1)
		for i := 0; i < n; i++ {
			t := float64(i) / float64(n)
			pts = append(pts, geo.Cartographic{
				Lon: geo.WrapLon(lon0 + (lon1-lon0)*t),
				Lat: lat0 + (lat1-lat0)*t,
			})
		}
	}
	edge(r.LonMin, r.LatMin, r.LonMax, r.LatMin)
	edge(r.LonMax, r.LatMin, r.LonMax, r.LatMax)
	edge(r.LonMax, r.LatMax, r.LonMin, r.LatMax)
	edge(r.LonMin, r.LatMax, r.LonMin, r.LatMin)
	return append(pts, pts[0])
}

// DrawPolyline projects the points and draws the visible runs. A hidden point
// breaks the line.
func DrawPolyline(pts []geo.Cartographic, ell geo.Ellipsoid, proj render.Projector, thick float32, col rl.Color) {
	var prev rl.Vector2
	havePrev := false
	for _, c := range pts {
		sx, sy, ok := proj.Project(ell.CartographicToCartesian(c))
		if !ok {
			havePrev = false
			continue
		}
		p := rl.Vector2{X: float32(sx), Y: float32(sy)}
		if havePrev {
			rl.DrawLineEx(prev, p, thick, col)
		}
		prev, havePrev = p, true
	}
}
