// Package field holds the immutable gridded wind snapshot sampled by the particle
// compute passes.
package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/windglobe/geo"
)

var (
	// ErrEmptyGrid is returned when a grid dimension is zero.
	ErrEmptyGrid = errors.New("field: empty grid")
	// ErrGridSize is returned when a component slice does not match the grid.
	ErrGridSize = errors.New("field: component size does not match grid")
	// ErrBounds is returned for inverted or out-of-range extents.
	ErrBounds = errors.New("field: invalid bounds")
)

// Grid is the number of samples along each axis.
type Grid struct {
	NLon, NLat, NLev int
}

// Cells returns the total number of samples.
func (g Grid) Cells() int {
	return g.NLon * g.NLat * g.NLev
}

// Bounds is the geographic extent of the grid plus the magnitude range of its vectors.
// Longitudes are in degrees and may span the full 360; heights are meters.
type Bounds struct {
	LonMin, LonMax       float64
	LatMin, LatMax       float64
	HeightMin, HeightMax float64
	SpeedMin, SpeedMax   float32
}

// Range returns the lon/lat part of the extent.
func (b Bounds) Range() geo.LonLatRange {
	return geo.NewLonLatRange(b.LonMin, b.LonMax, b.LatMin, b.LatMax)
}

// ContainsHeight reports whether h lies inside the vertical extent.
func (b Bounds) ContainsHeight(h float64) bool {
	return h >= b.HeightMin && h <= b.HeightMax
}

// Vec3f is a wind vector in meters per second (east, north, up).
type Vec3f struct {
	U, V, W float32
}

// Speed returns the vector magnitude.
func (v Vec3f) Speed() float32 {
	return float32(math.Sqrt(float64(v.U*v.U + v.V*v.V + v.W*v.W)))
}

// Store is a read-only snapshot of the wind grid. Samples are laid out
// lon-fastest: index = (lev*NLat + lat)*NLon + lon. NaN marks a void cell.
type Store struct {
	grid    Grid
	bounds  Bounds
	u, v, w []float32

	wrapLon    bool
	dLon, dLat float64
	dLev       float64
}

// NewStore validates the grid and takes ownership of the component slices.
// SpeedMin/SpeedMax are computed from the data when both are zero.
func NewStore(grid Grid, bounds Bounds, u, v, w []float32) (*Store, error) {
	if grid.NLon < 1 || grid.NLat < 1 || grid.NLev < 1 {
		return nil, ErrEmptyGrid
	}
	n := grid.Cells()
	if len(u) != n || len(v) != n {
		return nil, fmt.Errorf("%w: want %d samples, got u=%d v=%d", ErrGridSize, n, len(u), len(v))
	}
	if w == nil {
		w = make([]float32, n)
	}
	if len(w) != n {
		return nil, fmt.Errorf("%w: want %d samples, got w=%d", ErrGridSize, n, len(w))
	}
	if bounds.LonMin > bounds.LonMax || bounds.LatMin > bounds.LatMax || bounds.HeightMin > bounds.HeightMax {
		return nil, fmt.Errorf("%w: inverted extent", ErrBounds)
	}
	if bounds.LatMin < -90 || bounds.LatMax > 90 || bounds.LonMax-bounds.LonMin > 360 {
		return nil, fmt.Errorf("%w: extent outside the globe", ErrBounds)
	}

	s := &Store{grid: grid, bounds: bounds, u: u, v: v, w: w}
	s.wrapLon = bounds.LonMax-bounds.LonMin >= 360
	if s.wrapLon {
		s.dLon = 360 / float64(grid.NLon)
	} else if grid.NLon > 1 {
		s.dLon = (bounds.LonMax - bounds.LonMin) / float64(grid.NLon-1)
	}
	if grid.NLat > 1 {
		s.dLat = (bounds.LatMax - bounds.LatMin) / float64(grid.NLat-1)
	}
	if grid.NLev > 1 {
		s.dLev = (bounds.HeightMax - bounds.HeightMin) / float64(grid.NLev-1)
	}

	if s.bounds.SpeedMin == 0 && s.bounds.SpeedMax == 0 {
		s.bounds.SpeedMin, s.bounds.SpeedMax = s.speedRange()
	}
	return s, nil
}

// Grid returns the grid dimensions.
func (s *Store) Grid() Grid { return s.grid }

// Bounds returns the extent and speed range.
func (s *Store) Bounds() Bounds { return s.bounds }

// At returns the raw sample at a grid index.
func (s *Store) At(i, j, k int) Vec3f {
	idx := s.index(i, j, k)
	return Vec3f{U: s.u[idx], V: s.v[idx], W: s.w[idx]}
}

func (s *Store) index(i, j, k int) int {
	return (k*s.grid.NLat+j)*s.grid.NLon + i
}

// speedRange scans all non-void cells for the magnitude range.
func (s *Store) speedRange() (float32, float32) {
	minS := float32(math.MaxFloat32)
	maxS := float32(0)
	found := false
	for i := range s.u {
		v := Vec3f{U: s.u[i], V: s.v[i], W: s.w[i]}
		sp := v.Speed()
		if math.IsNaN(float64(sp)) || math.IsInf(float64(sp), 0) {
			continue
		}
		found = true
		if sp < minS {
			minS = sp
		}
		if sp > maxS {
			maxS = sp
		}
	}
	if !found {
		return 0, 0
	}
	return minS, maxS
}

// axis locates a coordinate on one grid axis. Returns the lower index, the blend
// fraction toward the upper index, and whether the coordinate is on the grid.
func axis(x, lo, hi, step float64, n int) (int, float64, bool) {
	if x < lo || x > hi {
		return 0, 0, false
	}
	if n == 1 || step == 0 {
		return 0, 0, true
	}
	t := (x - lo) / step
	if t < 0 || t > float64(n-1) {
		return 0, 0, false
	}
	i := int(math.Floor(t))
	if i >= n-1 {
		return n - 2, 1, true
	}
	return i, t - float64(i), true
}

// Sample trilinearly interpolates the field at a geographic position. The boolean is
// false outside the extent or when any contributing cell is void; callers treat
// that as the "no wind" sentinel.
func (s *Store) Sample(lon, lat, height float64) (Vec3f, bool) {
	b := s.bounds
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsNaN(height) {
		return Vec3f{}, false
	}

	// Longitude
	var i0, i1 int
	var fx float64
	d := math.Mod(lon-b.LonMin, 360)
	if d < 0 {
		d += 360
	}
	if s.wrapLon {
		t := d / s.dLon
		i0 = int(math.Floor(t)) % s.grid.NLon
		i1 = (i0 + 1) % s.grid.NLon
		fx = t - math.Floor(t)
	} else {
		if d > b.LonMax-b.LonMin {
			return Vec3f{}, false
		}
		var ok bool
		i0, fx, ok = axis(b.LonMin+d, b.LonMin, b.LonMax, s.dLon, s.grid.NLon)
		if !ok {
			return Vec3f{}, false
		}
		i1 = min(i0+1, s.grid.NLon-1)
	}

	j0, fy, ok := axis(lat, b.LatMin, b.LatMax, s.dLat, s.grid.NLat)
	if !ok {
		return Vec3f{}, false
	}
	j1 := min(j0+1, s.grid.NLat-1)

	var k0, k1 int
	var fz float64
	if s.grid.NLev == 1 {
		if !b.ContainsHeight(height) {
			return Vec3f{}, false
		}
	} else {
		k0, fz, ok = axis(height, b.HeightMin, b.HeightMax, s.dLev, s.grid.NLev)
		if !ok {
			return Vec3f{}, false
		}
		k1 = k0 + 1
	}

	var out [3]float64
	comps := [3][]float32{s.u, s.v, s.w}
	for c, data := range comps {
		c000 := float64(data[s.index(i0, j0, k0)])
		c100 := float64(data[s.index(i1, j0, k0)])
		c010 := float64(data[s.index(i0, j1, k0)])
		c110 := float64(data[s.index(i1, j1, k0)])
		c001 := float64(data[s.index(i0, j0, k1)])
		c101 := float64(data[s.index(i1, j0, k1)])
		c011 := float64(data[s.index(i0, j1, k1)])
		c111 := float64(data[s.index(i1, j1, k1)])

		c00 := lerp(c000, c100, fx)
		c10 := lerp(c010, c110, fx)
		c01 := lerp(c001, c101, fx)
		c11 := lerp(c011, c111, fx)
		v := lerp(lerp(c00, c10, fy), lerp(c01, c11, fy), fz)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Vec3f{}, false
		}
		out[c] = v
	}

	return Vec3f{U: float32(out[0]), V: float32(out[1]), W: float32(out[2])}, true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
