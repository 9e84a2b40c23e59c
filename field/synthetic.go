package field

import (
	"context"
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Loader produces a field snapshot. Implementations may block.
type Loader interface {
	Load(ctx context.Context) (*Store, error)
}

// LoadResult is delivered once by LoadAsync.
type LoadResult struct {
	Store *Store
	Err   error
}

// LoadAsync runs the loader on its own goroutine. The returned channel receives
// exactly one result and is then closed.
func LoadAsync(ctx context.Context, l Loader) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		s, err := l.Load(ctx)
		ch <- LoadResult{Store: s, Err: err}
	}()
	return ch
}

// Synthetic generates a plausible global wind field from simplex noise: a
// divergence-free swirl (curl of a noise stream function) on top of zonal jets.
// Sampling noise on the unit sphere keeps the field seamless across the
// antimeridian and the poles.
type Synthetic struct {
	Grid   Grid
	Bounds Bounds

	Seed      int64
	BaseSpeed float64 // peak jet speed, m/s
	Swirl     float64 // amplitude of the noise component, m/s
	Scale     float64 // noise frequency on the unit sphere
	Vertical  float64 // amplitude of the vertical component, m/s
	Time      float64 // noise time coordinate
}

// Load implements Loader.
func (s Synthetic) Load(ctx context.Context) (*Store, error) {
	g := s.Grid
	if g.NLon < 1 || g.NLat < 1 || g.NLev < 1 {
		return nil, ErrEmptyGrid
	}

	noise := opensimplex.New(s.Seed)
	n := g.Cells()
	u := make([]float32, n)
	v := make([]float32, n)
	w := make([]float32, n)

	b := s.Bounds
	lonStep := 0.0
	if b.LonMax-b.LonMin >= 360 {
		lonStep = 360 / float64(g.NLon)
	} else if g.NLon > 1 {
		lonStep = (b.LonMax - b.LonMin) / float64(g.NLon-1)
	}
	latStep := 0.0
	if g.NLat > 1 {
		latStep = (b.LatMax - b.LatMin) / float64(g.NLat-1)
	}
	levStep := 0.0
	if g.NLev > 1 {
		levStep = (b.HeightMax - b.HeightMin) / float64(g.NLev-1)
	}

	scale := s.Scale
	if scale <= 0 {
		scale = 2.5
	}
	const eps = 0.5 // degrees, finite difference step

	stream := func(lon, lat, level float64) float64 {
		lonR := lon * math.Pi / 180
		latR := lat * math.Pi / 180
		x := math.Cos(latR) * math.Cos(lonR) * scale
		y := math.Cos(latR) * math.Sin(lonR) * scale
		z := math.Sin(latR) * scale
		return noise.Eval4(x, y, z+level*0.7, s.Time)
	}

	for k := 0; k < g.NLev; k++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generating level %d: %w", k, err)
		}
		height := b.HeightMin + float64(k)*levStep
		level := 0.0
		if b.HeightMax > b.HeightMin {
			level = (height - b.HeightMin) / (b.HeightMax - b.HeightMin)
		}
		// Jets strengthen with altitude
		jetScale := 0.6 + 0.4*level

		for j := 0; j < g.NLat; j++ {
			lat := b.LatMin + float64(j)*latStep
			latR := lat * math.Pi / 180
			cosLat := math.Max(math.Cos(latR), 0.05)

			// Three-cell zonal pattern: easterlies near the equator, westerlies at mid
			// latitudes, polar easterlies.
			zonal := -s.BaseSpeed * jetScale * math.Cos(3*latR) * cosLat

			for i := 0; i < g.NLon; i++ {
				lon := b.LonMin + float64(i)*lonStep

				// Curl of the stream function: u = -dpsi/dlat, v = dpsi/dlon / cos(lat)
				dLat := (stream(lon, lat+eps, level) - stream(lon, lat-eps, level)) / (2 * eps)
				dLon := (stream(lon+eps, lat, level) - stream(lon-eps, lat, level)) / (2 * eps)

				// Per-degree derivatives to per-radian, normalized by the noise frequency
				// so Swirl is roughly the peak speed of the noise component.
				norm := 180 / math.Pi / scale
				idx := (k*g.NLat+j)*g.NLon + i
				u[idx] = float32(zonal - s.Swirl*dLat*norm)
				v[idx] = float32(s.Swirl * dLon * norm / cosLat)
				w[idx] = float32(s.Vertical * noise.Eval4(lon*0.05, lat*0.05, level, s.Time+17))
			}
		}
	}

	store, err := NewStore(g, b, u, v, w)
	if err != nil {
		return nil, fmt.Errorf("building synthetic store: %w", err)
	}
	return store, nil
}

// Preset is a named data source offered by the options panel.
type Preset struct {
	Name   string
	Loader Loader
}

// Presets returns the built-in data sources for a grid and extent.
func Presets(grid Grid, bounds Bounds, seed int64) []Preset {
	return []Preset{
		{Name: "jetstream", Loader: Synthetic{Grid: grid, Bounds: bounds, Seed: seed, BaseSpeed: 30, Swirl: 12, Vertical: 0.05}},
		{Name: "cyclones", Loader: Synthetic{Grid: grid, Bounds: bounds, Seed: seed + 1, BaseSpeed: 8, Swirl: 30, Scale: 4, Vertical: 0.1}},
		{Name: "calm", Loader: Synthetic{Grid: grid, Bounds: bounds, Seed: seed + 2, BaseSpeed: 4, Swirl: 3, Vertical: 0}},
	}
}

// Uniform is a constant-vector field, mostly useful for tests and calibration.
type Uniform struct {
	Grid   Grid
	Bounds Bounds
	Wind   Vec3f
}

// Load implements Loader.
func (l Uniform) Load(ctx context.Context) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := l.Grid.Cells()
	if n < 1 {
		return nil, ErrEmptyGrid
	}
	u := make([]float32, n)
	v := make([]float32, n)
	w := make([]float32, n)
	for i := 0; i < n; i++ {
		u[i], v[i], w[i] = l.Wind.U, l.Wind.V, l.Wind.W
	}
	return NewStore(l.Grid, l.Bounds, u, v, w)
}
