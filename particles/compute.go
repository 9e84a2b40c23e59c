package particles

import (
	"math"

	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
)

// Pass names in dependency order.
const (
	PassGetWind             = "get_wind"
	PassUpdateSpeed         = "update_speed"
	PassUpdatePosition      = "update_position"
	PassPostProcessPosition = "post_process_position"
	PassPostProcessSpeed    = "post_process_speed"
)

// minLonLength keeps the degrees-per-meter conversion finite near the poles.
const minLonLength = 1000.0

// MaxStepPixels caps how far a particle moves in one frame, in pixels at the
// view center. Zoomed in, a full time step would jump particles across the
// screen and leave no trail.
const MaxStepPixels = 16.0

// Params are the frame constants read by every compute pass. Built once per frame
// from frozen snapshots and never mutated by a pass.
type Params struct {
	Field   *field.Store
	Visible geo.LonLatRange

	SpeedFactor float64
	TimeStep    float64 // seconds advanced per frame

	MaxAge        uint32 // 0 disables age-based expiry
	MaxVoidFrames uint16
	SpeedMax      float64 // 0 = field SpeedMax * SpeedFactor

	DropRate     float64
	DropRateBump float64
	CullToView   bool

	// Ground meters per pixel at the view center; 0 leaves steps uncapped
	PixelSize float64

	Seed uint64
}

// speedLimit returns the clamp applied by PostProcessSpeed.
func (p *Params) speedLimit() float64 {
	if p.SpeedMax > 0 {
		return p.SpeedMax
	}
	if p.Field == nil {
		return 0
	}
	return float64(p.Field.Bounds().SpeedMax) * p.SpeedFactor
}

// PassFunc runs one compute pass over the whole state.
type PassFunc func(pool *Pool, p *Params, s *State)

// Pass is a named compute pass.
type Pass struct {
	Name string
	Run  PassFunc
}

// Chain returns the five compute passes in the order they must run.
func Chain() []Pass {
	return []Pass{
		{Name: PassGetWind, Run: GetWind},
		{Name: PassUpdateSpeed, Run: UpdateSpeed},
		{Name: PassUpdatePosition, Run: UpdatePosition},
		{Name: PassPostProcessPosition, Run: PostProcessPosition},
		{Name: PassPostProcessSpeed, Run: PostProcessSpeed},
	}
}

// GetWind samples the field at each particle's published position into State.Wind.
func GetWind(pool *Pool, p *Params, s *State) {
	front := s.Front()
	pool.Run(s.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			if p.Field == nil {
				s.Wind[i] = field.Vec3f{}
				s.WindOK[i] = false
				continue
			}
			lon, lat, h := front.Position(i)
			s.Wind[i], s.WindOK[i] = p.Field.Sample(lon, lat, h)
		}
	})
}

// UpdateSpeed converts the sampled wind into a scalar speed (scaled by speedFactor)
// and a velocity in degrees per second. The sentinel yields zero speed.
func UpdateSpeed(pool *Pool, p *Params, s *State) {
	front := s.Front()
	back := s.Back()
	pool.Run(s.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			if !s.WindOK[i] {
				back.Speed[i] = 0
				back.VelLon[i], back.VelLat[i], back.VelHeight[i] = 0, 0, 0
				back.Void[i] = satInc(front.Void[i])
				back.Flags[i] = FlagVoid
				continue
			}

			w := s.Wind[i]
			lonLen, latLen := geo.MetersPerDegree(float64(front.Lat[i]))
			if lonLen < minLonLength {
				lonLen = minLonLength
			}

			velLon := float64(w.U) / lonLen
			velLat := float64(w.V) / latLen
			velH := float64(w.W)
			speed := float64(w.Speed()) * p.SpeedFactor

			if !finite(velLon) || !finite(velLat) || !finite(velH) || !finite(speed) {
				back.Speed[i] = 0
				back.VelLon[i], back.VelLat[i], back.VelHeight[i] = 0, 0, 0
				back.Void[i] = 0
				back.Flags[i] = FlagNonFinite
				continue
			}

			back.Speed[i] = float32(math.Max(speed, 0))
			back.VelLon[i] = float32(velLon)
			back.VelLat[i] = float32(velLat)
			back.VelHeight[i] = float32(velH)
			back.Void[i] = 0
			back.Flags[i] = 0
		}
	})
}

// UpdatePosition advances each particle with one explicit Euler step:
// pos += velocity * speedFactor * timeStep, shortened so the move stays within
// MaxStepPixels of PixelSize. Longitude wraps across the antimeridian; latitude
// clamps at the poles.
func UpdatePosition(pool *Pool, p *Params, s *State) {
	front := s.Front()
	back := s.Back()
	step := p.SpeedFactor * p.TimeStep
	maxMove := p.PixelSize * MaxStepPixels
	pool.Run(s.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			k := step
			if maxMove > 0 {
				if move := float64(back.Speed[i]) * p.TimeStep; move > maxMove {
					k = step * maxMove / move
				}
			}
			lon := float64(front.Lon[i]) + float64(back.VelLon[i])*k
			lat := float64(front.Lat[i]) + float64(back.VelLat[i])*k
			h := float64(front.Height[i]) + float64(back.VelHeight[i])*k

			if !finite(lon) || !finite(lat) || !finite(h) {
				back.Lon[i], back.Lat[i], back.Height[i] = front.Lon[i], front.Lat[i], front.Height[i]
				back.Flags[i] |= FlagNonFinite
				continue
			}

			back.Lon[i] = float32(geo.WrapLon(lon))
			back.Lat[i] = float32(geo.ClampLat(lat))
			back.Height[i] = float32(h)
		}
	})
}

// PostProcessPosition finds dead particles and reseeds them uniformly over the
// visible range (clipped to the field extent). A particle is dead when it has
// left the field extent (or the view, with CullToView), stayed on void cells
// longer than MaxVoidFrames, produced a non-finite value, reached MaxAge, or
// lost the random drop roll that keeps coverage uniform.
func PostProcessPosition(pool *Pool, p *Params, s *State) {
	front := s.Front()
	back := s.Back()

	var bounds field.Bounds
	extent := geo.FullRange
	if p.Field != nil {
		bounds = p.Field.Bounds()
		extent = bounds.Range()
	}
	var seeder Seeder
	if p.Field != nil {
		seeder = NewSeeder(p.Field, p.Visible, p.Seed)
	} else {
		seeder = Seeder{Range: p.Visible, Seed: p.Seed}
	}
	limit := p.speedLimit()
	lonLo, lonHi := -180.0, 180.0
	if seeder.Range.LonMax <= 180 {
		lonLo, lonHi = seeder.Range.LonMin, seeder.Range.LonMax
	}

	pool.Run(s.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			lon, lat, h := back.Position(i)

			dead := back.Flags[i]&FlagNonFinite != 0 ||
				!finite(lon) || !finite(lat) || !finite(h)
			if !dead && p.Field != nil {
				dead = !extent.Contains(lon, lat) || !bounds.ContainsHeight(h)
			}
			if !dead && p.CullToView {
				dead = !p.Visible.Contains(lon, lat)
			}
			if !dead && back.Void[i] > p.MaxVoidFrames {
				dead = true
			}
			if !dead && p.MaxAge > 0 && front.Age[i] >= p.MaxAge {
				dead = true
			}
			if !dead && (p.DropRate > 0 || p.DropRateBump > 0) {
				norm := 0.0
				if limit > 0 {
					norm = math.Min(float64(back.Speed[i])/limit, 1)
				}
				dead = seeder.Random(uint32(i), 1) < p.DropRate+norm*p.DropRateBump
			}

			if !dead {
				back.Age[i] = front.Age[i] + 1
				back.Flags[i] &^= FlagReseeded
				continue
			}

			nlon, nlat, nh := seeder.Position(uint32(i))
			back.Lon[i] = fit32(nlon, lonLo, lonHi)
			back.Lat[i] = fit32(nlat, seeder.Range.LatMin, seeder.Range.LatMax)
			back.Height[i] = fit32(nh, seeder.HeightMin, seeder.HeightMax)
			back.Age[i] = 0
			back.Void[i] = 0
			back.Flags[i] = back.Flags[i]&FlagNonFinite | FlagReseeded
		}
	})
}

// PostProcessSpeed clamps speed to [0, speedMax] and sets trail continuity:
// reseeded particles lose continuity (and their speed) so the next segment does
// not connect to the pre-reseed position. Publishes the frame by swapping buffers.
func PostProcessSpeed(pool *Pool, p *Params, s *State) {
	back := s.Back()
	limit := float32(p.speedLimit())
	pool.Run(s.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			if back.Flags[i]&FlagReseeded != 0 {
				back.Speed[i] = 0
				back.VelLon[i], back.VelLat[i], back.VelHeight[i] = 0, 0, 0
				back.Flags[i] &^= FlagContinuous
				continue
			}

			sp := back.Speed[i]
			if !finite(float64(sp)) || sp < 0 {
				sp = 0
			}
			if limit > 0 && sp > limit {
				sp = limit
			}
			back.Speed[i] = sp
			back.Flags[i] |= FlagContinuous
		}
	})
	s.Swap()
}

// Census counts particle states in the published buffer.
type Census struct {
	Total     int
	Reseeded  int
	NonFinite int
	Void      int
}

// Census walks the front buffer.
func (s *State) Census() Census {
	front := s.Front()
	c := Census{Total: front.Len()}
	for _, f := range front.Flags {
		if f&FlagReseeded != 0 {
			c.Reseeded++
		}
		if f&FlagNonFinite != 0 {
			c.NonFinite++
		}
		if f&FlagVoid != 0 {
			c.Void++
		}
	}
	return c
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func satInc(v uint16) uint16 {
	if v == math.MaxUint16 {
		return v
	}
	return v + 1
}

// fit32 narrows v to float32 without leaving [lo, hi] through rounding.
func fit32(v, lo, hi float64) float32 {
	f := float32(v)
	for float64(f) > hi {
		f = math.Nextafter32(f, float32(math.Inf(-1)))
	}
	for float64(f) < lo {
		f = math.Nextafter32(f, float32(math.Inf(1)))
	}
	return f
}
