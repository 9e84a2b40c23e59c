package particles

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
)

func uniformStore(t *testing.T, wind field.Vec3f) *field.Store {
	t.Helper()
	s, err := field.Uniform{
		Grid:   field.Grid{NLon: 4, NLat: 4, NLev: 2},
		Bounds: field.Bounds{LonMin: 0, LonMax: 20, LatMin: -10, LatMax: 10, HeightMin: 0, HeightMax: 1000},
		Wind:   wind,
	}.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func defaultParams(store *field.Store) *Params {
	return &Params{
		Field:         store,
		Visible:       geo.FullRange,
		SpeedFactor:   1,
		TimeStep:      600,
		MaxAge:        100,
		MaxVoidFrames: 3,
		DropRate:      0.003,
		DropRateBump:  0.01,
		Seed:          42,
	}
}

func runFrame(pool *Pool, p *Params, s *State) {
	for _, pass := range Chain() {
		pass.Run(pool, p, s)
	}
}

func TestPoolRunCoversEveryIndexOnce(t *testing.T) {
	pool := NewPool(4, 1)
	defer pool.Stop()

	const n = 10007
	hits := make([]int32, n)
	for round := 0; round < 3; round++ {
		pool.Run(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
	}
	for i, h := range hits {
		if h != 3 {
			t.Fatalf("index %d visited %d times, want 3", i, h)
		}
	}
}

func TestPoolInlineBelowThreshold(t *testing.T) {
	pool := NewPool(4, 100)
	calls := 0
	pool.Run(50, func(start, end int) {
		calls++
		if start != 0 || end != 50 {
			t.Errorf("expected single chunk [0,50), got [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected one inline call, got %d", calls)
	}
	if pool.running {
		t.Error("workers should not start for inline runs")
	}
}

func TestPoolRestartsAfterStop(t *testing.T) {
	pool := NewPool(2, 1)
	var sum atomic.Int64
	add := func(start, end int) { sum.Add(int64(end - start)) }

	pool.Run(100, add)
	pool.Stop()
	pool.Stop()
	pool.Run(100, add)
	defer pool.Stop()

	if got := sum.Load(); got != 200 {
		t.Errorf("covered %d indices, want 200", got)
	}
}

func TestSeederStaysInRange(t *testing.T) {
	store := uniformStore(t, field.Vec3f{U: 1})
	visible := geo.NewLonLatRange(5, 40, -5, 30)
	seeder := NewSeeder(store, visible, 9)

	// visible ∩ extent = lon [5,20], lat [-5,10]
	for id := uint32(0); id < 2000; id++ {
		lon, lat, h := seeder.Position(id)
		if lon < 5 || lon > 20 || lat < -5 || lat > 10 {
			t.Fatalf("seed %d at (%f,%f) outside the clipped view", id, lon, lat)
		}
		if h < 0 || h > 1000 {
			t.Fatalf("seed %d height %f outside field", id, h)
		}
	}
}

func TestSeederFallsBackToExtent(t *testing.T) {
	store := uniformStore(t, field.Vec3f{U: 1})
	seeder := NewSeeder(store, geo.NewLonLatRange(100, 120, 40, 60), 1)
	if seeder.Range != store.Bounds().Range() {
		t.Errorf("expected field extent when view misses it, got %+v", seeder.Range)
	}
}

func TestLiveParticlesStayInBounds(t *testing.T) {
	// Fast diagonal wind pushes particles out of the small extent every few frames.
	store := uniformStore(t, field.Vec3f{U: 300, V: -200, W: 0.2})
	p := defaultParams(store)
	pool := NewPool(3, 64)
	defer pool.Stop()

	state := NewState(512, NewSeeder(store, p.Visible, p.Seed))
	b := store.Bounds()
	extent := b.Range()

	for frame := 0; frame < 200; frame++ {
		p.Seed = uint64(frame)
		runFrame(pool, p, state)

		front := state.Front()
		for i := 0; i < front.Len(); i++ {
			lon, lat, h := front.Position(i)
			if !extent.Contains(lon, lat) || !b.ContainsHeight(h) {
				t.Fatalf("frame %d: particle %d at (%f,%f,%f) outside field", frame, i, lon, lat, h)
			}
		}
	}
}

func TestReseedSuppressesExactlyOneSegment(t *testing.T) {
	store := uniformStore(t, field.Vec3f{U: 250})
	p := defaultParams(store)
	pool := NewPool(1, 0)

	state := NewState(256, NewSeeder(store, p.Visible, p.Seed))
	reseeds := 0

	for frame := 0; frame < 100; frame++ {
		p.Seed = uint64(frame) * 7
		runFrame(pool, p, state)

		front := state.Front()
		for i := 0; i < front.Len(); i++ {
			reseeded := front.Flags[i]&FlagReseeded != 0
			continuous := front.Flags[i]&FlagContinuous != 0
			if reseeded {
				reseeds++
				if continuous {
					t.Fatalf("frame %d: reseeded particle %d still continuous", frame, i)
				}
				if front.Speed[i] != 0 {
					t.Errorf("frame %d: reseeded particle %d has speed %f", frame, i, front.Speed[i])
				}
			} else if !continuous {
				t.Fatalf("frame %d: particle %d lost continuity without a reseed", frame, i)
			}
		}
	}
	if reseeds == 0 {
		t.Error("expected particles to leave the extent and reseed")
	}
}

func TestVoidParticlesAreRecycled(t *testing.T) {
	grid := field.Grid{NLon: 2, NLat: 2, NLev: 1}
	bounds := field.Bounds{LonMin: 0, LonMax: 10, LatMin: 0, LatMax: 10}
	nan := float32(math.NaN())
	store, err := field.NewStore(grid, bounds, []float32{nan, nan, nan, nan}, make([]float32, 4), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	p := defaultParams(store)
	p.DropRate, p.DropRateBump = 0, 0
	pool := NewPool(1, 0)
	state := NewState(32, NewSeeder(store, p.Visible, 3))

	sawReseed := false
	for frame := 0; frame < 10; frame++ {
		runFrame(pool, p, state)
		front := state.Front()
		for i := 0; i < front.Len(); i++ {
			if front.Void[i] > p.MaxVoidFrames {
				t.Fatalf("frame %d: particle %d void for %d frames", frame, i, front.Void[i])
			}
			if front.Speed[i] != 0 {
				t.Fatalf("frame %d: void particle %d has speed %f", frame, i, front.Speed[i])
			}
		}
		if state.Census().Reseeded > 0 {
			sawReseed = true
		}
	}
	if !sawReseed {
		t.Error("expected void particles to be reseeded")
	}
}

func TestNonFiniteStepIsRecovered(t *testing.T) {
	store := uniformStore(t, field.Vec3f{U: 10, V: 5})
	p := defaultParams(store)
	p.TimeStep = math.Inf(1)
	pool := NewPool(1, 0)
	state := NewState(64, NewSeeder(store, p.Visible, 5))

	runFrame(pool, p, state)

	if state.Census().NonFinite == 0 {
		t.Error("expected non-finite particles to be counted")
	}
	front := state.Front()
	for i := 0; i < front.Len(); i++ {
		lon, lat, h := front.Position(i)
		if !finite(lon) || !finite(lat) || !finite(h) || !finite(float64(front.Speed[i])) {
			t.Fatalf("particle %d not finite after recovery", i)
		}
	}
}

func TestStepCappedByPixelSize(t *testing.T) {
	store := uniformStore(t, field.Vec3f{U: 10})
	tests := []struct {
		name      string
		pixelSize float64
		want      float64 // meters moved east
	}{
		{"uncapped without pixel size", 0, 6000},
		{"capped when zoomed in", 100, 100 * MaxStepPixels},
		{"under the cap", 1000, 6000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams(store)
			p.PixelSize = tt.pixelSize
			pool := NewPool(1, 0)
			state := NewState(16, NewSeeder(store, p.Visible, 2))

			GetWind(pool, p, state)
			UpdateSpeed(pool, p, state)
			UpdatePosition(pool, p, state)

			front, back := state.Front(), state.Back()
			for i := 0; i < front.Len(); i++ {
				lonLen, _ := geo.MetersPerDegree(float64(front.Lat[i]))
				moved := float64(back.Lon[i]-front.Lon[i]) * lonLen
				if math.Abs(moved-tt.want) > tt.want*0.01 {
					t.Errorf("particle %d moved %.1f m, want %.1f", i, moved, tt.want)
				}
			}
		})
	}
}

func TestSpeedClamped(t *testing.T) {
	store := uniformStore(t, field.Vec3f{U: 5})
	p := defaultParams(store)
	p.SpeedFactor = 4
	p.TimeStep = 1
	p.DropRate, p.DropRateBump = 0, 0

	tests := []struct {
		name     string
		speedMax float64
		want     float32
	}{
		{"explicit", 2, 2},
		{"field derived", 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.SpeedMax = tt.speedMax
			pool := NewPool(1, 0)
			state := NewState(16, NewSeeder(store, p.Visible, 1))
			runFrame(pool, p, state)
			runFrame(pool, p, state)

			front := state.Front()
			for i := 0; i < front.Len(); i++ {
				if front.Flags[i]&FlagContinuous == 0 {
					continue
				}
				if math.Abs(float64(front.Speed[i]-tt.want)) > 1e-4 {
					t.Errorf("particle %d speed %f, want %f", i, front.Speed[i], tt.want)
				}
			}
		})
	}
}

func TestFit32(t *testing.T) {
	tests := []struct {
		v, lo, hi float64
	}{
		{0.1, 0, 0.1},
		{-0.1, -0.1, 0},
		{89.99999999, -90, 89.99999999},
		{5, 0, 10},
	}
	for _, tt := range tests {
		f := float64(fit32(tt.v, tt.lo, tt.hi))
		if f < tt.lo || f > tt.hi {
			t.Errorf("fit32(%v) = %v outside [%v,%v]", tt.v, f, tt.lo, tt.hi)
		}
	}
}
