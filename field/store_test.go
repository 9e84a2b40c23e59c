package field

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

// linearStore builds a 3x3x2 grid where u = lon, v = lat, w = height/1000, so
// trilinear interpolation is exact.
func linearStore(t *testing.T) *Store {
	t.Helper()
	grid := Grid{NLon: 3, NLat: 3, NLev: 2}
	bounds := Bounds{LonMin: 0, LonMax: 20, LatMin: -10, LatMax: 10, HeightMin: 0, HeightMax: 1000}
	n := grid.Cells()
	u := make([]float32, n)
	v := make([]float32, n)
	w := make([]float32, n)
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				idx := (k*3+j)*3 + i
				u[idx] = float32(i * 10)
				v[idx] = float32(-10 + j*10)
				w[idx] = float32(k)
			}
		}
	}
	s, err := NewStore(grid, bounds, u, v, w)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSampleTrilinear(t *testing.T) {
	s := linearStore(t)

	testCases := []struct {
		lon, lat, h float64
	}{
		{0, -10, 0},
		{5, 2.5, 250},
		{19.9, 9.9, 999},
		{20, 10, 1000},
		{12.5, -7, 500},
	}

	for _, tc := range testCases {
		got, ok := s.Sample(tc.lon, tc.lat, tc.h)
		if !ok {
			t.Errorf("Sample(%v,%v,%v) reported no wind", tc.lon, tc.lat, tc.h)
			continue
		}
		if math.Abs(float64(got.U)-tc.lon) > 1e-4 ||
			math.Abs(float64(got.V)-tc.lat) > 1e-4 ||
			math.Abs(float64(got.W)-tc.h/1000) > 1e-4 {
			t.Errorf("Sample(%v,%v,%v) = %+v", tc.lon, tc.lat, tc.h, got)
		}
	}
}

func TestSampleOutsideExtent(t *testing.T) {
	s := linearStore(t)

	outside := []struct {
		name        string
		lon, lat, h float64
	}{
		{"west", -1, 0, 100},
		{"east", 21, 0, 100},
		{"south", 10, -11, 100},
		{"north", 10, 11, 100},
		{"below", 10, 0, -1},
		{"above", 10, 0, 1001},
		{"nan", math.NaN(), 0, 100},
	}

	for _, tc := range outside {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := s.Sample(tc.lon, tc.lat, tc.h); ok {
				t.Errorf("expected sentinel outside extent")
			}
		})
	}
}

func TestSampleVoidCell(t *testing.T) {
	grid := Grid{NLon: 2, NLat: 2, NLev: 1}
	bounds := Bounds{LonMin: 0, LonMax: 10, LatMin: 0, LatMax: 10}
	u := []float32{1, 1, 1, float32(math.NaN())}
	v := []float32{0, 0, 0, 0}

	s, err := NewStore(grid, bounds, u, v, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := s.Sample(5, 5, 0); ok {
		t.Error("expected void sentinel next to NaN cell")
	}
	if s.Bounds().SpeedMax != 1 {
		t.Errorf("speed range should skip void cells, got max %f", s.Bounds().SpeedMax)
	}
}

func TestSampleWrapsAntimeridian(t *testing.T) {
	grid := Grid{NLon: 4, NLat: 2, NLev: 1}
	bounds := Bounds{LonMin: -180, LonMax: 180, LatMin: -90, LatMax: 90}
	u := []float32{0, 1, 2, 3, 0, 1, 2, 3}
	v := make([]float32, 8)

	s, err := NewStore(grid, bounds, u, v, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	// Cells at -180, -90, 0, 90. Halfway between 90 and 180 blends the last and
	// first columns.
	got, ok := s.Sample(135, 0, 0)
	if !ok {
		t.Fatal("expected wind across the seam")
	}
	if math.Abs(float64(got.U)-1.5) > 1e-5 {
		t.Errorf("expected 1.5 across seam, got %f", got.U)
	}

	got, ok = s.Sample(-225, 0, 0) // same point, unwrapped
	if !ok || math.Abs(float64(got.U)-1.5) > 1e-5 {
		t.Errorf("unwrapped longitude should match, got %+v ok=%v", got, ok)
	}
}

func TestNewStoreValidation(t *testing.T) {
	tests := []struct {
		name   string
		grid   Grid
		bounds Bounds
		n      int
		want   error
	}{
		{"empty", Grid{0, 1, 1}, Bounds{}, 0, ErrEmptyGrid},
		{"size", Grid{2, 2, 1}, Bounds{LonMax: 1, LatMax: 1}, 3, ErrGridSize},
		{"inverted", Grid{1, 1, 1}, Bounds{LonMin: 5, LonMax: 1}, 1, ErrBounds},
		{"lat", Grid{1, 1, 1}, Bounds{LatMin: -100, LatMax: 0}, 1, ErrBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := make([]float32, tt.n)
			v := make([]float32, tt.n)
			_, err := NewStore(tt.grid, tt.bounds, u, v, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSyntheticIsFinite(t *testing.T) {
	loader := Synthetic{
		Grid:      Grid{NLon: 36, NLat: 19, NLev: 2},
		Bounds:    Bounds{LonMin: -180, LonMax: 180, LatMin: -90, LatMax: 90, HeightMin: 0, HeightMax: 10000},
		Seed:      7,
		BaseSpeed: 30,
		Swirl:     10,
		Vertical:  0.1,
	}

	s, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b := s.Bounds()
	if b.SpeedMax <= 0 || b.SpeedMax > 500 {
		t.Errorf("implausible speed max %f", b.SpeedMax)
	}
	for k := 0; k < 2; k++ {
		for j := 0; j < 19; j++ {
			for i := 0; i < 36; i++ {
				v := s.At(i, j, k)
				if math.IsNaN(float64(v.Speed())) {
					t.Fatalf("NaN at %d,%d,%d", i, j, k)
				}
			}
		}
	}
}

func TestLoadAsyncDeliversOnce(t *testing.T) {
	loader := Uniform{
		Grid:   Grid{NLon: 2, NLat: 2, NLev: 1},
		Bounds: Bounds{LonMin: 0, LonMax: 10, LatMin: 0, LatMax: 10},
		Wind:   Vec3f{U: 3, V: 4},
	}

	ch := LoadAsync(context.Background(), loader)
	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("load failed: %v", res.Err)
		}
		if res.Store.Bounds().SpeedMax != 5 {
			t.Errorf("expected speed 5, got %f", res.Store.Bounds().SpeedMax)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for load")
	}

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after the result")
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := Synthetic{Grid: Grid{NLon: 4, NLat: 4, NLev: 1}, Bounds: Bounds{LonMax: 10, LatMax: 10}}
	if _, err := loader.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
