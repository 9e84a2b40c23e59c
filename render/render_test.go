package render

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/particles"
)

// flat projects X/Y directly to pixels and hides points with negative Z.
type flat struct{}

func (flat) Project(p r3.Vec) (float64, float64, bool) {
	return p.X, p.Y, p.Z >= 0
}

func TestTrailsStayBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, fade := range []float32{0.01, 0.5, 0.92, 0.996, 0.99999} {
		c := NewCanvas(16, 16, flat{}, nil)
		for frame := 0; frame < 300; frame++ {
			for i := range c.segments {
				if rng.Intn(4) == 0 {
					c.segments[i] = rng.Float32()
				} else {
					c.segments[i] = 0
				}
			}
			c.AccumulateTrails(fade)
			for i, v := range c.Trails() {
				if v < 0 || v > 1 || math.IsNaN(float64(v)) {
					t.Fatalf("fade %v frame %d: trail[%d] = %v", fade, frame, i, v)
				}
			}
		}
	}
}

func TestTrailsDecayToZero(t *testing.T) {
	c := NewCanvas(4, 4, flat{}, nil)
	for i := range c.segments {
		c.segments[i] = 1
	}
	c.AccumulateTrails(0.9)
	clear(c.segments)

	for frame := 0; frame < 100; frame++ {
		c.AccumulateTrails(0.9)
	}
	for i, v := range c.Trails() {
		if v != 0 {
			t.Fatalf("trail[%d] = %v after decay, want 0", i, v)
		}
	}
}

func TestTrailsPoolMatchesInline(t *testing.T) {
	pool := particles.NewPool(4, 1)
	defer pool.Stop()

	a := NewCanvas(32, 8, flat{}, nil)
	b := NewCanvas(32, 8, flat{}, pool)
	for i := range a.segments {
		v := float32(i%7) / 7
		a.segments[i] = v
		b.segments[i] = v
	}
	for frame := 0; frame < 5; frame++ {
		a.AccumulateTrails(0.95)
		b.AccumulateTrails(0.95)
	}
	a.Composite(0.8)
	b.Composite(0.8)

	for i := range a.screen {
		if a.screen[i] != b.screen[i] {
			t.Fatalf("pixel %d: inline %v, pooled %v", i, a.screen[i], b.screen[i])
		}
	}
}

func TestDrawSegments(t *testing.T) {
	c := NewCanvas(10, 10, flat{}, nil)
	segs := []Segment{
		{From: r3.Vec{X: 1, Y: 2}, To: r3.Vec{X: 8, Y: 2}, Speed: 1},
		{From: r3.Vec{X: 1, Y: 6, Z: -1}, To: r3.Vec{X: 8, Y: 6}, Speed: 1}, // hidden endpoint
	}
	c.DrawSegments(segs, 1, DefaultRamp)

	alpha := func(x, y int) float32 { return c.segments[(y*10+x)*4+3] }
	for x := 1; x <= 8; x++ {
		if alpha(x, 2) == 0 {
			t.Errorf("pixel (%d,2) not drawn", x)
		}
		if alpha(x, 6) != 0 {
			t.Errorf("pixel (%d,6) drawn for a hidden segment", x)
		}
	}
	if alpha(5, 4) != 0 {
		t.Error("pixel off the line drawn")
	}

	// A new frame starts from a clear segment image
	c.DrawSegments(nil, 1, DefaultRamp)
	for i, v := range c.segments {
		if v != 0 {
			t.Fatalf("segment image not cleared at %d", i)
		}
	}
}

func TestCompositeAppliesOpacity(t *testing.T) {
	c := NewCanvas(2, 2, flat{}, nil)
	for i := range c.segments {
		c.segments[i] = 1
	}
	c.AccumulateTrails(0.5)
	c.Composite(0.25)

	img := c.Image()
	if img.Pix[0] != toByte(0.25) {
		t.Errorf("expected composited byte %d, got %d", toByte(0.25), img.Pix[0])
	}
}

func TestColorRamp(t *testing.T) {
	ramp := ColorRamp{
		{At: 0, Color: Color{0, 0, 0, 1}},
		{At: 0.5, Color: Color{1, 0, 0, 1}},
		{At: 1, Color: Color{1, 1, 0, 1}},
	}
	tests := []struct {
		t    float32
		want Color
	}{
		{-1, Color{0, 0, 0, 1}},
		{0, Color{0, 0, 0, 1}},
		{0.25, Color{0.5, 0, 0, 1}},
		{0.75, Color{1, 0.5, 0, 1}},
		{2, Color{1, 1, 0, 1}},
	}
	for _, tt := range tests {
		if got := ramp.At(tt.t); got != tt.want {
			t.Errorf("At(%v) = %+v, want %+v", tt.t, got, tt.want)
		}
	}
}

func TestBuildSegmentsSkipsDiscontinuous(t *testing.T) {
	seeder := particles.Seeder{Range: geo.NewLonLatRange(0, 10, 0, 10), Seed: 1}
	s := particles.NewState(3, seeder)

	// After a frame: Back holds the previous positions, Front the new ones.
	prev, cur := s.Back(), s.Front()
	for i := 0; i < 3; i++ {
		prev.Lon[i], prev.Lat[i] = 1, 1
		cur.Lon[i], cur.Lat[i] = 2, 1
		cur.Speed[i] = 5
	}
	cur.Flags[0] = particles.FlagContinuous
	cur.Flags[1] = particles.FlagReseeded
	cur.Flags[2] = particles.FlagContinuous
	cur.Lon[2] = prev.Lon[2] // did not move

	segs := BuildSegments(nil, s, geo.WGS84, 10, 100)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Speed != 0.5 {
		t.Errorf("expected normalized speed 0.5, got %v", segs[0].Speed)
	}
	want := geo.WGS84.CartographicToCartesian(geo.Cartographic{Lon: 2, Lat: 1, Height: 100})
	if r3.Norm(r3.Sub(segs[0].To, want)) > 1e-6 {
		t.Errorf("segment end %v, want %v", segs[0].To, want)
	}
}

func TestNewBaseMapLayers(t *testing.T) {
	for _, layer := range []string{LayerNatural, LayerNight, LayerPlain} {
		m, err := NewBaseMap(layer, 64, 32, 7)
		if err != nil {
			t.Fatalf("%s: %v", layer, err)
		}
		if m.Image.Bounds().Dx() != 64 || m.Image.Bounds().Dy() != 32 {
			t.Errorf("%s: unexpected size %v", layer, m.Image.Bounds())
		}
		if c := m.At(0, 0); c.A != 255 {
			t.Errorf("%s: texel should be opaque, got %v", layer, c)
		}
	}
	if _, err := NewBaseMap("satellite", 8, 8, 1); err != ErrUnknownLayer {
		t.Errorf("expected ErrUnknownLayer, got %v", err)
	}
}

func TestBaseMapSharesCoastline(t *testing.T) {
	a, _ := NewBaseMap(LayerPlain, 32, 16, 3)
	b, _ := NewBaseMap(LayerPlain, 32, 16, 3)
	for i := range a.Image.Pix {
		if a.Image.Pix[i] != b.Image.Pix[i] {
			t.Fatal("same seed should paint the same map")
		}
	}
}

func TestBaseMapAtWraps(t *testing.T) {
	m, _ := NewBaseMap(LayerNatural, 36, 18, 1)
	if m.At(190, 0) != m.At(-170, 0) {
		t.Error("longitude should wrap")
	}
	if m.At(0, 95) != m.At(0, 90) {
		t.Error("latitude should clamp")
	}
}
