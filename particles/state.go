// Package particles holds the double-buffered particle arrays and the compute
// passes that advect them through the wind field.
package particles

import (
	"github.com/pthm-cable/windglobe/field"
)

// Flag is a per-particle status bitset.
type Flag uint8

const (
	// FlagReseeded marks a particle relocated by the last PostProcessPosition pass.
	FlagReseeded Flag = 1 << iota
	// FlagContinuous marks a particle whose segment connects to its previous position.
	FlagContinuous
	// FlagVoid marks a particle whose last wind sample was the "no wind" sentinel.
	FlagVoid
	// FlagNonFinite marks a particle whose integration produced NaN or Inf.
	FlagNonFinite
)

// Buffer is one side of the double-buffered particle state. All slices share the
// same length; index i is the stable particle id.
type Buffer struct {
	Lon, Lat, Height []float32

	// Velocity in degrees (lon, lat) and meters (height) per second, before speedFactor
	VelLon, VelLat, VelHeight []float32

	Speed []float32 // m/s scaled by speedFactor
	Age   []uint32  // frames since the last reseed
	Void  []uint16  // consecutive frames with no wind
	Flags []Flag
}

func newBuffer(n int) Buffer {
	return Buffer{
		Lon:       make([]float32, n),
		Lat:       make([]float32, n),
		Height:    make([]float32, n),
		VelLon:    make([]float32, n),
		VelLat:    make([]float32, n),
		VelHeight: make([]float32, n),
		Speed:     make([]float32, n),
		Age:       make([]uint32, n),
		Void:      make([]uint16, n),
		Flags:     make([]Flag, n),
	}
}

// Len returns the particle count.
func (b *Buffer) Len() int {
	return len(b.Lon)
}

// Position returns particle i's position as lon, lat, height.
func (b *Buffer) Position(i int) (float64, float64, float64) {
	return float64(b.Lon[i]), float64(b.Lat[i]), float64(b.Height[i])
}

func (b *Buffer) copyFrom(o *Buffer) {
	copy(b.Lon, o.Lon)
	copy(b.Lat, o.Lat)
	copy(b.Height, o.Height)
	copy(b.VelLon, o.VelLon)
	copy(b.VelLat, o.VelLat)
	copy(b.VelHeight, o.VelHeight)
	copy(b.Speed, o.Speed)
	copy(b.Age, o.Age)
	copy(b.Void, o.Void)
	copy(b.Flags, o.Flags)
}

// State is the GPU-style particle storage. Front holds the positions as of the last
// completed frame; the compute passes read Front and write Back, and Swap publishes
// Back at the end of the chain. Wind is intra-frame scratch between GetWind and
// UpdateSpeed.
type State struct {
	bufs  [2]Buffer
	front int

	Wind   []field.Vec3f
	WindOK []bool
}

// NewState allocates n particles and seeds them uniformly with the seeder. Both
// buffers start identical and no particle is continuous, so nothing is drawn
// before the first full compute chain.
func NewState(n int, seeder Seeder) *State {
	if n < 0 {
		n = 0
	}
	s := &State{
		bufs:   [2]Buffer{newBuffer(n), newBuffer(n)},
		Wind:   make([]field.Vec3f, n),
		WindOK: make([]bool, n),
	}
	front := &s.bufs[0]
	for i := 0; i < n; i++ {
		lon, lat, h := seeder.Position(uint32(i))
		front.Lon[i] = float32(lon)
		front.Lat[i] = float32(lat)
		front.Height[i] = float32(h)
		front.Flags[i] = FlagReseeded
	}
	s.bufs[1].copyFrom(front)
	return s
}

// Len returns the particle count.
func (s *State) Len() int {
	return s.bufs[0].Len()
}

// Front returns the published buffer (read side).
func (s *State) Front() *Buffer {
	return &s.bufs[s.front]
}

// Back returns the buffer being written this frame.
func (s *State) Back() *Buffer {
	return &s.bufs[1-s.front]
}

// Swap publishes the back buffer.
func (s *State) Swap() {
	s.front = 1 - s.front
}

// Reseed relocates every particle with the seeder and marks them reseeded.
// Used when the visible range changes so density follows the view.
func (s *State) Reseed(seeder Seeder) {
	front := s.Front()
	for i := 0; i < front.Len(); i++ {
		lon, lat, h := seeder.Position(uint32(i))
		front.Lon[i] = float32(lon)
		front.Lat[i] = float32(lat)
		front.Height[i] = float32(h)
		front.Age[i] = 0
		front.Void[i] = 0
		front.Speed[i] = 0
		front.VelLon[i] = 0
		front.VelLat[i] = 0
		front.VelHeight[i] = 0
		front.Flags[i] = FlagReseeded
	}
	s.Back().copyFrom(front)
}
