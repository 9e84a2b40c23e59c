package particles

import (
	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
)

// seedAttempts bounds how many candidate positions a reseed tries before
// accepting one that lands on a void cell.
const seedAttempts = 4

// Seeder produces pseudo-random particle positions uniformly over a range. It is a
// pure function of (Seed, particle id) so workers can reseed in parallel without
// sharing an RNG.
type Seeder struct {
	Range                geo.LonLatRange
	HeightMin, HeightMax float64
	Seed                 uint64

	// Field, when set, is sampled so new positions prefer cells with wind.
	Field *field.Store
}

// NewSeeder builds a seeder over the visible range clipped to the field extent.
// Falls back to the full field extent when the view does not overlap it.
func NewSeeder(store *field.Store, visible geo.LonLatRange, seed uint64) Seeder {
	b := store.Bounds()
	extent := b.Range()
	r, ok := visible.Intersect(extent)
	if !ok {
		r = extent
	}
	return Seeder{
		Range:     r,
		HeightMin: b.HeightMin,
		HeightMax: b.HeightMax,
		Seed:      seed,
		Field:     store,
	}
}

// Position returns a new position for particle id.
func (s Seeder) Position(id uint32) (lon, lat, height float64) {
	for attempt := uint64(0); attempt < seedAttempts; attempt++ {
		h := mix(s.Seed ^ (uint64(id) << 20) ^ (attempt << 52))
		u1 := unit(h)
		u2 := unit(mix(h))
		u3 := unit(mix(h ^ 0x9e3779b97f4a7c15))

		lon = geo.WrapLon(s.Range.LonMin + u1*s.Range.LonWidth())
		lat = s.Range.LatMin + u2*s.Range.LatHeight()
		height = s.HeightMin + u3*(s.HeightMax-s.HeightMin)

		if s.Field == nil {
			return lon, lat, height
		}
		if _, ok := s.Field.Sample(lon, lat, height); ok {
			return lon, lat, height
		}
	}
	return lon, lat, height
}

// Random returns a uniform value in [0, 1) for particle id and a salt.
func (s Seeder) Random(id uint32, salt uint64) float64 {
	return unit(mix(s.Seed ^ (uint64(id) << 24) ^ (salt * 0xbf58476d1ce4e5b9)))
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// unit maps the top 53 bits to [0, 1).
func unit(x uint64) float64 {
	return float64(x>>11) / float64(uint64(1)<<53)
}
