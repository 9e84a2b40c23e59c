// Package render turns particle motion into fading trails: segments are drawn
// from each particle's previous to current position, accumulated into a
// persistent trail image that decays every frame, and composited onto the view.
package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/particles"
)

// Segment is one particle's motion this frame in ellipsoid-fixed meters.
type Segment struct {
	From, To r3.Vec
	Speed    float32 // normalized to [0, 1]
}

// Surface is the target of the three render passes. Implementations own the
// segment image and the two trail images they ping-pong between.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (w, h int)
	// DrawSegments clears the segment image and draws segs into it.
	DrawSegments(segs []Segment, lineWidth float32, ramp ColorRamp)
	// AccumulateTrails fades the trail image and adds the segment image.
	AccumulateTrails(fade float32)
	// Composite draws the trail image onto the view.
	Composite(opacity float32)
	// Clear zeroes the segment and trail images.
	Clear()
	// Unload releases the surface's images.
	Unload()
}

// Factory creates a surface for a viewport size. Called again on every resize.
type Factory func(w, h int) Surface

// BuildSegments appends one segment per continuous particle, from its previous
// position (Back after the swap) to its current one (Front). Reseeded particles
// and particles that did not move are skipped. Heights are lifted by lift meters.
func BuildSegments(dst []Segment, s *particles.State, ell geo.Ellipsoid, speedMax, lift float64) []Segment {
	dst = dst[:0]
	cur := s.Front()
	prev := s.Back()
	for i := 0; i < cur.Len(); i++ {
		if cur.Flags[i]&particles.FlagContinuous == 0 {
			continue
		}
		if cur.Lon[i] == prev.Lon[i] && cur.Lat[i] == prev.Lat[i] && cur.Height[i] == prev.Height[i] {
			continue
		}

		lon0, lat0, h0 := prev.Position(i)
		lon1, lat1, h1 := cur.Position(i)
		from := ell.CartographicToCartesian(geo.Cartographic{Lon: lon0, Lat: lat0, Height: h0 + lift})
		to := ell.CartographicToCartesian(geo.Cartographic{Lon: lon1, Lat: lat1, Height: h1 + lift})

		norm := float32(0)
		if speedMax > 0 {
			norm = clamp01(float32(float64(cur.Speed[i]) / speedMax))
		}
		dst = append(dst, Segment{From: from, To: to, Speed: norm})
	}
	return dst
}

// ScreenSegment is a segment projected to pixels.
type ScreenSegment struct {
	X0, Y0, X1, Y1 float64
	Speed          float32
}

// ProjectSegments appends the screen-space form of every segment whose
// endpoints are both visible. Segments longer than w+h pixels are projection
// blow-ups near the horizon and are dropped.
func ProjectSegments(dst []ScreenSegment, segs []Segment, proj Projector, w, h int) []ScreenSegment {
	limit := float64(w + h)
	for _, s := range segs {
		x0, y0, ok0 := proj.Project(s.From)
		x1, y1, ok1 := proj.Project(s.To)
		if !ok0 || !ok1 {
			continue
		}
		if math.Abs(x1-x0)+math.Abs(y1-y0) > limit {
			continue
		}
		dst = append(dst, ScreenSegment{X0: x0, Y0: y0, X1: x1, Y1: y1, Speed: s.Speed})
	}
	return dst
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
