package render

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/windglobe/particles"
)

// Projector maps ellipsoid-fixed points to screen pixels. ok is false for
// points behind the camera or hidden by the globe.
type Projector interface {
	Project(p r3.Vec) (sx, sy float64, ok bool)
}

// Canvas is a software Surface. Images are float32 RGBA, row-major, four
// channels per pixel. Used for headless runs and tests; the GPU surface follows
// the same arithmetic.
type Canvas struct {
	Projector Projector
	Pool      *particles.Pool // nil runs per-pixel passes inline

	w, h     int
	segments []float32
	trails   [2][]float32
	cur      int
	screen   []float32
	lines    []ScreenSegment
}

// NewCanvas allocates a w×h canvas.
func NewCanvas(w, h int, proj Projector, pool *particles.Pool) *Canvas {
	w = max(w, 1)
	h = max(h, 1)
	n := w * h * 4
	return &Canvas{
		Projector: proj,
		Pool:      pool,
		w:         w,
		h:         h,
		segments:  make([]float32, n),
		trails:    [2][]float32{make([]float32, n), make([]float32, n)},
		screen:    make([]float32, n),
	}
}

// Size implements Surface.
func (c *Canvas) Size() (int, int) {
	return c.w, c.h
}

// DrawSegments implements Surface. Segments with a hidden endpoint are dropped.
func (c *Canvas) DrawSegments(segs []Segment, lineWidth float32, ramp ColorRamp) {
	clear(c.segments)
	if c.Projector == nil {
		return
	}
	half := math.Max(float64(lineWidth)/2, 0.5)
	c.lines = ProjectSegments(c.lines[:0], segs, c.Projector, c.w, c.h)
	for _, l := range c.lines {
		c.line(l.X0, l.Y0, l.X1, l.Y1, half, ramp.At(l.Speed))
	}
}

// line stamps a square brush every half pixel along the segment.
func (c *Canvas) line(x0, y0, x1, y1, half float64, col Color) {
	dx, dy := x1-x0, y1-y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)) * 2))
	for s := 0; s <= steps; s++ {
		t := 0.0
		if steps > 0 {
			t = float64(s) / float64(steps)
		}
		c.stamp(x0+dx*t, y0+dy*t, half, col)
	}
}

func (c *Canvas) stamp(cx, cy, half float64, col Color) {
	xMin := max(int(math.Floor(cx-half+0.5)), 0)
	xMax := min(int(math.Floor(cx+half-0.5)), c.w-1)
	yMin := max(int(math.Floor(cy-half+0.5)), 0)
	yMax := min(int(math.Floor(cy+half-0.5)), c.h-1)
	for y := yMin; y <= yMax; y++ {
		row := y * c.w * 4
		for x := xMin; x <= xMax; x++ {
			p := c.segments[row+x*4 : row+x*4+4]
			p[0] = max(p[0], col.R)
			p[1] = max(p[1], col.G)
			p[2] = max(p[2], col.B)
			p[3] = max(p[3], col.A)
		}
	}
}

// AccumulateTrails implements Surface: next = clamp01(floor(prev*fade*255)/255 + segment).
// The 8-bit floor makes decay strict so faded trails reach zero.
func (c *Canvas) AccumulateTrails(fade float32) {
	fade = clamp01(fade)
	src := c.trails[c.cur]
	dst := c.trails[1-c.cur]
	seg := c.segments
	c.run(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			faded := float32(math.Floor(float64(src[i]*fade*255))) / 255
			dst[i] = clamp01(faded + seg[i])
		}
	})
	c.cur = 1 - c.cur
}

// Composite implements Surface by scaling the trail image by opacity into the
// screen image.
func (c *Canvas) Composite(opacity float32) {
	opacity = clamp01(opacity)
	src := c.trails[c.cur]
	dst := c.screen
	c.run(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = src[i] * opacity
		}
	})
}

// Clear implements Surface.
func (c *Canvas) Clear() {
	clear(c.segments)
	clear(c.trails[0])
	clear(c.trails[1])
	clear(c.screen)
}

// Unload implements Surface.
func (c *Canvas) Unload() {
	c.segments = nil
	c.trails = [2][]float32{}
	c.screen = nil
}

// Trails returns the current trail image.
func (c *Canvas) Trails() []float32 {
	return c.trails[c.cur]
}

// Segments returns the segment image of the last DrawSegments.
func (c *Canvas) Segments() []float32 {
	return c.segments
}

// Image converts the screen image to 8-bit RGBA.
func (c *Canvas) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	for i, v := range c.screen {
		img.Pix[i] = toByte(v)
	}
	return img
}

func (c *Canvas) run(n int, kernel particles.Kernel) {
	if c.Pool == nil {
		kernel(0, n)
		return
	}
	c.Pool.Run(n, kernel)
}
