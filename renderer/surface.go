package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/render"
)

// GL blend constants for rl.SetBlendFactors.
const (
	glOne     = 1
	glFuncMax = 0x8008
)

// GPUSurface is a render.Surface backed by raylib render textures. Segments are
// projected on the CPU and drawn as thick lines; the trail fade runs in a
// fragment shader that ping-pongs between two targets.
type GPUSurface struct {
	proj render.Projector
	w, h int

	segments rl.RenderTexture2D
	trails   [2]rl.RenderTexture2D
	cur      int

	fade        rl.Shader
	fadeLoc     int32
	segmentsLoc int32

	lines []render.ScreenSegment
}

// NewGPUSurface allocates the segment and trail targets. Must be called after
// the raylib window is created.
func NewGPUSurface(w, h int, proj render.Projector) *GPUSurface {
	w = max(w, 1)
	h = max(h, 1)
	s := &GPUSurface{proj: proj, w: w, h: h}

	s.segments = rl.LoadRenderTexture(int32(w), int32(h))
	s.trails[0] = rl.LoadRenderTexture(int32(w), int32(h))
	s.trails[1] = rl.LoadRenderTexture(int32(w), int32(h))

	s.fade = rl.LoadShaderFromMemory("", trailFadeFS)
	s.fadeLoc = rl.GetShaderLocation(s.fade, "fade")
	s.segmentsLoc = rl.GetShaderLocation(s.fade, "segments")

	s.Clear()
	return s
}

// Factory returns a render.Factory that builds GPU surfaces projecting through proj.
func Factory(proj render.Projector) render.Factory {
	return func(w, h int) render.Surface {
		return NewGPUSurface(w, h, proj)
	}
}

// Size implements render.Surface.
func (s *GPUSurface) Size() (int, int) {
	return s.w, s.h
}

// DrawSegments implements render.Surface. Overlapping lines keep the brighter
// color per channel, like the software canvas.
func (s *GPUSurface) DrawSegments(segs []render.Segment, lineWidth float32, ramp render.ColorRamp) {
	s.lines = render.ProjectSegments(s.lines[:0], segs, s.proj, s.w, s.h)

	rl.BeginTextureMode(s.segments)
	rl.ClearBackground(rl.Blank)
	rl.SetBlendFactors(glOne, glOne, glFuncMax)
	rl.BeginBlendMode(rl.BlendCustom)
	for _, l := range s.lines {
		r, g, b, a := ramp.At(l.Speed).Bytes()
		rl.DrawLineEx(
			rl.Vector2{X: float32(l.X0), Y: float32(l.Y0)},
			rl.Vector2{X: float32(l.X1), Y: float32(l.Y1)},
			lineWidth,
			rl.Color{R: r, G: g, B: b, A: a},
		)
	}
	rl.EndBlendMode()
	rl.EndTextureMode()
}

// AccumulateTrails implements render.Surface.
func (s *GPUSurface) AccumulateTrails(fade float32) {
	next := 1 - s.cur

	rl.BeginTextureMode(s.trails[next])
	rl.ClearBackground(rl.Blank)
	// Additive onto a cleared target copies the shader output unblended
	rl.BeginBlendMode(rl.BlendAddColors)
	rl.BeginShaderMode(s.fade)
	rl.SetShaderValue(s.fade, s.fadeLoc, []float32{fade}, rl.ShaderUniformFloat)
	rl.SetShaderValueTexture(s.fade, s.segmentsLoc, s.segments.Texture)
	rl.DrawTextureRec(s.trails[s.cur].Texture, s.flipped(), rl.Vector2{}, rl.White)
	rl.EndShaderMode()
	rl.EndBlendMode()
	rl.EndTextureMode()

	s.cur = next
}

// Composite implements render.Surface. Trail colors decay together with their
// alpha, so they are blended as premultiplied.
func (s *GPUSurface) Composite(opacity float32) {
	o := uint8(min(max(opacity, 0), 1) * 255)
	rl.BeginBlendMode(rl.BlendAlphaPremultiply)
	rl.DrawTextureRec(s.trails[s.cur].Texture, s.flipped(), rl.Vector2{}, rl.Color{R: o, G: o, B: o, A: o})
	rl.EndBlendMode()
}

// Clear implements render.Surface.
func (s *GPUSurface) Clear() {
	for _, t := range []rl.RenderTexture2D{s.segments, s.trails[0], s.trails[1]} {
		rl.BeginTextureMode(t)
		rl.ClearBackground(rl.Blank)
		rl.EndTextureMode()
	}
}

// Unload implements render.Surface.
func (s *GPUSurface) Unload() {
	rl.UnloadShader(s.fade)
	rl.UnloadRenderTexture(s.segments)
	rl.UnloadRenderTexture(s.trails[0])
	rl.UnloadRenderTexture(s.trails[1])
}

// flipped is the full-texture source rectangle with the render-texture Y flip.
func (s *GPUSurface) flipped() rl.Rectangle {
	return rl.Rectangle{X: 0, Y: 0, Width: float32(s.w), Height: -float32(s.h)}
}
