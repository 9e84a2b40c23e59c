package renderer

import (
	"fmt"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/camera"
	"github.com/pthm-cable/windglobe/render"
)

// Base map texture size; 2:1 for equirectangular.
const (
	baseMapW = 1024
	baseMapH = 512
)

// layerAmbient is the unlit fraction per layer. Night lights are not shaded.
var layerAmbient = map[string]float32{
	render.LayerNatural: 0.35,
	render.LayerNight:   1.0,
	render.LayerPlain:   0.6,
}

// GlobeRenderer ray-casts the ellipsoid in a fragment shader and textures it
// with the selected base layer. It is a scene primitive drawn before the trails.
type GlobeRenderer struct {
	cam  *camera.Globe
	seed int64

	shader       rl.Shader
	resLoc       int32
	camPosLoc    int32
	camEastLoc   int32
	camNorthLoc  int32
	camUpLoc     int32
	focalLoc     int32
	axisRatioLoc int32
	lightDirLoc  int32
	ambientLoc   int32

	layer    string
	textures map[string]rl.Texture2D
}

// NewGlobeRenderer loads the globe shader and the initial layer. Must be called
// after the raylib window is created.
func NewGlobeRenderer(cam *camera.Globe, layer string, seed int64) (*GlobeRenderer, error) {
	g := &GlobeRenderer{
		cam:      cam,
		seed:     seed,
		textures: make(map[string]rl.Texture2D),
	}

	g.shader = rl.LoadShaderFromMemory("", globeFS)
	g.resLoc = rl.GetShaderLocation(g.shader, "resolution")
	g.camPosLoc = rl.GetShaderLocation(g.shader, "camPos")
	g.camEastLoc = rl.GetShaderLocation(g.shader, "camEast")
	g.camNorthLoc = rl.GetShaderLocation(g.shader, "camNorth")
	g.camUpLoc = rl.GetShaderLocation(g.shader, "camUp")
	g.focalLoc = rl.GetShaderLocation(g.shader, "focal")
	g.axisRatioLoc = rl.GetShaderLocation(g.shader, "axisRatio")
	g.lightDirLoc = rl.GetShaderLocation(g.shader, "lightDir")
	g.ambientLoc = rl.GetShaderLocation(g.shader, "ambient")

	if err := g.SetLayer(layer); err != nil {
		rl.UnloadShader(g.shader)
		return nil, err
	}
	return g, nil
}

// SetLayer switches the base layer, painting its texture on first use.
func (g *GlobeRenderer) SetLayer(layer string) error {
	if _, ok := g.textures[layer]; !ok {
		m, err := render.NewBaseMap(layer, baseMapW, baseMapH, g.seed)
		if err != nil {
			return fmt.Errorf("globe layer %q: %w", layer, err)
		}
		img := rl.GenImageColor(baseMapW, baseMapH, rl.Black)
		tex := rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(tex, rl.FilterBilinear)
		rl.SetTextureWrap(tex, rl.WrapRepeat)

		pixels := make([]color.RGBA, baseMapW*baseMapH)
		for i := range pixels {
			p := m.Image.Pix[i*4 : i*4+4]
			pixels[i] = color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
		}
		rl.UpdateTexture(tex, pixels)
		g.textures[layer] = tex
	}
	g.layer = layer
	return nil
}

// Layer returns the current base layer.
func (g *GlobeRenderer) Layer() string {
	return g.layer
}

// Name implements scene.Primitive.
func (g *GlobeRenderer) Name() string {
	return "globe"
}

// Execute implements scene.Primitive.
func (g *GlobeRenderer) Execute() {
	tex, ok := g.textures[g.layer]
	if !ok {
		return
	}
	cam := g.cam
	a := cam.Ellipsoid.A
	pos := cam.Position()
	east, north, up := cam.Basis()
	focal := cam.Focal()

	// Light from over the viewer's shoulder
	light := []float32{
		float32(up.X + 0.4*east.X + 0.4*north.X),
		float32(up.Y + 0.4*east.Y + 0.4*north.Y),
		float32(up.Z + 0.4*east.Z + 0.4*north.Z),
	}
	norm := float32(math.Sqrt(float64(light[0]*light[0] + light[1]*light[1] + light[2]*light[2])))
	for i := range light {
		light[i] /= norm
	}

	rl.SetShaderValue(g.shader, g.resLoc, []float32{float32(cam.ViewportW), float32(cam.ViewportH)}, rl.ShaderUniformVec2)
	rl.SetShaderValue(g.shader, g.camPosLoc, []float32{float32(pos.X / a), float32(pos.Y / a), float32(pos.Z / a)}, rl.ShaderUniformVec3)
	rl.SetShaderValue(g.shader, g.camEastLoc, []float32{float32(east.X), float32(east.Y), float32(east.Z)}, rl.ShaderUniformVec3)
	rl.SetShaderValue(g.shader, g.camNorthLoc, []float32{float32(north.X), float32(north.Y), float32(north.Z)}, rl.ShaderUniformVec3)
	rl.SetShaderValue(g.shader, g.camUpLoc, []float32{float32(up.X), float32(up.Y), float32(up.Z)}, rl.ShaderUniformVec3)
	rl.SetShaderValue(g.shader, g.focalLoc, []float32{float32(focal)}, rl.ShaderUniformFloat)
	rl.SetShaderValue(g.shader, g.axisRatioLoc, []float32{float32(a / cam.Ellipsoid.B)}, rl.ShaderUniformFloat)
	rl.SetShaderValue(g.shader, g.lightDirLoc, light, rl.ShaderUniformVec3)
	rl.SetShaderValue(g.shader, g.ambientLoc, []float32{layerAmbient[g.layer]}, rl.ShaderUniformFloat)

	src := rl.Rectangle{X: 0, Y: 0, Width: baseMapW, Height: baseMapH}
	dst := rl.Rectangle{X: 0, Y: 0, Width: float32(cam.ViewportW), Height: float32(cam.ViewportH)}

	rl.BeginShaderMode(g.shader)
	rl.DrawTexturePro(tex, src, dst, rl.Vector2{}, 0, rl.White)
	rl.EndShaderMode()
}

// Unload releases the shader and layer textures.
func (g *GlobeRenderer) Unload() {
	rl.UnloadShader(g.shader)
	for _, tex := range g.textures {
		rl.UnloadTexture(tex)
	}
	g.textures = nil
}
