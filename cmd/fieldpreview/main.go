// Wind field preview tool - interactive synthetic field tuning with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"context"
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/render"
)

const (
	windowWidth  = 1100
	windowHeight = 640
	mapW         = 360
	mapH         = 180
	previewScale = 2
	panelX       = mapW*previewScale + 30
	panelWidth   = windowWidth - panelX - 20
)

// fieldParams mirrors the tunable parts of field.Synthetic.
type fieldParams struct {
	BaseSpeed float32 `yaml:"base_speed"`
	Swirl     float32 `yaml:"swirl"`
	Scale     float32 `yaml:"scale"`
	Vertical  float32 `yaml:"vertical"`
	Seed      int64   `yaml:"seed"`
	Height    float32 `yaml:"-"`
}

var defaultParams = fieldParams{BaseSpeed: 30, Swirl: 12, Scale: 2.5, Vertical: 0.05, Seed: 1, Height: 5000}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Wind Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams
	img := rl.GenImageColor(mapW, mapH, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var t float32
	animating := false
	needsRegen := true
	var store *field.Store

	for !rl.WindowShouldClose() {
		if animating {
			t += rl.GetFrameTime() * 0.1
			needsRegen = true
		}

		if needsRegen {
			s, err := generate(params, float64(t))
			if err == nil {
				store = s
				updateTexture(texture, store, float64(params.Height))
			}
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: mapW, Height: mapH},
			rl.Rectangle{X: 10, Y: 10, Width: mapW * previewScale, Height: mapH * previewScale},
			rl.Vector2{},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, mapW*previewScale, mapH*previewScale, rl.DarkGray)

		statsY := int32(mapH*previewScale + 25)
		if store != nil {
			b := store.Bounds()
			rl.DrawText(fmt.Sprintf("Speed min: %.1f  max: %.1f m/s", b.SpeedMin, b.SpeedMax), 15, statsY, 16, rl.DarkGray)
		}
		rl.DrawText(fmt.Sprintf("Time: %.2f  Height: %.0f m", t, params.Height), 15, statsY+20, 16, rl.DarkGray)
		drawCursorWind(store, float64(params.Height), statsY+40)

		y := float32(10)
		rl.DrawText("Synthetic Wind Parameters", panelX, int32(y), 20, rl.DarkGray)
		y += 35

		needsRegen = slider(&y, "Base speed (jet peak, m/s)", "%.1f", &params.BaseSpeed, 0, 80) || needsRegen
		needsRegen = slider(&y, "Swirl (noise amplitude, m/s)", "%.1f", &params.Swirl, 0, 60) || needsRegen
		needsRegen = slider(&y, "Scale (noise frequency)", "%.2f", &params.Scale, 0.5, 8) || needsRegen
		needsRegen = slider(&y, "Vertical (m/s)", "%.2f", &params.Vertical, 0, 1) || needsRegen
		needsRegen = slider(&y, "Sample height (m)", "%.0f", &params.Height, 0, 20000) || needsRegen

		seed := float32(params.Seed)
		if slider(&y, "Seed", "%.0f", &seed, 0, 9999) {
			params.Seed = int64(seed)
			needsRegen = true
		}
		y += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, "Reset Time") {
			t = 0
			needsRegen = true
		}
		y += 40
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams
			t = 0
			needsRegen = true
		}
		y += 50

		rl.DrawText("Preset YAML:", panelX, int32(y), 16, rl.DarkGray)
		y += 25
		out := presetYAML(params)
		rl.DrawText(out, panelX, int32(y), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", panelX, windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(out)
		}

		rl.EndDrawing()
	}
}

// slider draws one labelled slider and reports whether the value changed.
func slider(y *float32, label, format string, v *float32, lo, hi float32) bool {
	rl.DrawText(label, panelX, int32(*y), 14, rl.Gray)
	*y += 18
	next := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: *y, Width: panelWidth - 80, Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		*v, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, *v), panelX+panelWidth-70, int32(*y+2), 16, rl.DarkGray)
	*y += 35
	if next == *v {
		return false
	}
	*v = next
	return true
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// generate builds a small global field with the current parameters.
func generate(p fieldParams, t float64) (*field.Store, error) {
	s := field.Synthetic{
		Grid:      field.Grid{NLon: 144, NLat: 73, NLev: 2},
		Bounds:    field.Bounds{LonMin: -180, LonMax: 180, LatMin: -90, LatMax: 90, HeightMin: 0, HeightMax: 20000},
		Seed:      p.Seed,
		BaseSpeed: float64(p.BaseSpeed),
		Swirl:     float64(p.Swirl),
		Scale:     float64(p.Scale),
		Vertical:  float64(p.Vertical),
		Time:      t,
	}
	return s.Load(context.Background())
}

// presetYAML renders the parameters the way a preset would be written down.
func presetYAML(p fieldParams) string {
	out, err := yaml.Marshal(map[string]fieldParams{"synthetic": p})
	if err != nil {
		return err.Error()
	}
	return string(out)
}

// drawCursorWind shows the wind under the mouse when it is over the preview.
func drawCursorWind(store *field.Store, height float64, y int32) {
	if store == nil {
		return
	}
	m := rl.GetMousePosition()
	px := (m.X - 10) / previewScale
	py := (m.Y - 10) / previewScale
	if px < 0 || py < 0 || px >= mapW || py >= mapH {
		return
	}
	lon := float64(px) - 180
	lat := 90 - float64(py)
	wind, ok := store.Sample(lon, lat, height)
	if !ok {
		rl.DrawText(fmt.Sprintf("%.1f, %.1f: no data", lon, lat), 15, y, 16, rl.Gray)
		return
	}
	heading := math.Mod(math.Atan2(float64(wind.U), float64(wind.V))*180/math.Pi+360, 360)
	rl.DrawText(fmt.Sprintf("%.1f, %.1f: %.1f m/s toward %.0f deg", lon, lat, wind.Speed(), heading), 15, y, 16, rl.DarkGray)
}

// updateTexture colors each lon/lat pixel by normalized wind speed.
func updateTexture(texture rl.Texture2D, store *field.Store, height float64) {
	b := store.Bounds()
	span := b.SpeedMax - b.SpeedMin
	if span <= 0 {
		span = 1
	}
	pixels := make([]color.RGBA, mapW*mapH)
	for y := 0; y < mapH; y++ {
		lat := 90 - (float64(y) + 0.5)
		for x := 0; x < mapW; x++ {
			lon := float64(x) + 0.5 - 180
			wind, ok := store.Sample(lon, lat, height)
			if !ok {
				pixels[y*mapW+x] = color.RGBA{A: 255}
				continue
			}
			r, g, bl, _ := render.DefaultRamp.At((wind.Speed() - b.SpeedMin) / span).Bytes()
			pixels[y*mapW+x] = color.RGBA{R: r, G: g, B: bl, A: 255}
		}
	}
	rl.UpdateTexture(texture, pixels)
}
