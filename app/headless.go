package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/render"
	"github.com/pthm-cable/windglobe/telemetry"
)

// Equirectangular base map size for headless images.
const (
	headlessMapW = 1024
	headlessMapH = 512
)

// UpdateHeadless runs one frame without a window. Field loads are waited for,
// so a headless run with a fixed seed is reproducible.
func (a *App) UpdateHeadless() {
	a.pollField(true)
	a.animateField(a.report.Frame)

	a.perfCollector.RecordFrame()
	a.perfCollector.StartFrame()
	a.perfCollector.StartPhase(telemetry.PhaseEvents)
	a.orch.BeginFrame()
	a.scene.Execute()
	a.endFrame()
}

// Resize changes the viewport size as a window resize would.
func (a *App) Resize(w, h int) {
	a.resize(w, h)
}

// MoveTo flies the camera to a new pose as one complete move.
func (a *App) MoveTo(lon, lat, height float64) {
	if a.camera.BeginMove() {
		a.orch.Post(pipeline.MoveStart{})
	}
	a.camera.Lon = geo.WrapLon(lon)
	a.camera.Lat = lat
	a.camera.SetHeight(height)
	if a.camera.EndMove() {
		a.orch.Post(pipeline.MoveEnd{Height: a.camera.Height})
	}
}

// SaveSnapshot writes a snapshot of the current view and returns its path.
func (a *App) SaveSnapshot() (string, error) {
	path := a.saveSnapshot(nil)
	if path == "" {
		return "", fmt.Errorf("snapshot not saved")
	}
	return path, nil
}

// RenderImage paints the globe and composites the trails over it.
func (a *App) RenderImage() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, a.screenW, a.screenH))
	bg := color.RGBA{R: spaceColor.R, G: spaceColor.G, B: spaceColor.B, A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	m, err := render.NewBaseMap(a.layer, headlessMapW, headlessMapH, a.seed)
	if err != nil {
		return nil, err
	}
	render.PaintGlobe(img, a.camera, m, a.pool)

	if a.canvas != nil && a.orch.Shown() {
		render.Over(img, a.canvas.Image())
	}
	return img, nil
}

// WritePNG renders the current frame to a PNG file.
func (a *App) WritePNG(path string) error {
	img, err := a.RenderImage()
	if err != nil {
		return fmt.Errorf("render image: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
