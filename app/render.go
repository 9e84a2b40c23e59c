package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/telemetry"
	"github.com/pthm-cable/windglobe/ui"
)

var (
	spaceColor     = rl.Color{R: 4, G: 6, B: 12, A: 255}
	graticuleColor = rl.Color{R: 255, G: 255, B: 255, A: 40}
	rangeColor     = rl.Color{R: 255, G: 200, B: 60, A: 160}
)

const (
	panelWidth    = 320
	graticuleStep = 15.0
)

// initUI creates the panels. Graphical mode only.
func (a *App) initUI() {
	a.overlays = ui.NewOverlayRegistry()
	a.overlays.SetEnabled(ui.OverlayOptionsPanel, a.cfg.Panel.Visible)
	a.panel = ui.NewOptionsPanel(10, 10, panelWidth, a.cfg.Globe.Layers, a.SourceNames(), a.defaultOptions())
	a.panel.SetVisible(a.cfg.Panel.Visible)
	a.hud = ui.NewHUD()
	a.perfPanel = ui.NewPerfPanel(0, 0)
	a.readout = ui.NewWindReadout(0, 0, 240)
	a.controls = ui.NewControlsPanel(0, 0, 220)
	a.graticule = ui.GraticuleLines(graticuleStep, 2)
	a.layoutUI()
}

// layoutUI anchors the panels to the current screen size.
func (a *App) layoutUI() {
	w, h := int32(a.screenW), int32(a.screenH)
	a.readout.SetPosition(w-250, 150)
	a.perfPanel.SetPosition(w-290, h-int32(len(telemetry.Phases))*14-70)
	a.controls.SetPosition(panelWidth+20, 10)
}

// Update handles input and background loads. Call once per frame before Draw.
func (a *App) Update() {
	a.handleInput()
	a.pollField(false)
	a.animateField(a.report.Frame)
}

// Draw runs one pipeline frame inside the raylib frame and draws the UI on top.
func (a *App) Draw() {
	a.perfCollector.RecordFrame()
	a.perfCollector.StartFrame()

	a.perfCollector.StartPhase(telemetry.PhaseEvents)
	a.orch.BeginFrame()

	rl.BeginDrawing()
	rl.ClearBackground(spaceColor)

	// The globe is drawn in the present phase; each stage marks its own.
	a.perfCollector.StartPhase(telemetry.PhasePresent)
	a.scene.Execute()
	a.perfCollector.StartPhase(telemetry.PhasePresent)

	a.drawActiveOverlays()
	a.drawUI()

	rl.EndDrawing()

	a.endFrame()
}

// endFrame closes the pipeline frame and feeds telemetry.
func (a *App) endFrame() {
	a.report = a.orch.EndFrame()
	a.perfCollector.EndFrame()
	a.collector.Record(a.report)
	a.flushTelemetry()
}

// drawActiveOverlays renders the enabled globe overlays.
func (a *App) drawActiveOverlays() {
	ell := a.camera.Ellipsoid
	for _, id := range a.overlays.EnabledOverlays() {
		switch id {
		case ui.OverlayGraticule:
			for _, line := range a.graticule {
				ui.DrawPolyline(line, ell, a.camera, 1, graticuleColor)
			}
		case ui.OverlayViewRange:
			outline := ui.RangeOutline(a.orch.Viewer().Range(), 1)
			ui.DrawPolyline(outline, ell, a.camera, 2, rangeColor)
		}
	}
}

// drawUI draws the panels and posts the options panel's events for the next frame.
func (a *App) drawUI() {
	if a.overlays.IsEnabled(ui.OverlayHUD) {
		a.hud.Draw(ui.HUDData{
			Title:   "Wind Globe",
			Frame:   a.report.Frame,
			FPS:     rl.GetFPS(),
			State:   a.orch.State(),
			Shown:   a.orch.Shown(),
			Census:  a.report.Census,
			Height:  a.camera.Height,
			Viewer:  a.orch.Viewer(),
			Options: a.orch.Options(),
			Faults:  a.orch.Faults(),
		}, int32(a.screenW))
		a.hud.DrawControls(int32(a.screenH), "Tab: overlays | O: options | S: snapshot | Home: reset")
	}

	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perfPanel.Draw(a.perfCollector.Stats())
	}

	if a.overlays.IsEnabled(ui.OverlayWindReadout) {
		mouse := rl.GetMousePosition()
		point, hit := a.camera.Pick(float64(mouse.X), float64(mouse.Y))
		a.readout.Draw(ui.ReadWind(a.orch.Field(), point, hit, a.orch.Options().ParticleHeight))
	}

	if a.overlays.IsEnabled(ui.OverlayControls) {
		a.controls.Draw(a.overlays)
	}

	for _, ev := range a.panel.Draw(a.orch.Options()) {
		a.postPanelEvent(ev)
	}
}

// postPanelEvent queues a panel event; it is handled at the next frame boundary.
func (a *App) postPanelEvent(ev pipeline.Event) {
	a.log.Debug("panel event", "action", pipeline.ActionOf(ev))
	a.orch.Post(ev)
}
