package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/ui"
)

// moveSettleFrames is how many input-free frames end a camera move.
const moveSettleFrames = 8

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	for _, desc := range a.overlays.All() {
		if desc.Key == 0 || !rl.IsKeyPressed(desc.Key) {
			continue
		}
		if id, on, ok := a.overlays.HandleKeyPress(desc.Key); ok {
			a.log.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
	a.panel.SetVisible(a.overlays.IsEnabled(ui.OverlayOptionsPanel))

	if rl.IsKeyPressed(rl.KeyS) {
		a.saveSnapshot(nil)
	}

	a.handleCameraInput()
}

// handleResize checks for window resize and posts the new size.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	a.resize(rl.GetScreenWidth(), rl.GetScreenHeight())
}

// resize moves the camera viewport and latches a pipeline resize.
func (a *App) resize(w, h int) {
	if w == a.screenW && h == a.screenH {
		return
	}
	a.screenW, a.screenH = w, h
	a.camera.Resize(float64(w), float64(h))
	a.orch.Post(pipeline.Resize{Width: w, Height: h})
	if a.panel != nil {
		a.layoutUI()
	}
}

// handleCameraInput pans and zooms the camera. The first input of a gesture
// posts MoveStart; the move ends after a few quiet frames with MoveEnd.
func (a *App) handleCameraInput() {
	moved := false

	mouse := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && !a.panel.Contains(mouse.X, mouse.Y) {
		a.dragging = true
	}
	if rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		a.dragging = false
	}
	if a.dragging {
		if d := rl.GetMouseDelta(); d.X != 0 || d.Y != 0 {
			// Dragging pulls the globe, so the camera moves the other way.
			a.camera.Pan(-float64(d.X), -float64(d.Y))
			moved = true
		}
	}

	const keyPan = 8.0
	if rl.IsKeyDown(rl.KeyRight) {
		a.camera.Pan(keyPan, 0)
		moved = true
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.camera.Pan(-keyPan, 0)
		moved = true
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.camera.Pan(0, keyPan)
		moved = true
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.camera.Pan(0, -keyPan)
		moved = true
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !a.panel.Contains(mouse.X, mouse.Y) {
		a.camera.ZoomBy(1 + float64(wheel)*0.1)
		moved = true
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.camera.ZoomBy(1.25)
		moved = true
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.camera.ZoomBy(0.8)
		moved = true
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		a.camera.Reset()
		moved = true
	}

	a.trackMove(moved || a.dragging)
}

// trackMove turns per-frame input activity into MoveStart and MoveEnd events.
func (a *App) trackMove(active bool) {
	if active {
		a.idleFrames = 0
		if a.camera.BeginMove() {
			a.orch.Post(pipeline.MoveStart{})
		}
		return
	}
	if !a.camera.Moving() {
		return
	}
	a.idleFrames++
	if a.idleFrames >= moveSettleFrames && a.camera.EndMove() {
		a.orch.Post(pipeline.MoveEnd{Height: a.camera.Height})
	}
}
