package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/telemetry"
	"github.com/pthm-cable/windglobe/viewer"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	Frame   uint64
	FPS     int32
	State   pipeline.State
	Shown   bool
	Census  particles.Census
	Height  float64 // camera height, meters
	Viewer  viewer.Parameters
	Options pipeline.Options
	Faults  pipeline.FaultCounts
}

// HUD renders the main heads-up display.
type HUD struct {
	paint *Painter
}

// NewHUD creates a HUD.
func NewHUD() *HUD {
	return &HUD{
		paint: NewPainter(),
	}
}

// Draw renders the HUD in the top-right corner.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	x := screenWidth - 300
	h.paint.Panel(x-8, 4, 296, 144)
	rl.DrawText(data.Title, x, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Frame: %d | FPS: %d | %s", data.Frame, data.FPS, data.State),
		x, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Particles: %d | Reseeded: %d | Void: %d", data.Census.Total, data.Census.Reseeded, data.Census.Void),
		x, 55, 14, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Height: %s | %s / %s", formatMeters(data.Height), data.Options.GlobeLayer, data.Options.DataSource),
		x, 73, 14, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Lon %.1f..%.1f  Lat %.1f..%.1f",
			data.Viewer.LonRange[0], data.Viewer.LonRange[1], data.Viewer.LatRange[0], data.Viewer.LatRange[1]),
		x, 91, 14, rl.Gray,
	)

	status, col := "", rl.Yellow
	switch {
	case data.State == pipeline.StateResizing:
		status = "Resizing"
	case data.State == pipeline.StateUninitialized:
		status = "Loading wind field"
	case !data.Shown:
		status = "Moving"
		col = rl.Gray
	}
	if status != "" {
		rl.DrawText(status, x, 109, 16, col)
	}

	var faults uint64
	for _, n := range data.Faults {
		faults += n
	}
	if faults > 0 {
		rl.DrawText(fmt.Sprintf("Faults: %d", faults), x, 127, 14, rl.Orange)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// formatMeters prints a height with a unit that keeps it short.
func formatMeters(m float64) string {
	switch {
	case m >= 1e6:
		return fmt.Sprintf("%.1f Mm", m/1e6)
	case m >= 1e3:
		return fmt.Sprintf("%.1f km", m/1e3)
	default:
		return fmt.Sprintf("%.0f m", m)
	}
}

// PerfPanel renders the per-phase frame timing panel.
type PerfPanel struct {
	paint *Painter
	x, y  int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		paint: NewPainter(),
		x:     x,
		y:     y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the phase breakdown in frame order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	height := int32(len(telemetry.Phases))*14 + 60
	p.paint.Panel(x-6, y-6, 350, height)

	rl.DrawText("Frame Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Frame: %s  p95 %s  (%.0f fps)",
			stats.AvgFrame.Round(time.Microsecond), stats.P95Frame.Round(time.Microsecond), stats.FPS),
		x, y, 14, rl.Yellow,
	)
	y += 18

	for _, name := range telemetry.Phases {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-22s %8s %8s %5.1f%%", name, avg.Round(time.Microsecond),
				stats.PhaseP95[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
