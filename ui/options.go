package ui

import (
	"fmt"
	"math"
	"slices"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/pipeline"
)

// OptionSliders returns the panel rows in display order.
func OptionSliders() []SliderDescriptor {
	return []SliderDescriptor{
		{
			ID: "max_particles", Label: "Particles", Format: "%.0f",
			Min: 1, Max: 1 << 16,
			Get: func(o pipeline.Options) float32 { return float32(o.MaxParticles) },
			Set: func(o *pipeline.Options, v float32) { o.MaxParticles = int(math.Round(float64(v))) },
		},
		{
			ID: "line_width", Label: "Line width", Format: "%.1f",
			Min: pipeline.MinLineWidth, Max: 16,
			Get: func(o pipeline.Options) float32 { return float32(o.LineWidth) },
			Set: func(o *pipeline.Options, v float32) { o.LineWidth = float64(v) },
		},
		{
			ID: "fade_opacity", Label: "Fade", Format: "%.3f",
			Min: 0.8, Max: pipeline.MaxFadeOpacity,
			Get: func(o pipeline.Options) float32 { return float32(o.FadeOpacity) },
			Set: func(o *pipeline.Options, v float32) { o.FadeOpacity = float64(v) },
		},
		{
			ID: "speed_factor", Label: "Speed", Format: "%.2f",
			Min: 0, Max: pipeline.MaxSpeedFactor,
			Get: func(o pipeline.Options) float32 { return float32(o.SpeedFactor) },
			Set: func(o *pipeline.Options, v float32) { o.SpeedFactor = float64(v) },
		},
		{
			ID: "particle_height", Label: "Height (m)", Format: "%.0f",
			Min: 0, Max: 50000,
			Get: func(o pipeline.Options) float32 { return float32(o.ParticleHeight) },
			Set: func(o *pipeline.Options, v float32) { o.ParticleHeight = float64(v) },
		},
		{
			ID: "drop_rate", Label: "Drop rate", Format: "%.4f",
			Min: 0, Max: pipeline.MaxDropRate,
			Get: func(o pipeline.Options) float32 { return float32(o.DropRate) },
			Set: func(o *pipeline.Options, v float32) { o.DropRate = float64(v) },
		},
		{
			ID: "drop_rate_bump", Label: "Drop bump", Format: "%.4f",
			Min: 0, Max: pipeline.MaxDropRateBump,
			Get: func(o pipeline.Options) float32 { return float32(o.DropRateBump) },
			Set: func(o *pipeline.Options, v float32) { o.DropRateBump = float64(v) },
		},
	}
}

// draft holds panel edits that have not been posted yet. Slider drags edit the
// draft and commit once the mouse is released, so a drag posts one event.
type draft struct {
	opts  pipeline.Options
	dirty bool
}

// sync adopts the effective options unless an edit is in progress.
func (d *draft) sync(current pipeline.Options) {
	if !d.dirty {
		d.opts = current
	}
}

// set applies a slider value, marking the draft dirty when it changed.
func (d *draft) set(s SliderDescriptor, v float32) {
	v = s.Clamp(v)
	if s.Get(d.opts) == v {
		return
	}
	s.Set(&d.opts, v)
	d.dirty = true
}

// commit returns the pending OptionsChanged once the pointer is released.
func (d *draft) commit(released bool) (pipeline.Event, bool) {
	if !d.dirty || !released {
		return nil, false
	}
	d.dirty = false
	return pipeline.OptionsChanged{Options: d.opts}, true
}

// OptionsPanel is the raygui options panel. Draw returns the events the host
// should post to the orchestrator.
type OptionsPanel struct {
	paint   *Painter
	x, y    int32
	width   int32
	visible bool

	sliders  []SliderDescriptor
	layers   []string
	sources  []string
	defaults pipeline.Options

	draft draft
}

// NewOptionsPanel creates a panel offering the given layers and data sources.
// defaults is what the reset button restores.
func NewOptionsPanel(x, y, width int32, layers, sources []string, defaults pipeline.Options) *OptionsPanel {
	return &OptionsPanel{
		paint:    NewPainter(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
		sliders:  OptionSliders(),
		layers:   layers,
		sources:  sources,
		defaults: defaults,
	}
}

// SetPosition moves the panel.
func (p *OptionsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// SetVisible shows or hides the panel.
func (p *OptionsPanel) SetVisible(visible bool) {
	p.visible = visible
}

// IsVisible returns whether the panel is shown.
func (p *OptionsPanel) IsVisible() bool {
	return p.visible
}

// Height returns the panel height in pixels.
func (p *OptionsPanel) Height() int32 {
	t := p.paint.Style
	rows := int32(len(p.sliders)) + 4 // title, layer row, source row, reset button
	return rows*(t.Row+8) + t.Inset*2
}

// Contains reports whether a screen point is over the panel, so camera input
// can ignore drags that start on it.
func (p *OptionsPanel) Contains(x, y float32) bool {
	if !p.visible {
		return false
	}
	return x >= float32(p.x) && x < float32(p.x+p.width) &&
		y >= float32(p.y) && y < float32(p.y+p.Height())
}

// Draw renders the panel against the effective options and returns the events
// produced by this frame's interaction.
func (p *OptionsPanel) Draw(current pipeline.Options) []pipeline.Event {
	if !p.visible {
		return nil
	}
	var events []pipeline.Event

	r := p.paint
	t := r.Style
	row := t.Row + 8
	r.Panel(p.x, p.y, p.width, p.Height())

	x := p.x + t.Inset
	y := p.y + t.Inset
	innerW := float32(p.width - t.Inset*2)
	y = r.Section(x, y, "Wind options")

	p.draft.sync(current)
	sliderX := float32(x + t.Gutter)
	sliderW := innerW - float32(t.Gutter) - 64
	for _, s := range p.sliders {
		v := s.Get(p.draft.opts)
		rl.DrawText(s.Label, x, y+2, t.Text, t.Label)
		next := gui.SliderBar(
			rl.Rectangle{X: sliderX, Y: float32(y), Width: sliderW, Height: float32(t.Row)},
			"", fmt.Sprintf(s.Format, v), v, s.Min, s.Max,
		)
		p.draft.set(s, next)
		y += row
	}
	p.draft.opts.GlobeLayer = current.GlobeLayer
	p.draft.opts.DataSource = current.DataSource
	if ev, ok := p.draft.commit(!rl.IsMouseButtonDown(rl.MouseLeftButton)); ok {
		events = append(events, ev)
	}

	// Layer toggles apply immediately; they do not disturb the particles.
	rl.DrawText("Layer", x, y+2, t.Text, t.Label)
	if len(p.layers) > 0 {
		active := int32(max(slices.Index(p.layers, current.GlobeLayer), 0))
		cellW := (innerW - float32(t.Gutter)) / float32(len(p.layers))
		picked := gui.ToggleGroup(
			rl.Rectangle{X: sliderX, Y: float32(y), Width: cellW - 2, Height: float32(t.Row)},
			strings.Join(p.layers, ";"), active,
		)
		if picked != active && int(picked) < len(p.layers) {
			events = append(events, pipeline.LayerChanged{Layer: p.layers[picked]})
		}
	}
	y += row

	// A source switch carries any uncommitted slider edits with it.
	rl.DrawText("Source", x, y+2, t.Text, t.Label)
	if len(p.sources) > 0 {
		active := int32(max(slices.Index(p.sources, current.DataSource), 0))
		cellW := (innerW - float32(t.Gutter)) / float32(len(p.sources))
		picked := gui.ToggleGroup(
			rl.Rectangle{X: sliderX, Y: float32(y), Width: cellW - 2, Height: float32(t.Row)},
			strings.Join(p.sources, ";"), active,
		)
		if picked != active && int(picked) < len(p.sources) {
			next := current
			if p.draft.dirty {
				next = p.draft.opts
				p.draft = draft{}
			}
			next.DataSource = p.sources[picked]
			events = append(events, pipeline.OptionsChanged{Options: next})
		}
	}
	y += row

	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: innerW, Height: float32(t.Row + 4)}, "Reset to defaults") {
		reset := p.defaults
		reset.GlobeLayer = current.GlobeLayer
		reset.DataSource = current.DataSource
		p.draft = draft{}
		events = append(events, pipeline.OptionsChanged{Options: reset})
	}

	return events
}
