package ui

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID names a toggleable overlay.
type OverlayID string

const (
	OverlayOptionsPanel OverlayID = "options_panel"
	OverlayHUD          OverlayID = "hud"
	OverlayPerf         OverlayID = "perf"
	OverlayWindReadout  OverlayID = "wind_readout"
	OverlayGraticule    OverlayID = "graticule"
	OverlayViewRange    OverlayID = "view_range"
	OverlayControls     OverlayID = "controls"
)

// Overlay categories, listed in this order by the controls panel.
const (
	categoryPanels = "panels"
	categoryGlobe  = "globe"
)

// OverlayDescriptor is the metadata for one overlay toggle.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // 0 when there is no key
	KeyLabel    string // shown in the legend
	Category    string
	Default     bool // on at startup
}

var defaultOverlays = []OverlayDescriptor{
	{OverlayOptionsPanel, "Options", "Particle options, globe layer and data source", rl.KeyO, "O", categoryPanels, true},
	{OverlayHUD, "HUD", "Frame, particle census and view range", rl.KeyH, "H", categoryPanels, true},
	{OverlayPerf, "Performance", "Per-phase frame timing", rl.KeyF3, "F3", categoryPanels, false},
	{OverlayWindReadout, "Wind Readout", "Wind vector under the cursor", rl.KeyI, "I", categoryPanels, false},
	{OverlayControls, "Overlay List", "This list", rl.KeyTab, "Tab", categoryPanels, false},
	{OverlayGraticule, "Graticule", "Meridians and parallels every 15 degrees", rl.KeyG, "G", categoryGlobe, false},
	{OverlayViewRange, "Particle Range", "Outline of the region particles are seeded in", rl.KeyV, "V", categoryGlobe, false},
}

// OverlayRegistry holds the overlays in registration order and which of
// them are on.
type OverlayRegistry struct {
	list []OverlayDescriptor
	on   map[OverlayID]bool
}

// NewOverlayRegistry returns a registry holding the built-in overlays with
// their default states.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{on: make(map[OverlayID]bool, len(defaultOverlays))}
	for _, d := range defaultOverlays {
		r.Register(d)
	}
	return r
}

// Register appends an overlay, replacing any earlier one with the same ID.
func (r *OverlayRegistry) Register(d OverlayDescriptor) {
	r.list = slices.DeleteFunc(r.list, func(e OverlayDescriptor) bool { return e.ID == d.ID })
	r.list = append(r.list, d)
	r.on[d.ID] = d.Default
}

func (r *OverlayRegistry) known(id OverlayID) bool {
	_, ok := r.on[id]
	return ok
}

// Toggle flips a registered overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if !r.known(id) {
		return false
	}
	r.on[id] = !r.on[id]
	return r.on[id]
}

// SetEnabled sets a registered overlay's state; unknown IDs are ignored.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	if r.known(id) {
		r.on[id] = enabled
	}
}

func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.on[id]
}

// All returns the overlays in registration order. The slice is shared.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.list
}

func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var out []OverlayDescriptor
	for _, d := range r.list {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (r *OverlayRegistry) Categories() []string {
	var out []string
	for _, d := range r.list {
		if !slices.Contains(out, d.Category) {
			out = append(out, d.Category)
		}
	}
	return out
}

// HandleKeyPress toggles the overlay bound to key. ok is false when no
// overlay uses the key.
func (r *OverlayRegistry) HandleKeyPress(key int32) (id OverlayID, on, ok bool) {
	if key == 0 {
		return "", false, false
	}
	i := slices.IndexFunc(r.list, func(d OverlayDescriptor) bool { return d.Key == key })
	if i < 0 {
		return "", false, false
	}
	id = r.list[i].ID
	return id, r.Toggle(id), true
}

// EnabledOverlays returns the IDs that are on, in registration order.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var out []OverlayID
	for _, d := range r.list {
		if r.on[d.ID] {
			out = append(out, d.ID)
		}
	}
	return out
}
