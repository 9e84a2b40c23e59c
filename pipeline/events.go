package pipeline

import "github.com/pthm-cable/windglobe/field"

// Event is a host notification. Events are queued with Post and handled once per
// frame in BeginFrame, never re-entrantly.
type Event interface {
	action() Action
}

// Action is what handling an event amounts to.
type Action int

const (
	ActionRecomputeParameters Action = iota
	ActionResize
	ActionApplyOptions
)

func (a Action) String() string {
	switch a {
	case ActionResize:
		return "resize"
	case ActionApplyOptions:
		return "apply_options"
	default:
		return "recompute_parameters"
	}
}

// MoveStart is sent when the camera starts moving.
type MoveStart struct{}

// MoveEnd is sent when the camera stops, with its height above the surface.
type MoveEnd struct {
	Height float64
}

// Resize is sent when the viewport size changes.
type Resize struct {
	Width, Height int
}

// OptionsChanged carries a new panel snapshot.
type OptionsChanged struct {
	Options Options
}

// LayerChanged selects a new globe base layer.
type LayerChanged struct {
	Layer string
}

// FieldLoaded delivers a wind field snapshot, replacing any previous one.
// Advance marks a later time step of the current source: when the grid and
// extent match, only the field is swapped and particles keep their trails.
type FieldLoaded struct {
	Store   *field.Store
	Advance bool
}

func (MoveStart) action() Action      { return ActionRecomputeParameters }
func (MoveEnd) action() Action        { return ActionRecomputeParameters }
func (Resize) action() Action         { return ActionResize }
func (OptionsChanged) action() Action { return ActionApplyOptions }
func (LayerChanged) action() Action   { return ActionApplyOptions }
func (FieldLoaded) action() Action    { return ActionApplyOptions }

// ActionOf reports how an event is handled.
func ActionOf(e Event) Action {
	return e.action()
}
