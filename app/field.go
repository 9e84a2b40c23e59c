package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/pipeline"
)

// ErrUnknownSource is returned for a data source name with no preset.
var ErrUnknownSource = errors.New("unknown data source")

// SourceNames lists the selectable data sources in panel order.
func (a *App) SourceNames() []string {
	names := make([]string, len(a.presets))
	for i, p := range a.presets {
		names[i] = p.Name
	}
	return names
}

func (a *App) loader(name string) (field.Loader, bool) {
	for _, p := range a.presets {
		if p.Name == name {
			return p.Loader, true
		}
	}
	return nil, false
}

// loadSource starts loading a source in the background. A load already in
// flight is cancelled; only the newest result is delivered.
func (a *App) loadSource(name string) error {
	l, ok := a.loader(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	if syn, isSyn := l.(field.Synthetic); isSyn {
		syn.Time = a.fieldTime
		l = syn
	}
	a.startLoad(l, false)
	a.source = name
	return nil
}

// startLoad replaces any load in flight. advance marks the result as a later
// time step of the current source.
func (a *App) startLoad(l field.Loader, advance bool) {
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	a.advancing = advance
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelLoad = cancel
	a.loading = field.LoadAsync(ctx, l)
}

// requestSource is the orchestrator's source-change callback.
func (a *App) requestSource(name string) {
	if name == a.source && a.loading != nil {
		return
	}
	a.fieldTime = 0
	if err := a.loadSource(name); err != nil {
		a.log.Warn("source change rejected", "source", name, "error", err)
		return
	}
	a.log.Info("loading wind field", "source", name)
}

// pollField posts a finished load as FieldLoaded. With wait set it blocks
// until the pending load completes.
func (a *App) pollField(wait bool) {
	if a.loading == nil {
		return
	}
	var res field.LoadResult
	var ok bool
	if wait {
		res, ok = <-a.loading
	} else {
		select {
		case res, ok = <-a.loading:
		default:
			return
		}
	}
	a.loading = nil
	if !ok {
		return
	}
	if res.Err != nil {
		if !errors.Is(res.Err, context.Canceled) {
			a.log.Error("wind field load failed", "source", a.source, "error", res.Err)
		}
		return
	}
	a.orch.Post(pipeline.FieldLoaded{Store: res.Store, Advance: a.advancing})
}

// animateField reloads the current source with its noise time advanced every
// AnimateEvery frames. Sources that are not time-varying are left alone.
func (a *App) animateField(frame uint64) {
	every := a.cfg.Field.AnimateEvery
	if every <= 0 || frame == 0 || frame%uint64(every) != 0 || a.loading != nil {
		return
	}
	l, ok := a.loader(a.source)
	if !ok {
		return
	}
	syn, isSyn := l.(field.Synthetic)
	if !isSyn {
		return
	}
	a.fieldTime += a.cfg.Field.TimeIncrement
	syn.Time = a.fieldTime
	a.startLoad(syn, true)
}
