package app

import (
	"github.com/pthm-cable/windglobe/telemetry"
)

// flushTelemetry closes a stats window when due, writes it out and acts on
// any bookmarks it triggers.
func (a *App) flushTelemetry() {
	frame := a.report.Frame
	if !a.collector.ShouldFlush(frame) {
		return
	}

	stats := a.collector.Flush(frame, a.orch)
	perfStats := a.perfCollector.Stats()

	if a.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := a.output.WriteStats(stats); err != nil {
		a.log.Error("failed to write stats", "error", err)
	}
	if err := a.output.WritePerf(perfStats, frame); err != nil {
		a.log.Error("failed to write perf", "error", err)
	}

	for _, bm := range a.bookmarks.Check(stats) {
		if a.logStats {
			bm.LogBookmark()
		}
		if err := a.output.WriteBookmark(bm); err != nil {
			a.log.Error("failed to write bookmark", "error", err)
		}
		if a.bookmarkSnapshots {
			a.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot writes the current view to the snapshot directory.
func (a *App) saveSnapshot(bookmark *telemetry.Bookmark) string {
	path, err := telemetry.SaveSnapshot(a.createSnapshot(bookmark), a.snapshotDir)
	if err != nil {
		a.log.Error("failed to save snapshot", "error", err)
		return ""
	}
	a.log.Info("snapshot saved", "path", path, "frame", a.report.Frame)
	return path
}

// createSnapshot captures the current pose, options and view.
func (a *App) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	opts := a.orch.Options()
	opts.GlobeLayer = a.layer
	opts.DataSource = a.source
	return &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Seed:    a.seed,
		Frame:   a.report.Frame,
		Camera: telemetry.CameraState{
			Lon:    a.camera.Lon,
			Lat:    a.camera.Lat,
			Height: a.camera.Height,
		},
		Options:  opts,
		View:     a.orch.Viewer(),
		Bookmark: bookmark,
	}
}

// applySnapshot moves the camera to a snapshot's pose. The options are
// posted separately, after the MoveEnd that would otherwise override them.
func (a *App) applySnapshot(s *telemetry.Snapshot) {
	a.camera.Lon = s.Camera.Lon
	a.camera.Lat = s.Camera.Lat
	a.camera.SetHeight(s.Camera.Height)
	a.log.Info("snapshot restored", "frame", s.Frame, "camera", s.Camera,
		"source", s.Options.DataSource, "layer", s.Options.GlobeLayer)
}
