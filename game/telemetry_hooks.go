package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/voxelboids/field"
	"github.com/pthm-cable/voxelboids/telemetry"
)

// record is one flushed stats window with the perf window at the same frame.
type record struct {
	stats telemetry.WindowStats
	perf  telemetry.PerfStats
}

// sampleTelemetry flushes the stats window if it is due. It reads agent
// state, so it must run on the frame goroutine between frames.
func (g *Game) sampleTelemetry() (record, bool) {
	frame := g.pipeline.Frames()
	if !g.collector.ShouldFlush(frame) {
		return record{}, false
	}

	var volumeMass float64
	g.pipeline.WithVolume(func(v *field.Grid) {
		volumeMass = v.Mass()
	})
	masses := telemetry.Masses{
		Field:  g.pipeline.Field().Mass(),
		Volume: volumeMass,
	}

	stats := g.collector.Flush(frame, g.pipeline.SimTime(), g.pipeline.Agents(), masses)
	return record{stats: stats, perf: g.perfCollector.Stats()}, true
}

// writeRecord logs and persists a flushed window and any bookmarks it triggers.
func (g *Game) writeRecord(rec record) error {
	if g.statsCallback != nil {
		g.statsCallback(rec.stats)
	}
	if g.logStats {
		rec.stats.LogStats()
		rec.perf.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(rec.stats); err != nil {
		return err
	}
	if err := g.outputManager.WritePerf(rec.perf, rec.stats.WindowEndFrame); err != nil {
		return err
	}

	for _, bm := range g.bookmarkDetector.Check(rec.stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			return fmt.Errorf("frame %d: %w", bm.Frame, err)
		}
	}
	return nil
}

// flushTelemetry samples and writes inline (graphical mode).
func (g *Game) flushTelemetry() {
	rec, ok := g.sampleTelemetry()
	if !ok {
		return
	}
	if err := g.writeRecord(rec); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
}
