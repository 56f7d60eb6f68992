package simulation

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/telemetry"
)

// recordTelemetry feeds the collector, records frames on cadence and
// flushes the stats window when it is complete.
func (s *Simulation) recordTelemetry() {
	var maxSpeed float64
	for _, v := range s.ps.Vel[:s.ps.NumFluid()] {
		if sp := r2.Norm(v); sp > maxSpeed {
			maxSpeed = sp
		}
	}
	s.collector.RecordStep(s.degenerate, maxSpeed)

	if s.frames != nil && s.frames.ShouldRecord(s.step) {
		s.frames.Record(s.ps, s.step, s.time)
	}
	if s.output != nil && s.step%max(1, s.cfg.Telemetry.FrameEvery) == 0 {
		s.SnapshotInto(&s.scratch)
		if err := s.output.WriteFrame(&s.scratch); err != nil {
			slog.Error("failed to write frame", "error", err)
		}
	}

	s.flushTelemetry()
}

// flushTelemetry checks if the stats window should be flushed and emits it.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.step) {
		return
	}
	s.SnapshotInto(&s.scratch)
	stats := s.collector.Flush(&s.scratch)
	perfStats := s.perf.Stats()

	if s.opts.StatsCallback != nil {
		s.opts.StatsCallback(stats)
	}

	marks := s.bookmarks.Check(stats)
	s.marks = append(s.marks, marks...)
	if s.opts.CheckpointDir != "" {
		for i := range marks {
			cp := s.Checkpoint()
			cp.Bookmark = &marks[i]
			if _, err := telemetry.SaveCheckpoint(cp, s.opts.CheckpointDir); err != nil {
				slog.Error("failed to save checkpoint", "error", err)
			}
		}
	}

	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
		for _, b := range marks {
			b.LogBookmark()
		}
	}

	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := s.output.WriteBookmarks(marks); err != nil {
			slog.Error("failed to write bookmarks", "error", err)
		}
	}
}
