package simulation

import "github.com/pthm-cable/sph/components"

// FrameHistory keeps a bounded run of snapshots for scrubbing and replay.
// When full, the oldest frame is overwritten.
type FrameHistory struct {
	every  int
	frames []components.Snapshot
	start  int // index of the oldest frame
	count  int
}

// NewFrameHistory records every `every` steps and keeps at most maxFrames.
func NewFrameHistory(every, maxFrames int) *FrameHistory {
	return &FrameHistory{
		every:  max(1, every),
		frames: make([]components.Snapshot, max(1, maxFrames)),
	}
}

// ShouldRecord reports whether step is on the recording cadence.
func (h *FrameHistory) ShouldRecord(step int) bool {
	return step%h.every == 0
}

// Record stores a copy of the current particle state, reusing the evicted
// frame's buffers.
func (h *FrameHistory) Record(ps *components.ParticleSet, step int, time float64) {
	var slot *components.Snapshot
	if h.count < len(h.frames) {
		slot = &h.frames[(h.start+h.count)%len(h.frames)]
		h.count++
	} else {
		slot = &h.frames[h.start]
		h.start = (h.start + 1) % len(h.frames)
	}
	ps.SnapshotInto(slot)
	slot.Step = step
	slot.Time = time
}

// Len returns the number of stored frames.
func (h *FrameHistory) Len() int {
	return h.count
}

// Frame returns the i-th stored frame, oldest first. The returned snapshot is
// owned by the history and is overwritten once evicted; CopyInto another
// snapshot to keep it.
func (h *FrameHistory) Frame(i int) *components.Snapshot {
	if i < 0 || i >= h.count {
		return nil
	}
	return &h.frames[(h.start+i)%len(h.frames)]
}

// Reset drops all frames.
func (h *FrameHistory) Reset() {
	h.start = 0
	h.count = 0
}
