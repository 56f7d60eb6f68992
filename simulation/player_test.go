package simulation

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/components"
)

func newPlayer(t *testing.T) (*Player, *Simulation) {
	t.Helper()
	cfg := blockConfig()
	cfg.Telemetry.FrameEvery = 2
	cfg.Telemetry.MaxFrames = 10

	s, err := NewWithOptions(cfg, Options{RecordFrames: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return NewPlayer(s), s
}

func TestPlayerSpeedAndPause(t *testing.T) {
	p, s := newPlayer(t)

	p.SetSpeed(3)
	if err := p.Update(); err != nil {
		t.Fatal(err)
	}
	if s.Steps() != 3 {
		t.Errorf("Steps() = %d after one update at speed 3", s.Steps())
	}

	p.TogglePause()
	if err := p.Update(); err != nil {
		t.Fatal(err)
	}
	if s.Steps() != 3 {
		t.Errorf("paused player stepped: %d", s.Steps())
	}

	p.SetSpeed(100)
	if p.Speed() != MaxPlaybackSpeed {
		t.Errorf("Speed() = %d, want clamp at %d", p.Speed(), MaxPlaybackSpeed)
	}
	p.SetSpeed(-1)
	if p.Speed() != 1 {
		t.Errorf("Speed() = %d, want clamp at 1", p.Speed())
	}
}

func TestPlayerScrubAndReturnLive(t *testing.T) {
	p, s := newPlayer(t)
	for i := 0; i < 10; i++ {
		if err := p.Update(); err != nil {
			t.Fatal(err)
		}
	}
	// Frames at steps 0, 2, ..., 10
	if p.FrameCount() != 6 {
		t.Fatalf("FrameCount() = %d, want 6", p.FrameCount())
	}

	p.Seek(1)
	if p.Live() || p.FrameIndex() != 1 {
		t.Fatalf("after Seek(1): live=%v frame=%d", p.Live(), p.FrameIndex())
	}
	var snap components.Snapshot
	p.Current(&snap)
	if snap.Step != 2 {
		t.Errorf("frame 1 is step %d, want 2", snap.Step)
	}

	// Replay does not step the simulation.
	if err := p.Update(); err != nil {
		t.Fatal(err)
	}
	if s.Steps() != 10 || p.FrameIndex() != 2 {
		t.Errorf("replay update: steps=%d frame=%d", s.Steps(), p.FrameIndex())
	}

	p.Seek(99)
	if !p.Live() {
		t.Error("seeking past the newest frame should return live")
	}
	p.Current(&snap)
	if snap.Step != 10 {
		t.Errorf("live snapshot is step %d, want 10", snap.Step)
	}
}

func TestPlayerPausesOnError(t *testing.T) {
	p, s := newPlayer(t)
	s.ps.Vel[0] = r2.Vec{Y: math.Inf(-1)}

	if err := p.Update(); !errors.Is(err, ErrUnstable) {
		t.Fatalf("err = %v, want ErrUnstable", err)
	}
	if !p.Paused() {
		t.Error("player should pause after a fatal step")
	}

	if err := p.Restart(); err != nil {
		t.Fatal(err)
	}
	p.SetPaused(false)
	if err := p.Update(); err != nil {
		t.Errorf("update after restart: %v", err)
	}
}
