package simulation

import "github.com/pthm-cable/sph/components"

// MaxPlaybackSpeed is the largest steps-per-update multiplier.
const MaxPlaybackSpeed = 10

// Player drives a Simulation for a viewer: play/pause, a speed multiplier,
// and scrubbing through the recorded frame history. While scrubbing the
// simulation itself is not stepped.
type Player struct {
	sim *Simulation

	paused bool
	speed  int
	live   bool // showing the live state rather than a recorded frame
	frame  int  // index into the frame history while not live
}

// NewPlayer creates a player showing the live simulation at speed 1.
func NewPlayer(sim *Simulation) *Player {
	return &Player{sim: sim, speed: 1, live: true}
}

// Update advances playback by one viewer frame. Live playback runs Speed
// steps of the configured dt; replay advances Speed recorded frames and
// returns to live at the end of the history.
func (p *Player) Update() error {
	if p.paused {
		return nil
	}

	if !p.live {
		p.Seek(p.frame + p.speed)
		return nil
	}

	dt := p.sim.Config().Physics.DT
	for i := 0; i < p.speed; i++ {
		if err := p.sim.Step(dt); err != nil {
			p.paused = true
			return err
		}
	}
	return nil
}

// TogglePause switches between playing and paused.
func (p *Player) TogglePause() {
	p.paused = !p.paused
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool { return p.paused }

// SetPaused sets the paused state.
func (p *Player) SetPaused(paused bool) { p.paused = paused }

// Speed returns the speed multiplier.
func (p *Player) Speed() int { return p.speed }

// SetSpeed sets the speed multiplier, clamped to [1, MaxPlaybackSpeed].
func (p *Player) SetSpeed(speed int) {
	p.speed = min(max(speed, 1), MaxPlaybackSpeed)
}

// Live reports whether the player shows the live state.
func (p *Player) Live() bool { return p.live }

// FrameCount returns the number of recorded frames.
func (p *Player) FrameCount() int {
	if h := p.sim.Frames(); h != nil {
		return h.Len()
	}
	return 0
}

// FrameIndex returns the displayed frame; the last frame while live.
func (p *Player) FrameIndex() int {
	if p.live {
		return max(p.FrameCount()-1, 0)
	}
	return p.frame
}

// Seek shows recorded frame i. Seeking to or past the newest frame returns
// to the live state.
func (p *Player) Seek(i int) {
	n := p.FrameCount()
	if n == 0 || i >= n-1 {
		p.GoLive()
		return
	}
	p.live = false
	p.frame = max(i, 0)
}

// GoLive returns to the live state.
func (p *Player) GoLive() {
	p.live = true
	p.frame = 0
}

// Restart resets the simulation with its current config and goes live.
func (p *Player) Restart() error {
	if err := p.sim.Reset(p.sim.Config()); err != nil {
		return err
	}
	p.GoLive()
	return nil
}

// Current copies the displayed state into dst.
func (p *Player) Current(dst *components.Snapshot) {
	if p.live {
		p.sim.SnapshotInto(dst)
		return
	}
	p.sim.Frames().Frame(p.frame).CopyInto(dst)
}
