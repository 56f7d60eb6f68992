package viewer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// handleInput processes keyboard input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.player.TogglePause()
	}

	// Speed control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		v.player.SetSpeed(v.player.Speed() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		v.player.SetSpeed(v.player.Speed() + 1)
	}

	// Frame stepping through history
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		v.player.SetPaused(true)
		v.player.Seek(v.player.FrameIndex() - 1)
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		v.player.Seek(v.player.FrameIndex() + 1)
	}
	if rl.IsKeyPressed(rl.KeyL) {
		v.player.GoLive()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := v.player.Restart(); err != nil {
			slog.Error("restart failed", "error", err)
		}
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	v.overlays.HandleKeys()

	v.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.camera.Resize(w, h)
	v.stats.SetPosition(int32(w)-270, 10)
	v.perf.SetPosition(int32(w)-270, 240)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	panSpeed := float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) {
		v.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}

	// Drag to pan
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.camera.Pan(-d.X, -d.Y)
	}
}

const controlsLegend = "[Space] pause  [</>] speed  [[ ]] frame  [L] live  [R] restart  [Tab] overlays  [Home] reset view"
