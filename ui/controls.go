package ui

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/simulation"
)

// ControlsPanel lists the overlay toggles and their keys.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a hidden controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Draw renders the panel and returns the Y below it.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1
	}
	panelHeight := int32(totalItems)*lineHeight + int32(len(categories))*4 + padding*2 + lineHeight + 4

	r.DrawPanel(c.x, c.y, c.width, panelHeight)
	y := c.y + padding

	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range categories {
		y = r.DrawSectionHeader(c.x+padding, y, categoryLabel(category))
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
		y += 4
	}

	return y
}

func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

func categoryLabel(cat string) string {
	switch cat {
	case "color":
		return "Coloring"
	case "scene":
		return "Scene"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

// PlaybackBar draws the play/pause, restart, speed and timeline controls
// along the bottom of the screen and applies them to a Player.
type PlaybackBar struct {
	renderer *Renderer
	height   float32
}

// NewPlaybackBar creates a playback bar.
func NewPlaybackBar() *PlaybackBar {
	return &PlaybackBar{renderer: NewRenderer(), height: 44}
}

// Height returns the screen height reserved by the bar.
func (b *PlaybackBar) Height() int32 {
	return int32(b.height)
}

// Draw renders the bar across the given screen width and applies any
// interaction to p.
func (b *PlaybackBar) Draw(p *simulation.Player, screenWidth, screenHeight int32) {
	y := float32(screenHeight) - b.height
	b.renderer.DrawPanel(0, int32(y), screenWidth, int32(b.height))

	x := float32(10)
	y += 8
	h := b.height - 16

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 70, Height: h}, toggleText(p.Paused(), "Play", "Pause")) {
		p.TogglePause()
	}
	x += 80

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 70, Height: h}, "Restart") {
		if err := p.Restart(); err != nil {
			slog.Error("restart failed", "error", err)
		}
	}
	x += 80

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 50, Height: h}, "Live") {
		p.GoLive()
	}
	x += 60

	rl.DrawText("Speed", int32(x), int32(y+6), 14, rl.LightGray)
	x += 50
	speed := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: 100, Height: h},
		"", fmt.Sprintf("%dx", p.Speed()),
		float32(p.Speed()), 1, simulation.MaxPlaybackSpeed,
	)
	if s := int(speed + 0.5); s != p.Speed() {
		p.SetSpeed(s)
	}
	x += 150

	n := p.FrameCount()
	if n < 2 {
		return
	}
	width := float32(screenWidth) - x - 90
	frame := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: width, Height: h},
		"", fmt.Sprintf("%d/%d", p.FrameIndex()+1, n),
		float32(p.FrameIndex()), 0, float32(n-1),
	)
	if f := int(frame + 0.5); f != p.FrameIndex() {
		p.SetPaused(true)
		p.Seek(f)
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
