package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/voxelboids/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Active   int
	Capacity int
	Frame    int64
	FPS      int32
	Paused   bool
	RayTrace bool
}

// HUD renders the heads-up display in the top-right corner.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD right-aligned against screenWidth.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	lines := []string{
		data.Title,
		fmt.Sprintf("Boids: %d / %d", data.Active, data.Capacity),
		fmt.Sprintf("Frame: %d | FPS: %d", data.Frame, data.FPS),
	}
	y := int32(10)
	for i, line := range lines {
		size := int32(16)
		color := rl.LightGray
		if i == 0 {
			size, color = 20, rl.White
		}
		w := rl.MeasureText(line, size)
		rl.DrawText(line, screenWidth-w-10, y, size, color)
		y += size + 4
	}

	status := "Splat"
	if data.RayTrace {
		status = "Ray trace"
	}
	if data.Paused {
		status += " | PAUSED"
	}
	w := rl.MeasureText(status, 16)
	rl.DrawText(status, screenWidth-w-10, y, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-pass performance breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders one line per pass, in frame order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Pass Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Frame: %s", stats.AvgFrame.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases {
		avg, ok := stats.PhaseAvg[name]
		if !ok {
			continue
		}
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
