package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/voxelboids/field"
	"github.com/pthm-cable/voxelboids/renderer"
	"github.com/pthm-cable/voxelboids/ui"
)

const controlsLegend = "Drag: orbit | Wheel: zoom | Home: reset | F1: panel | F3: perf | F4: pause | F11: fullscreen | ESC: quit"

// Draw composites the frame's output and draws the UI on top.
func (g *Game) Draw() {
	par := g.pipeline.Parallel()
	rayTrace := g.cfg.View.RayTrace

	if rayTrace {
		view, proj := g.camera.View(), g.camera.Projection()
		rp := renderer.RayParams{
			Steps:        g.cfg.View.RaySteps,
			SampleWeight: float32(g.cfg.View.SampleWeight),
		}
		w, h, d := g.cfg.Derived.WorldW32, g.cfg.Derived.WorldH32, g.cfg.Derived.WorldD32
		g.pipeline.WithVolume(func(vol *field.Grid) {
			renderer.RayMarch(g.compositor.RayImage(), vol, view, proj, w, h, d, rp, par)
		})
		g.compositor.UploadRay(par)
	} else {
		g.compositor.UploadSplat(g.pipeline.Image(), par)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.compositor.Draw(rayTrace)
	g.drawUI()

	rl.EndDrawing()
	g.perfCollector.RecordPresent()
}

// drawUI renders the control panel, HUD, and optional perf panel.
func (g *Game) drawUI() {
	if g.panel.Draw(g.cfg) {
		g.cfg.Refresh()
	}

	st := g.pipeline.Agents()
	g.hud.Draw(ui.HUDData{
		Title:    "Voxel Boids",
		Active:   st.Active(),
		Capacity: st.Cap(),
		Frame:    g.pipeline.Frames(),
		FPS:      rl.GetFPS(),
		Paused:   g.paused,
		RayTrace: g.cfg.View.RayTrace,
	}, int32(g.screenWidth))

	if g.showPerf {
		g.perfPanel.SetPosition(int32(g.screenWidth)-260, 110)
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)
}
