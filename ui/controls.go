package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/voxelboids/config"
)

// float64Control binds a slider to a float64 config field.
func float64Control(id, label string, lo, hi float32, field func(*config.Config) *float64) ControlDescriptor {
	return ControlDescriptor{
		ID: id, Label: label, Type: ControlSlider, Format: "%.3f", Min: lo, Max: hi,
		Get: func(c *config.Config) float32 { return float32(*field(c)) },
		Set: func(c *config.Config, v float32) { *field(c) = float64(v) },
	}
}

func notRayTrace(c *config.Config) bool { return !c.View.RayTrace }

// DefaultControls returns the control panel layout.
func DefaultControls() []ControlDescriptor {
	dof := func(d ControlDescriptor) ControlDescriptor {
		d.Visible = notRayTrace
		return d
	}
	return []ControlDescriptor{
		{ID: "flocking", Label: "Flocking", Type: ControlSection},
		float64Control("alignment", "Alignment", 0, 2, func(c *config.Config) *float64 { return &c.Flocking.AlignmentWeight }),
		float64Control("avoidance", "Avoidance", 0, 2, func(c *config.Config) *float64 { return &c.Flocking.AvoidanceWeight }),
		float64Control("cohesion", "Cohesion", 0, 2, func(c *config.Config) *float64 { return &c.Flocking.CohesionWeight }),
		float64Control("center", "Center attraction", 0, 2, func(c *config.Config) *float64 { return &c.Flocking.CenterAttraction }),
		float64Control("max_speed", "Max speed", 0, 5, func(c *config.Config) *float64 { return &c.Flocking.MaxSpeed }),
		float64Control("max_force", "Max force", 0, 5, func(c *config.Config) *float64 { return &c.Flocking.MaxForce }),
		{
			ID: "sense_distance", Label: "Sense distance", Type: ControlSlider, Format: "%.0f",
			Min: 0, Max: 64, Integer: true,
			Get: func(c *config.Config) float32 { return float32(c.Flocking.SenseDistance) },
			Set: func(c *config.Config, v float32) { c.Flocking.SenseDistance = int(v) },
		},
		float64Control("velocity_update", "Velocity update", 0, 1, func(c *config.Config) *float64 { return &c.Flocking.VelocityUpdateStep }),
		{
			ID: "boids", Label: "Boid count", Type: ControlSlider, Format: "%.0f",
			Min: 1, Max: -1, Integer: true,
			Get: func(c *config.Config) float32 { return float32(c.Agents.Active) },
			Set: func(c *config.Config, v float32) { c.Agents.Active = int(v) },
		},

		{ID: "view", Label: "View", Type: ControlSection},
		float64Control("sample_weight", "Sample weight", 0.001, 1, func(c *config.Config) *float64 { return &c.View.SampleWeight }),
		{
			ID: "ray_trace", Label: "Ray trace", Type: ControlCheckBox,
			Get: func(c *config.Config) float32 { return boolValue(c.View.RayTrace) },
			Set: func(c *config.Config, v float32) { c.View.RayTrace = v != 0 },
		},
		dof(float64Control("dof_size", "DOF size", 0, 16, func(c *config.Config) *float64 { return &c.View.DofSize })),
		dof(float64Control("dof_distribution", "DOF distribution", 0, 4, func(c *config.Config) *float64 { return &c.View.DofDistribution })),
		dof(float64Control("dof_distance", "DOF distance", 0, 10, func(c *config.Config) *float64 { return &c.View.DofDistance })),
		dof(float64Control("dof_depth", "DOF depth", 0.01, 5, func(c *config.Config) *float64 { return &c.View.DofDepth })),
		float64Control("decay", "Decay", 0, 1, func(c *config.Config) *float64 { return &c.View.Decay }),
	}
}

func boolValue(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// ControlPanel renders the left-side parameter panel.
type ControlPanel struct {
	renderer *Renderer
	controls []ControlDescriptor
	x, y     int32
	width    int32
	visible  bool
}

// NewControlPanel creates a hidden control panel with the default controls.
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		controls: DefaultControls(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// rowHeight returns the vertical space a control occupies.
func (c *ControlPanel) rowHeight(d ControlDescriptor) int32 {
	t := c.renderer.Theme
	switch d.Type {
	case ControlSection:
		return t.LineHeight + 4
	case ControlCheckBox:
		return t.ControlHeight + 6
	default:
		return t.LineHeight + t.ControlHeight + 6
	}
}

// Height returns the panel height for the controls visible under cfg.
func (c *ControlPanel) Height(cfg *config.Config) int32 {
	h := c.renderer.Theme.Padding * 2
	for _, d := range c.controls {
		if d.visible(cfg) {
			h += c.rowHeight(d)
		}
	}
	return h
}

// Contains reports whether screen point (px, py) lies over the visible panel.
// The caller uses this to keep camera input from reacting to panel drags.
func (c *ControlPanel) Contains(px, py float32, cfg *config.Config) bool {
	if !c.visible {
		return false
	}
	x, y := float32(c.x), float32(c.y)
	return px >= x && px < x+float32(c.width) && py >= y && py < y+float32(c.Height(cfg))
}

// Draw renders the panel and applies any edits to cfg.
// Returns true if any value changed.
func (c *ControlPanel) Draw(cfg *config.Config) bool {
	if !c.visible {
		return false
	}

	r := c.renderer
	t := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.Height(cfg))

	x := c.x + t.Padding
	y := c.y + t.Padding
	inner := c.width - t.Padding*2
	changed := false

	for _, d := range c.controls {
		if !d.visible(cfg) {
			continue
		}
		switch d.Type {
		case ControlSection:
			r.DrawSectionHeader(x, y, d.Label)

		case ControlCheckBox:
			rect := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(t.ControlHeight), Height: float32(t.ControlHeight)}
			checked := gui.CheckBox(rect, d.Label, d.Get(cfg) != 0)
			if d.apply(cfg, boolValue(checked)) {
				changed = true
			}

		default:
			lo, hi := d.bounds(cfg)
			r.DrawLabel(x, y, d.Label)
			r.DrawValue(x+inner-t.ValueWidth+10, y, fmt.Sprintf(d.Format, d.Get(cfg)))
			rect := rl.Rectangle{
				X:      float32(x),
				Y:      float32(y + t.LineHeight),
				Width:  float32(inner),
				Height: float32(t.ControlHeight),
			}
			v := gui.SliderBar(rect, "", "", d.Get(cfg), lo, hi)
			if d.edit(cfg, v) {
				changed = true
			}
		}
		y += c.rowHeight(d)
	}

	return changed
}
