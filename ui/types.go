// Package ui provides a descriptor-driven control panel for the simulation.
// Sliders are defined through metadata that reads and writes the live config,
// so new parameters only need a descriptor entry.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/voxelboids/config"
)

// ControlType specifies how a control is rendered.
type ControlType int

const (
	ControlSlider   ControlType = iota // raygui slider bar
	ControlCheckBox                    // raygui check box
	ControlSection                     // Section header
)

// ControlDescriptor defines one control bound to a config value.
type ControlDescriptor struct {
	ID      string      // Unique identifier
	Label   string      // Display label
	Type    ControlType // How to render
	Format  string      // Printf format for the value readout
	Min     float32
	Max     float32 // negative means the agent capacity
	Integer bool    // round slider output

	Get     func(*config.Config) float32
	Set     func(*config.Config, float32)
	Visible func(*config.Config) bool // nil = always visible
}

func (d ControlDescriptor) visible(cfg *config.Config) bool {
	return d.Visible == nil || d.Visible(cfg)
}

// bounds returns the slider range, resolving a capacity-relative max.
func (d ControlDescriptor) bounds(cfg *config.Config) (float32, float32) {
	if d.Max < 0 {
		return d.Min, float32(cfg.Agents.Capacity)
	}
	return d.Min, d.Max
}

// apply writes v through Set after clamping and optional rounding.
// Reports whether the config changed.
func (d ControlDescriptor) apply(cfg *config.Config, v float32) bool {
	if d.Set == nil || d.Get == nil {
		return false
	}
	lo, hi := d.bounds(cfg)
	v = max(lo, min(hi, v))
	if d.Integer {
		v = float32(int(v + 0.5))
	}
	if v == d.Get(cfg) {
		return false
	}
	d.Set(cfg, v)
	return true
}

// edit applies slider output v only when the widget moved. The slider reports
// the current value clamped to its range, so out-of-range config values are
// left alone until the user drags.
func (d ControlDescriptor) edit(cfg *config.Config, v float32) bool {
	if d.Get == nil {
		return false
	}
	lo, hi := d.bounds(cfg)
	if v == max(lo, min(hi, d.Get(cfg))) {
		return false
	}
	return d.apply(cfg, v)
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	Padding        int32
	LineHeight     int32
	ControlHeight  int32
	ValueWidth     int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		Padding:        10,
		LineHeight:     16,
		ControlHeight:  18,
		ValueWidth:     60,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
