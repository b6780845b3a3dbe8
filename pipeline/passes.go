package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/voxelboids/field"
	"github.com/pthm-cable/voxelboids/telemetry"
)

// Agent buffer slots in Buffers order, shared by every per-agent pass.
var (
	agentRead = []Slot{
		{RolePosX, KindAgentBuffer, Read}, {RolePosY, KindAgentBuffer, Read}, {RolePosZ, KindAgentBuffer, Read},
		{RoleVelX, KindAgentBuffer, Read}, {RoleVelY, KindAgentBuffer, Read}, {RoleVelZ, KindAgentBuffer, Read},
	}
	agentWrite = []Slot{
		{RolePosX, KindAgentBuffer, ReadWrite}, {RolePosY, KindAgentBuffer, ReadWrite}, {RolePosZ, KindAgentBuffer, ReadWrite},
		{RoleVelX, KindAgentBuffer, ReadWrite}, {RoleVelY, KindAgentBuffer, ReadWrite}, {RoleVelZ, KindAgentBuffer, ReadWrite},
	}
)

func slots(groups ...[]Slot) []Slot {
	var out []Slot
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultPasses returns the per-frame pass list in declaration order.
// Pass names double as perf phase names.
func DefaultPasses() []Pass {
	return []Pass{
		clearPass(),
		decayPass(),
		depositPass(),
		diffusePass(telemetry.PhaseDiffuseX, field.AxisX, telemetry.PhaseDeposit),
		diffusePass(telemetry.PhaseDiffuseY, field.AxisY, telemetry.PhaseDiffuseX),
		diffusePass(telemetry.PhaseDiffuseZ, field.AxisZ, telemetry.PhaseDiffuseY),
		updatePass(),
		renderPass(),
	}
}

// clearPass empties the current diffusion grid ahead of deposition.
func clearPass() Pass {
	return Pass{
		Name:   telemetry.PhaseClear,
		Slots:  []Slot{{RoleFieldCurrent, KindGrid, Write}},
		Sim:    true,
		Domain: func(f *Frame) int { return f.voxels },
		Kernel: func(f *Frame, b []Binding, lo, hi, _ int) {
			b[0].Grid.ClearRange(lo, hi)
		},
	}
}

// decayPass ages the published volume into the back buffer.
func decayPass() Pass {
	return Pass{
		Name: telemetry.PhaseDecay,
		Slots: []Slot{
			{RoleVolumeFront, KindGrid, Read},
			{RoleVolumeBack, KindGrid, Write},
		},
		Sim:    true,
		Domain: func(f *Frame) int { return f.voxels },
		Kernel: func(f *Frame, b []Binding, lo, hi, _ int) {
			field.DecayRange(b[1].Grid, b[0].Grid, f.decay, lo, hi)
		},
	}
}

// depositPass scatters active agents into the diffusion grid and the volume.
func depositPass() Pass {
	return Pass{
		Name: telemetry.PhaseDeposit,
		Slots: slots(agentRead, []Slot{
			{RoleFieldCurrent, KindGrid, ReadWrite},
			{RoleVolumeBack, KindGrid, ReadWrite},
		}),
		After:  []string{telemetry.PhaseClear, telemetry.PhaseDecay},
		Sim:    true,
		Domain: func(f *Frame) int { return f.Active },
		Kernel: func(f *Frame, b []Binding, lo, hi, _ int) {
			f.depositor.Range(b[0].Buf, b[1].Buf, b[2].Buf, b[3].Buf, b[4].Buf, b[5].Buf, lo, hi, b[6].Grid, b[7].Grid)
		},
	}
}

// diffusePass smooths the field along one axis, current into next.
func diffusePass(name string, axis field.Axis, after string) Pass {
	return Pass{
		Name: name,
		Slots: []Slot{
			{RoleFieldCurrent, KindGrid, Read},
			{RoleFieldNext, KindGrid, Write},
		},
		After:  []string{after},
		Sim:    true,
		Domain: func(f *Frame) int { return f.voxels },
		Kernel: func(f *Frame, b []Binding, lo, hi, _ int) {
			field.DiffuseRange(b[1].Grid, b[0].Grid, axis, f.kernel, f.edge, lo, hi)
		},
	}
}

// updatePass steers and integrates active agents against the diffused field.
func updatePass() Pass {
	return Pass{
		Name:   telemetry.PhaseUpdate,
		Slots:  slots(agentWrite, []Slot{{RoleFieldCurrent, KindGrid, Read}}),
		After:  []string{telemetry.PhaseDiffuseZ},
		Sim:    true,
		Domain: func(f *Frame) int { return f.Active },
		Kernel: func(f *Frame, b []Binding, lo, hi, _ int) {
			updateRange(&f.flock, b[6].Grid, b[0].Buf, b[1].Buf, b[2].Buf, b[3].Buf, b[4].Buf, b[5].Buf, lo, hi)
		},
	}
}

// renderPass clears the image and splats active agents into it.
// It runs while paused so the view stays interactive.
func renderPass() Pass {
	return Pass{
		Name: telemetry.PhaseRender,
		Slots: []Slot{
			{RolePosX, KindAgentBuffer, Read},
			{RolePosY, KindAgentBuffer, Read},
			{RolePosZ, KindAgentBuffer, Read},
			{RoleImage, KindImage, Write},
			{RoleVelX, KindAgentBuffer, Read},
			{RoleVelY, KindAgentBuffer, Read},
			{RoleVelZ, KindAgentBuffer, Read},
		},
		After: []string{telemetry.PhaseUpdate},
		Before: func(f *Frame, b []Binding) {
			b[3].Image.Clear()
		},
		Domain: func(f *Frame) int { return f.Active },
		Kernel: func(f *Frame, b []Binding, lo, hi, _ int) {
			x, y, z := b[0].Buf, b[1].Buf, b[2].Buf
			vx, vy, vz := b[4].Buf, b[5].Buf, b[6].Buf
			img := b[3].Image
			for i := lo; i < hi; i++ {
				f.projector.Splat(img, mgl32.Vec3{x[i], y[i], z[i]}, mgl32.Vec3{vx[i], vy[i], vz[i]})
			}
		},
	}
}
