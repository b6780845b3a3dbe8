// Package pipeline runs the per-frame sequence of data-parallel passes over
// the agent store and the voxel grids.
//
// Every pass declares the resources it binds as an ordered list of slots and
// the passes it must follow. The orchestrator checks both at construction,
// resolves the ping-pong and volume selectors each time a pass runs, and
// dispatches the pass over the worker pool. Dispatch returns only when all
// chunks are done, which is the barrier on every dependency edge.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/voxelboids/agents"
	"github.com/pthm-cable/voxelboids/config"
	"github.com/pthm-cable/voxelboids/field"
	"github.com/pthm-cable/voxelboids/renderer"
	"github.com/pthm-cable/voxelboids/telemetry"
)

// Resources is the storage the pipeline binds passes to.
type Resources struct {
	Agents                  *agents.Store
	FieldA, FieldB          *field.Grid
	VolumeFront, VolumeBack *field.Grid
	Image                   *renderer.Image
}

// provides reports whether storage for role is present.
func (r *Resources) provides(role Role) bool {
	switch role {
	case RolePosX, RolePosY, RolePosZ, RoleVelX, RoleVelY, RoleVelZ:
		return r.Agents != nil
	case RoleFieldCurrent, RoleFieldNext:
		return r.FieldA != nil && r.FieldB != nil
	case RoleVolumeFront, RoleVolumeBack:
		return r.VolumeFront != nil && r.VolumeBack != nil
	case RoleImage:
		return r.Image != nil
	}
	return false
}

// NewResources allocates the agent store, four grids, and the render image
// sized from cfg, after checking the host can hold them.
func NewResources(cfg *config.Config) (Resources, error) {
	w, h, d := cfg.World.Width, cfg.World.Height, cfg.World.Depth
	need := 4*field.GridBytes(w, h, d) +
		uint64(cfg.Agents.Capacity)*6*4 +
		uint64(cfg.Screen.Width)*uint64(cfg.Screen.Height)*16
	if err := field.CheckMemory(need); err != nil {
		return Resources{}, err
	}

	var res Resources
	var err error
	if res.Agents, err = agents.New(cfg.Agents.Capacity); err != nil {
		return Resources{}, err
	}
	for _, g := range []struct {
		name string
		dst  **field.Grid
	}{
		{"field_a", &res.FieldA},
		{"field_b", &res.FieldB},
		{"volume_0", &res.VolumeFront},
		{"volume_1", &res.VolumeBack},
	} {
		if *g.dst, err = field.NewGrid(g.name, w, h, d); err != nil {
			return Resources{}, err
		}
	}
	if res.Image, err = renderer.NewImage(cfg.Screen.Width, cfg.Screen.Height); err != nil {
		return Resources{}, err
	}

	slog.Info("resources allocated",
		"world", fmt.Sprintf("%dx%dx%d", w, h, d),
		"grid_mib", field.GridBytes(w, h, d)>>20,
		"capacity", cfg.Agents.Capacity,
		"image", fmt.Sprintf("%dx%d", cfg.Screen.Width, cfg.Screen.Height),
	)
	return res, nil
}

// FrameInput is the per-frame notification from the host.
type FrameInput struct {
	Elapsed      time.Duration
	Paused       bool
	RayTrace     bool
	TargetActive int // < 0 keeps the current active count
	View, Proj   mgl32.Mat4
}

// Frame is the read-only state shared by every pass of one frame.
type Frame struct {
	Index   int64
	Active  int
	Elapsed time.Duration
	Input   FrameInput
	Config  config.Config

	voxels    int
	decay     float32
	kernel    field.Kernel
	edge      field.Edge
	depositor field.Depositor
	flock     flockParams
	projector renderer.Projector
}

// Step is one scheduled pass with its contract, as reported by Plan.
type Step struct {
	Name     string
	Bindings []Slot
	Sim      bool
	Flips    bool
}

// Pipeline owns the pass schedule and all simulation storage.
type Pipeline struct {
	cfg    *config.Config
	res    Resources
	passes []Pass
	order  []int
	pool   *Pool
	perf   *telemetry.PerfCollector

	pp *field.PingPong

	// volume double buffer; vol[front] is published
	volMu sync.RWMutex
	vol   [2]*field.Grid
	front int

	kernel       field.Kernel
	kernelRadius int

	frames  int64
	simTime time.Duration
}

// New validates the default passes against res and builds the schedule.
// cfg is the live configuration; it is snapshotted at the start of every frame.
func New(res Resources, cfg *config.Config) (*Pipeline, error) {
	return newPipeline(res, cfg, DefaultPasses())
}

func newPipeline(res Resources, cfg *config.Config, passes []Pass) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: nil config")
	}
	for i := range passes {
		if err := checkBindings(&passes[i], &res); err != nil {
			return nil, err
		}
	}
	order, err := schedule(passes)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		res:    res,
		passes: passes,
		order:  order,
		pool:   NewPool(cfg.Pipeline.Workers, cfg.Pipeline.ParallelThreshold),
	}

	if res.FieldA != nil || res.FieldB != nil {
		if p.pp, err = field.NewPingPong(res.FieldA, res.FieldB); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}
	if res.VolumeFront != nil || res.VolumeBack != nil {
		if res.VolumeFront == nil || res.VolumeBack == nil || res.VolumeFront == res.VolumeBack || !res.VolumeFront.SameShape(res.VolumeBack) {
			return nil, fmt.Errorf("pipeline: volume needs two distinct same-shaped grids")
		}
		p.vol = [2]*field.Grid{res.VolumeFront, res.VolumeBack}
	}
	if p.pp != nil && p.vol[0] != nil && !p.pp.A().SameShape(p.vol[0]) {
		return nil, fmt.Errorf("pipeline: field and volume grids differ in shape")
	}
	if err := p.setKernel(cfg.Field.KernelRadius); err != nil {
		return nil, err
	}

	for k, i := range p.order {
		pass := &p.passes[i]
		slog.Debug("pass scheduled", "order", k, "contract", describe(pass), "sim", pass.Sim, "flips", pass.writes(RoleFieldNext))
	}
	return p, nil
}

func (p *Pipeline) setKernel(radius int) error {
	k, err := field.NewKernel(radius)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	p.kernel, p.kernelRadius = k, radius
	return nil
}

// SetPerf attaches a perf collector timing each pass. nil disables timing.
func (p *Pipeline) SetPerf(pc *telemetry.PerfCollector) { p.perf = pc }

// Plan returns the schedule in issue order.
func (p *Pipeline) Plan() []Step {
	steps := make([]Step, len(p.order))
	for k, i := range p.order {
		pass := &p.passes[i]
		steps[k] = Step{
			Name:     pass.Name,
			Bindings: append([]Slot(nil), pass.Slots...),
			Sim:      pass.Sim,
			Flips:    pass.writes(RoleFieldNext),
		}
	}
	return steps
}

// Frame runs one frame. Cancellation is honoured only before the first pass;
// once started, every pass runs to completion. An invalid configuration
// snapshot aborts the frame before any pass runs.
func (p *Pipeline) Frame(ctx context.Context, in FrameInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := p.begin(in)
	if err != nil {
		return err
	}

	if p.perf != nil {
		p.perf.StartFrame()
	}
	for _, i := range p.order {
		pass := &p.passes[i]
		if in.Paused && pass.Sim {
			continue
		}
		if p.perf != nil {
			p.perf.StartPhase(pass.Name)
		}
		b := p.bind(pass)
		if pass.Before != nil {
			pass.Before(f, b)
		}
		p.pool.Dispatch(pass.Domain(f), func(lo, hi, worker int) {
			pass.Kernel(f, b, lo, hi, worker)
		})
		if p.pp != nil && pass.writes(RoleFieldNext) {
			p.pp.Flip()
		}
	}
	if !in.Paused {
		if p.perf != nil {
			p.perf.StartPhase(telemetry.PhasePublish)
		}
		p.publish()
		p.simTime += in.Elapsed
	}
	if p.perf != nil {
		p.perf.EndFrame()
	}
	p.frames++
	return nil
}

// begin latches the active count and snapshots configuration for one frame.
func (p *Pipeline) begin(in FrameInput) (*Frame, error) {
	snap := *p.cfg
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: frame %d: %w", p.frames, err)
	}
	snap.Refresh()

	if snap.Field.KernelRadius != p.kernelRadius {
		if err := p.setKernel(snap.Field.KernelRadius); err != nil {
			return nil, err
		}
	}
	edge, err := field.ParseEdge(snap.Field.Edge)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	active := 0
	if st := p.res.Agents; st != nil {
		if in.TargetActive >= 0 {
			st.SetActive(in.TargetActive)
		}
		active = st.Active()
	}

	d := snap.Derived
	v := snap.View
	f := &Frame{
		Index:   p.frames,
		Active:  active,
		Elapsed: in.Elapsed,
		Input:   in,
		Config:  snap,
		decay:   d.EffectiveDecay,
		kernel:  p.kernel,
		edge:    edge,
		depositor: field.Depositor{
			WorldW:    d.WorldW32,
			WorldH:    d.WorldH32,
			WorldD:    d.WorldD32,
			Weight:    float32(snap.Field.DepositWeight),
			Direction: d.Direction,
		},
		flock: newFlockParams(&snap),
		projector: renderer.NewProjector(in.View, in.Proj, d.WorldW32, d.WorldH32, d.WorldD32, renderer.SplatParams{
			SampleWeight:    float32(v.SampleWeight),
			DofSize:         float32(v.DofSize),
			DofDistribution: float32(v.DofDistribution),
			DofDistance:     float32(v.DofDistance),
			DofDepth:        float32(v.DofDepth),
		}),
	}
	if p.pp != nil {
		f.voxels = p.pp.A().Voxels()
	} else if p.vol[0] != nil {
		f.voxels = p.vol[0].Voxels()
	}
	return f, nil
}

// bind resolves a pass's slots, in declaration order, against current selectors.
func (p *Pipeline) bind(pass *Pass) []Binding {
	var bufs [6][]float32
	if p.res.Agents != nil {
		bufs = p.res.Agents.Buffers()
	}
	out := make([]Binding, len(pass.Slots))
	for i, s := range pass.Slots {
		out[i].Slot = s
		switch s.Role {
		case RolePosX, RolePosY, RolePosZ, RoleVelX, RoleVelY, RoleVelZ:
			out[i].Buf = bufs[s.Role-RolePosX]
		case RoleFieldCurrent:
			out[i].Grid = p.pp.Current()
		case RoleFieldNext:
			out[i].Grid = p.pp.Next()
		case RoleVolumeFront:
			out[i].Grid = p.vol[p.front]
		case RoleVolumeBack:
			out[i].Grid = p.vol[1-p.front]
		case RoleImage:
			out[i].Image = p.res.Image
		}
	}
	return out
}

// publish makes the volume built this frame visible to readers.
func (p *Pipeline) publish() {
	if p.vol[0] == nil {
		return
	}
	p.volMu.Lock()
	p.front = 1 - p.front
	p.volMu.Unlock()
}

// WithVolume calls fn with the volume as of the end of the last completed
// frame. fn must not retain the grid. Safe to call from any goroutine.
func (p *Pipeline) WithVolume(fn func(g *field.Grid)) {
	p.volMu.RLock()
	defer p.volMu.RUnlock()
	if g := p.vol[p.front]; g != nil {
		fn(g)
	}
}

// Field returns the diffusion grid the update pass last read.
func (p *Pipeline) Field() *field.Grid {
	if p.pp == nil {
		return nil
	}
	return p.pp.Current()
}

// Image returns the render target filled by the last frame.
func (p *Pipeline) Image() *renderer.Image { return p.res.Image }

// Agents returns the agent store. Callers must not mutate it during Frame.
func (p *Pipeline) Agents() *agents.Store { return p.res.Agents }

// Parallel exposes the worker pool to collaborators running between frames.
func (p *Pipeline) Parallel() renderer.Parallel { return p.pool.Range }

// Frames returns the number of completed frames.
func (p *Pipeline) Frames() int64 { return p.frames }

// SimTime returns the elapsed time summed over unpaused frames.
func (p *Pipeline) SimTime() time.Duration { return p.simTime }

// Close stops the worker pool.
func (p *Pipeline) Close() {
	p.pool.Stop()
}
