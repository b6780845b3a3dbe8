package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector(window int) (*PerfCollector, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollector(window)
	pc.now = clk.Now
	return pc, clk
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc, clk := newTestCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseDeposit)
		clk.Advance(100 * time.Microsecond)
		pc.StartPhase(PhaseUpdate)
		clk.Advance(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	assert.Equal(t, 300*time.Microsecond, stats.AvgFrame)
	assert.Equal(t, 300*time.Microsecond, stats.MinFrame)
	assert.Equal(t, 300*time.Microsecond, stats.MaxFrame)
	require.Contains(t, stats.PhaseAvg, PhaseDeposit)
	require.Contains(t, stats.PhaseAvg, PhaseUpdate)
	assert.Equal(t, 100*time.Microsecond, stats.PhaseAvg[PhaseDeposit])
	assert.Equal(t, 200*time.Microsecond, stats.PhaseAvg[PhaseUpdate])
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc, clk := newTestCollector(5)

	// ten slow frames, then five fast ones push them all out
	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseDeposit)
		clk.Advance(10 * time.Millisecond)
		pc.EndFrame()
	}
	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseDeposit)
		clk.Advance(time.Millisecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	assert.Equal(t, time.Millisecond, stats.AvgFrame)
	assert.InDelta(t, 1000, stats.FramesPerSecond, 1e-9)
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc, clk := newTestCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase("fast")
		clk.Advance(time.Millisecond)
		pc.StartPhase("slow")
		clk.Advance(3 * time.Millisecond)
		pc.EndFrame()
	}

	stats := pc.Stats()
	assert.InDelta(t, 25, stats.PhasePct["fast"], 1e-9)
	assert.InDelta(t, 75, stats.PhasePct["slow"], 1e-9)
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	assert.Zero(t, stats.AvgFrame)
	assert.NotNil(t, stats.PhaseAvg)
	assert.NotNil(t, stats.PhasePct)
}

func TestPerfCollector_PresentTiming(t *testing.T) {
	pc, clk := newTestCollector(10)

	// first call only establishes the baseline
	pc.RecordPresent()
	assert.Zero(t, pc.Stats().FPS)

	clk.Advance(20 * time.Millisecond)
	pc.RecordPresent()

	stats := pc.Stats()
	assert.Equal(t, 20*time.Millisecond, stats.PresentDuration)
	assert.InDelta(t, 50, stats.FPS, 1e-9)
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgFrame: 2 * time.Millisecond,
		PhasePct: map[string]float64{PhaseDiffuseY: 40, PhaseRender: 10},
	}

	row := s.ToCSV(120)

	assert.Equal(t, int64(120), row.WindowEnd)
	assert.Equal(t, int64(2000), row.AvgFrameUS)
	assert.Equal(t, 40.0, row.DiffuseYPct)
	assert.Equal(t, 10.0, row.RenderPct)
	assert.Zero(t, row.DepositPct, "untimed phase")
}
