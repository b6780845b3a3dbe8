package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/config"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FlockOrder(t *testing.T) {
	bd := NewBookmarkDetector(10)

	assert.Empty(t, bd.Check(WindowStats{WindowEndFrame: 120, Active: 50, Alignment: 0.1}), "disordered flock")

	formed := bd.Check(WindowStats{WindowEndFrame: 240, Active: 50, Alignment: 0.9})
	require.True(t, hasBookmark(formed, BookmarkFlockFormed))
	assert.Equal(t, int64(240), formed[0].Frame)

	// staying ordered does not re-trigger, and mid values keep the state
	assert.False(t, hasBookmark(bd.Check(WindowStats{Active: 50, Alignment: 0.95}), BookmarkFlockFormed), "fired twice")
	assert.False(t, hasBookmark(bd.Check(WindowStats{Active: 50, Alignment: 0.5}), BookmarkFlockDispersed), "inside the hysteresis band")

	assert.True(t, hasBookmark(bd.Check(WindowStats{Active: 50, Alignment: 0.2}), BookmarkFlockDispersed))
}

func TestBookmarkDetector_SingleAgentIgnored(t *testing.T) {
	bd := NewBookmarkDetector(3)
	assert.Empty(t, bd.Check(WindowStats{Active: 1, Alignment: 1}), "a lone agent is trivially aligned")
}

func TestBookmarkDetector_VolumeSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndFrame: int64(i * 120), VolumeMass: 100})
	}

	assert.True(t, hasBookmark(bd.Check(WindowStats{WindowEndFrame: 720, VolumeMass: 350}), BookmarkFieldSpike))
	assert.True(t, hasBookmark(bd.Check(WindowStats{WindowEndFrame: 840, VolumeMass: 1}), BookmarkFieldDrained))
}

func TestBookmarkDetector_NeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{VolumeMass: 1})
	assert.False(t, hasBookmark(bd.Check(WindowStats{VolumeMass: 100}), BookmarkFieldSpike), "spike with too little history")
}

func TestOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	require.Nil(t, om, "empty dir disables output")
	// nil manager is a no-op
	assert.NoError(t, om.WriteTelemetry(WindowStats{}))
	assert.NoError(t, om.Close())

	dir := filepath.Join(t.TempDir(), "run")
	om, err = NewOutputManager(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, om.Dir())

	for i := int64(1); i <= 2; i++ {
		require.NoError(t, om.WriteTelemetry(WindowStats{RunID: "r", WindowEndFrame: i * 10, Active: 5}))
	}
	pc := NewPerfCollector(4)
	pc.StartFrame()
	pc.StartPhase(PhaseUpdate)
	pc.EndFrame()
	require.NoError(t, om.WritePerf(pc.Stats(), 20))
	require.NoError(t, om.WriteBookmark(Bookmark{Type: BookmarkFlockFormed, Frame: 20, Description: "x"}))
	require.NoError(t, om.WriteConfig(config.Defaults()))
	require.NoError(t, om.Close())
	assert.NoError(t, om.Close(), "second close is a no-op")

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "header + 2 rows")
	assert.True(t, strings.HasPrefix(lines[0], "run_id,window_end,"), lines[0])
	assert.Equal(t, 1, strings.Count(string(data), "run_id"), "header written once")

	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if assert.NoError(t, err, name) {
			assert.NotZero(t, info.Size(), "%s is empty", name)
		}
	}
}
