package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/renderer"
)

func TestNewRayImageScale(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		scale    int
		wantW    int
		wantH    int
		wantScal int
	}{
		{"quarter", 1600, 900, 4, 400, 225, 4},
		{"full", 64, 32, 1, 64, 32, 1},
		{"clamped scale", 64, 32, 0, 64, 32, 1},
		{"tiny window", 3, 2, 8, 1, 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.w, tt.h, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, c.RayImage().W)
			assert.Equal(t, tt.wantH, c.RayImage().H)
			assert.Equal(t, tt.wantScal, c.rayScale)
		})
	}
}

func TestUploadsBeforeInitAreNoops(t *testing.T) {
	c, err := New(32, 16, 2)
	require.NoError(t, err)

	img, err := renderer.NewImage(32, 16)
	require.NoError(t, err)

	par := renderer.Parallel(func(n int, fn func(lo, hi int)) {
		t.Fatal("upload ran without textures")
	})
	c.UploadSplat(img, par)
	c.UploadRay(par)
	c.Draw(true)
	c.Unload()
	assert.False(t, c.initialized)
}
