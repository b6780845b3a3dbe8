// Package compositor presents the pipeline's output image, or a ray-marched
// view of the published volume, as a full-screen raylib texture.
package compositor

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/voxelboids/renderer"
)

// surface is one CPU image and its GPU texture.
type surface struct {
	tex    rl.Texture2D
	pixels []color.RGBA
	w, h   int
}

func (s *surface) init(w, h int) {
	s.w, s.h = w, h
	img := rl.GenImageColor(w, h, rl.Black)
	s.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(s.tex, rl.FilterBilinear)
	s.pixels = make([]color.RGBA, w*h)
}

func (s *surface) upload(img *renderer.Image, par renderer.Parallel) {
	par(img.Pixels(), func(lo, hi int) {
		img.ToRGBA8Range(s.pixels, lo, hi)
	})
	rl.UpdateTexture(s.tex, s.pixels)
}

func (s *surface) draw(screenW, screenH float32) {
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(s.w), Height: float32(s.h)}
	dst := rl.Rectangle{X: 0, Y: 0, Width: screenW, Height: screenH}
	rl.DrawTexturePro(s.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Compositor owns the display textures. Init must run after the raylib
// window exists; everything else must run on the window's thread.
type Compositor struct {
	screenW, screenH int
	rayScale         int

	splat surface
	ray   surface

	// ray-march target, 1/rayScale of the screen
	rayImage *renderer.Image

	initialized bool
}

// New creates a compositor for a screenW x screenH window. The ray-traced
// view renders at 1/rayScale resolution and is upscaled when drawn.
func New(screenW, screenH, rayScale int) (*Compositor, error) {
	if rayScale < 1 {
		rayScale = 1
	}
	rw, rh := max(screenW/rayScale, 1), max(screenH/rayScale, 1)
	img, err := renderer.NewImage(rw, rh)
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	return &Compositor{
		screenW:  screenW,
		screenH:  screenH,
		rayScale: rayScale,
		rayImage: img,
	}, nil
}

// Init allocates the GPU textures.
func (c *Compositor) Init() {
	if c.initialized {
		return
	}
	c.splat.init(c.screenW, c.screenH)
	c.ray.init(c.rayImage.W, c.rayImage.H)
	c.initialized = true
}

// RayImage returns the ray-march target for the current frame.
func (c *Compositor) RayImage() *renderer.Image { return c.rayImage }

// UploadSplat tone-maps the pipeline's output image into the splat texture.
func (c *Compositor) UploadSplat(img *renderer.Image, par renderer.Parallel) {
	if !c.initialized || img.W != c.splat.w || img.H != c.splat.h {
		return
	}
	c.splat.upload(img, par)
}

// UploadRay tone-maps RayImage into the ray texture.
func (c *Compositor) UploadRay(par renderer.Parallel) {
	if !c.initialized {
		return
	}
	c.ray.upload(c.rayImage, par)
}

// Draw blits the selected texture over the whole window.
func (c *Compositor) Draw(rayTrace bool) {
	if !c.initialized {
		return
	}
	w, h := float32(c.screenW), float32(c.screenH)
	if rayTrace {
		c.ray.draw(w, h)
		return
	}
	c.splat.draw(w, h)
}

// Unload frees resources.
func (c *Compositor) Unload() {
	if c.initialized {
		rl.UnloadTexture(c.splat.tex)
		rl.UnloadTexture(c.ray.tex)
		c.initialized = false
	}
}
