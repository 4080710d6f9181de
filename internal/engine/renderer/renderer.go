// Package renderer draws a scene graph into the current window each frame.
package renderer

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/camera"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/lighting"
	"github.com/Faultbox/scenegraph/internal/engine/scene"
	"github.com/Faultbox/scenegraph/internal/engine/shader"
	"github.com/Faultbox/scenegraph/internal/engine/texture"
	"github.com/Faultbox/scenegraph/internal/logger"
)

// Surface is implemented by devices that own a framebuffer.
type Surface interface {
	Clear()
	Viewport(width, height int)
}

// PixelReader is implemented by devices that can read the framebuffer back.
type PixelReader interface {
	ReadPixels(width, height int) []byte
}

// ErrNoReadback is returned when the device cannot read the framebuffer.
var ErrNoReadback = errors.New("device cannot read pixels")

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer handles frame setup and hands the scene to its nodes.
type Renderer struct {
	ctx      *gpu.Thread
	material shader.Material
	camera   *camera.OrbitCamera

	// DefaultTexture is bound by meshes without their own texture.
	DefaultTexture texture.Texture
	Light          lighting.Light

	width, height int
	resized       bool
	frames        atomic.Uint64
}

// New creates a renderer drawing with material on ctx.
func New(ctx *gpu.Thread, material shader.Material, cam *camera.OrbitCamera, cfg Config) *Renderer {
	if cam == nil {
		cam = camera.NewOrbitCamera()
	}
	r := &Renderer{
		ctx:            ctx,
		material:       material,
		camera:         cam,
		DefaultTexture: texture.Empty,
		Light:          lighting.Default(),
		width:          cfg.Width,
		height:         cfg.Height,
		resized:        true,
	}
	logger.Named("renderer").Info("renderer initialized",
		zap.Uint64("context", ctx.ID()),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)
	return r
}

// Camera returns the camera the renderer views through.
func (r *Renderer) Camera() *camera.OrbitCamera {
	return r.camera
}

// Resize updates the viewport on the next frame.
func (r *Renderer) Resize(width, height int) {
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.resized = true
	logger.Named("renderer").Debug("viewport resized", zap.Int("width", width), zap.Int("height", height))
}

// Frames returns the number of frames drawn.
func (r *Renderer) Frames() uint64 {
	return r.frames.Load()
}

// Draw renders root with the context current. Queued releases from other
// goroutines run before and after the scene.
func (r *Renderer) Draw(root scene.Node) {
	r.ctx.Run(func(d gpu.Device) {
		if s, ok := d.(Surface); ok {
			if r.resized {
				s.Viewport(r.width, r.height)
				r.resized = false
			}
			s.Clear()
		}
		if root == nil {
			return
		}

		if err := r.Light.Apply(r.material); err != nil {
			logger.Named("renderer").Debug("light not applied", zap.Error(err))
		}
		f := scene.NewFrame(r.ctx, r.material)
		f.Projection = r.camera.ProjectionMatrix(r.width, r.height)
		f.View = r.camera.ViewMatrix()
		f.DefaultTexture = r.DefaultTexture
		root.Render(f, nil)
	})
	r.frames.Add(1)
}

// ReadPixels returns the last drawn frame as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int, err error) {
	width, height = r.width, r.height
	r.ctx.Run(func(d gpu.Device) {
		pr, ok := d.(PixelReader)
		if !ok {
			err = ErrNoReadback
			return
		}
		pixels = pr.ReadPixels(width, height)
	})
	return pixels, width, height, err
}
