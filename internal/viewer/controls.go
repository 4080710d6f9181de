package viewer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/camera"
	"github.com/Faultbox/scenegraph/internal/engine/debug"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/input"
	"github.com/Faultbox/scenegraph/internal/engine/lighting"
	"github.com/Faultbox/scenegraph/internal/engine/picking"
	"github.com/Faultbox/scenegraph/internal/engine/renderer"
	"github.com/Faultbox/scenegraph/internal/engine/scene"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// Controls applies input to the scene and camera.
type Controls struct {
	// Context is made current while reading uploaded geometry back.
	Context  *gpu.Thread
	Root     *scene.Model
	Animated *scene.AnimatedModel
	Camera   *camera.OrbitCamera
	Light    *lighting.Light

	// Renderer and Shots enable screenshots when both are set.
	Renderer *renderer.Renderer
	Shots    *debug.ScreenshotCapture

	// Width and Height are the window size in the units of click events.
	Width, Height int

	wireframe bool
	box       *scene.MeshComponent
	picked    scene.Node
}

// Apply runs one action and reports whether the viewer should quit.
func (c *Controls) Apply(a input.Action) bool {
	log := logger.Named("viewer")
	switch a {
	case input.ActionQuit:
		return true
	case input.ActionNextFrame:
		c.Animated.GoToNextFrame()
	case input.ActionPreviousFrame:
		c.Animated.GoToPreviousFrame()
	case input.ActionRestart:
		c.Animated.Restart()
	case input.ActionToggleInterpolation:
		c.Animated.SetInterpolate(!c.Animated.Interpolate())
		log.Info("interpolation toggled", zap.Bool("enabled", c.Animated.Interpolate()))
	case input.ActionToggleWireframe:
		c.wireframe = !c.wireframe
		c.Root.SetWireframe(c.wireframe)
		if c.box != nil {
			c.box.SetWireframe(true)
		}
	case input.ActionTogglePause:
		clock := c.Animated.Clock()
		if clock.Paused() {
			clock.Resume()
		} else {
			clock.Pause()
		}
		log.Info("animation paused", zap.Bool("paused", clock.Paused()))
	case input.ActionFitCamera:
		if b, ok := c.bounds(); ok {
			c.Camera.FitToBounds(b)
		}
	case input.ActionToggleLighting:
		if c.Light != nil {
			c.Light.Enabled = !c.Light.Enabled
		}
	case input.ActionToggleBounds:
		c.toggleBounds()
	case input.ActionScreenshot:
		c.screenshot()
	}
	return false
}

// Handle applies camera events from one frame of input.
func (c *Controls) Handle(e input.Event) {
	switch e.Type {
	case input.EventDrag:
		c.Camera.HandleDrag(e.DX, e.DY)
	case input.EventZoom:
		c.Camera.HandleZoom(e.DY)
	case input.EventWindowResize:
		c.Width, c.Height = e.Width, e.Height
	case input.EventClick:
		c.pick(e.X, e.Y)
	}
}

// Picked returns the node selected by the last click, or nil.
func (c *Controls) Picked() scene.Node {
	return c.picked
}

func (c *Controls) pick(x, y float32) {
	if c.Width <= 0 || c.Height <= 0 {
		return
	}
	viewProj := c.Camera.ProjectionMatrix(c.Width, c.Height).Mul4(c.Camera.ViewMatrix())
	ray := picking.ScreenToRay(x, y, float32(c.Width), float32(c.Height), viewProj)

	var (
		hit  scene.Node
		dist float32
		err  error
	)
	c.Context.Run(func(gpu.Device) { hit, dist, err = picking.Pick(c.Root, ray) })
	if err != nil {
		logger.Named("viewer").Warn("pick failed", zap.Error(err))
		return
	}
	c.picked = hit
	if hit != nil {
		logger.Named("viewer").Info("picked",
			zap.String("node", hit.Name()),
			zap.Float32("distance", dist),
			zap.Int("vertices", hit.Vertices()),
		)
	}
}

// Close drops the bounds box if it is shown.
func (c *Controls) Close() {
	if c.box != nil {
		c.box.Dispose()
		c.box = nil
	}
}

// bounds returns the union of the root's children other than the bounds box.
func (c *Controls) bounds() (mesh.Bounds, bool) {
	b := mesh.EmptyBounds()
	var err error
	c.Context.Run(func(gpu.Device) {
		for _, n := range c.Root.Children() {
			if n == scene.Node(c.box) || n.Vertices() == 0 {
				continue
			}
			nb, e := n.Bounds()
			if e != nil {
				err = e
				return
			}
			b = b.Union(nb)
		}
	})
	if err != nil {
		logger.Named("viewer").Warn("cannot compute scene bounds", zap.Error(err))
		return mesh.Bounds{}, false
	}
	return b, !b.IsEmpty()
}

func (c *Controls) toggleBounds() {
	if c.box != nil {
		c.Root.Remove(c.box)
		c.Close()
		return
	}
	b, ok := c.bounds()
	if !ok {
		return
	}
	box, err := debug.BoundsBox("bounds", b, debug.DefaultBoundsPadding)
	if err != nil {
		logger.Named("viewer").Warn("cannot build bounds box", zap.Error(err))
		return
	}
	if err := c.Root.Add(box); err != nil {
		box.Dispose()
		logger.Named("viewer").Warn("cannot show bounds box", zap.Error(err))
		return
	}
	c.box = box
}

func (c *Controls) screenshot() {
	if c.Renderer == nil || c.Shots == nil {
		return
	}
	log := logger.Named("viewer")
	pixels, w, h, err := c.Renderer.ReadPixels()
	if err != nil {
		log.Warn("screenshot failed", zap.Error(err))
		return
	}
	path, err := c.Shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		log.Warn("screenshot failed", zap.Error(err))
		return
	}
	log.Info("screenshot saved", zap.String("path", path))
}
