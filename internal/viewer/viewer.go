// Package viewer runs the interactive scene viewer: window, input and the
// render loop around a demo scene graph.
package viewer

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/camera"
	"github.com/Faultbox/scenegraph/internal/engine/debug"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/input"
	"github.com/Faultbox/scenegraph/internal/engine/renderer"
	"github.com/Faultbox/scenegraph/internal/engine/shader"
	"github.com/Faultbox/scenegraph/internal/engine/texture"
	"github.com/Faultbox/scenegraph/internal/engine/window"
	"github.com/Faultbox/scenegraph/internal/logger"
)

// Viewer is the main viewer instance.
type Viewer struct {
	config   *config.Config
	window   *window.Window
	material *shader.Program
	renderer *renderer.Renderer
	input    *input.Input
	demo     *Demo
	controls *Controls
	stopLeak func()
}

// New opens the window and builds the demo scene.
func New(cfg *config.Config) (*Viewer, error) {
	log := logger.Named("viewer")
	log.Info("initializing viewer",
		zap.String("title", cfg.Graphics.Title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	v := &Viewer{config: cfg, input: input.New()}
	v.stopLeak = gpu.OnLeak(func(ev gpu.LeakEvent) {
		logger.Named("gpu").Warn("resource leaked",
			zap.Stringer("kind", ev.Kind),
			zap.Uint32("handle", ev.Handle),
			zap.Stringer("phase", ev.Phase),
			zap.Error(ev.Err),
		)
	})

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Graphics.Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		v.stopLeak()
		return nil, errors.Wrap(err, "failed to create window")
	}

	var tex texture.Texture
	if cfg.Scene.Texture != "" {
		t, err := texture.Load(cfg.Scene.Texture)
		if err != nil {
			log.Warn("floor texture unavailable", zap.String("path", cfg.Scene.Texture), zap.Error(err))
		} else {
			tex = t
		}
	}

	v.demo, err = BuildDemo(cfg, tex)
	if err != nil {
		v.window.Close()
		v.stopLeak()
		return nil, errors.Wrap(err, "failed to build scene")
	}

	ctx := v.window.Context()
	width, height := v.window.DrawableSize()
	v.material = shader.NewMeshProgram()
	v.renderer = renderer.New(ctx, v.material, camera.NewOrbitCamera(), renderer.Config{
		Width:  width,
		Height: height,
	})
	v.controls = &Controls{
		Context:  ctx,
		Root:     v.demo.Root,
		Animated: v.demo.Wave,
		Camera:   v.renderer.Camera(),
		Light:    &v.renderer.Light,
		Renderer: v.renderer,
		Shots:    debug.NewScreenshotCapture("screenshots", "scene"),
	}
	v.controls.Width, v.controls.Height = v.window.GetSize()
	v.controls.Apply(input.ActionFitCamera)

	log.Info("viewer initialized",
		zap.Int("vertices", v.demo.Root.Vertices()),
		zap.Int("triangles", v.demo.Root.Triangles()),
		zap.Int("frames", v.demo.Wave.Len()),
	)
	return v, nil
}

// Run starts the render loop and returns when the window closes.
func (v *Viewer) Run() error {
	log := logger.Named("viewer")
	log.Info("starting render loop")

	frameCount := 0
	fpsTimer := time.Now()

	for {
		if v.input.Update() {
			return nil
		}
		for _, e := range v.input.Events() {
			if e.Type == input.EventWindowResize {
				v.renderer.Resize(v.window.DrawableSize())
			}
			v.controls.Handle(e)
		}
		for _, a := range v.input.Actions() {
			if v.controls.Apply(a) {
				return nil
			}
		}

		v.renderer.Draw(v.demo.Root)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("frame", v.demo.Wave.CurrentFrame()),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

// Close disposes the scene, reclaims its GPU objects and closes the window.
func (v *Viewer) Close() {
	logger.Named("viewer").Info("closing viewer", zap.Uint64("frames", v.renderer.Frames()))

	ctx := v.window.Context()
	v.controls.Close()
	v.demo.Root.Dispose()
	v.material.Delete(ctx)
	if n := ctx.Sweep(); n > 0 {
		logger.Named("viewer").Debug("released GPU objects", zap.Int("actions", n))
	}
	v.window.Close()
	v.stopLeak()
}
