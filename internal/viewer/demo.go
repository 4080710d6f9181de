package viewer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/config"
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/scene"
	"github.com/Faultbox/scenegraph/internal/engine/texture"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

const (
	demoFrames   = 24
	gridCells    = 16
	gridSize     = 4
	waveHeight   = 0.25
	ringSegments = 12
)

// Demo is the scene shown at startup: a textured floor polygon and a
// rippling grid whose frames are combined with a pulsing ring.
type Demo struct {
	Root  *scene.Model
	Floor *scene.MeshComponent
	Wave  *scene.AnimatedModel
}

// meshOptions maps scene settings onto mesh construction options.
func meshOptions(cfg config.SceneConfig) ([]scene.MeshOption, error) {
	usage, err := gpu.ParseUsage(cfg.UsageHint)
	if err != nil {
		return nil, err
	}
	return []scene.MeshOption{
		scene.WithKeepCopy(cfg.KeepCopyInMemory),
		scene.WithUsage(usage),
		scene.WithOptimize(cfg.OptimizeDuplicates),
	}, nil
}

// BuildDemo assembles the startup scene. The floor takes ownership of tex,
// which may be nil.
func BuildDemo(cfg *config.Config, tex texture.Texture) (*Demo, error) {
	opts, err := meshOptions(cfg.Scene)
	if err != nil {
		return nil, err
	}

	floor, err := scene.NewMeshComponent(tex, hexagon(gridSize), nil, append(opts, scene.WithName("floor"))...)
	if err != nil {
		return nil, errors.Wrap(err, "build floor")
	}
	floor.SetLocation(mgl32.Vec3{0, -waveHeight * 2, 0})

	wave, err := buildWave(cfg, opts)
	if err != nil {
		floor.Dispose()
		return nil, err
	}
	pulse, err := buildPulse(cfg, opts)
	if err != nil {
		floor.Dispose()
		wave.Dispose()
		return nil, err
	}
	err = wave.CombineWith(pulse)
	pulse.Dispose()
	if err != nil {
		floor.Dispose()
		wave.Dispose()
		return nil, errors.Wrap(err, "combine wave and pulse")
	}

	root := scene.NewModel("demo")
	for _, n := range []scene.Node{floor, wave} {
		if err := root.Add(n); err != nil {
			root.Dispose()
			return nil, err
		}
	}
	return &Demo{Root: root, Floor: floor, Wave: wave}, nil
}

// hexagon returns a flat hexagon on the XZ plane as a polygon outline.
func hexagon(radius float32) []mesh.Vertex {
	positions := make([]mgl32.Vec3, 6)
	uvs := make([]mgl32.Vec2, 6)
	normals := make([]mgl32.Vec3, 6)
	for i := range positions {
		s, c := math.Sincos(float64(i) * math.Pi / 3)
		positions[i] = mgl32.Vec3{radius * float32(c), 0, -radius * float32(s)}
		uvs[i] = mgl32.Vec2{0.5 + 0.5*float32(c), 0.5 + 0.5*float32(s)}
		normals[i] = mgl32.Vec3{0, 1, 0}
	}
	return mesh.FromAttributes(positions, uvs, normals)
}

// grid returns an n by n cell grid of the given size centered on the origin.
func grid(n int, size float32) ([]mesh.Vertex, mesh.Indices) {
	side := n + 1
	positions := make([]mgl32.Vec3, 0, side*side)
	uvs := make([]mgl32.Vec2, 0, side*side)
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			u, v := float32(x)/float32(n), float32(z)/float32(n)
			positions = append(positions, mgl32.Vec3{(u - 0.5) * size, 0, (v - 0.5) * size})
			uvs = append(uvs, mgl32.Vec2{u, v})
		}
	}
	values := make([]uint32, 0, n*n*6)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			a := uint32(z*side + x)
			b, c, d := a+1, a+uint32(side)+1, a+uint32(side)
			values = append(values, a, d, c, a, c, b)
		}
	}
	return mesh.FromAttributes(positions, uvs, nil), mesh.NewIndices(values)
}

// buildWave clones one grid per frame and displaces each clone, so every
// frame forks its own vertices while sharing the index buffer.
func buildWave(cfg *config.Config, opts []scene.MeshOption) (*scene.AnimatedModel, error) {
	vs, ix := grid(gridCells, gridSize)
	base, err := scene.NewMeshComponent(nil, vs, &ix, append(opts, scene.WithName("wave"))...)
	if err != nil {
		return nil, errors.Wrap(err, "build wave grid")
	}
	defer base.Dispose()
	base.SetColor(mgl32.Vec4{0.3, 0.6, 1, 1})

	frames := make([]scene.Node, 0, demoFrames)
	for i := 0; i < demoFrames; i++ {
		phase := 2 * math.Pi * float64(i) / demoFrames
		f := base.CloneMesh()
		f.SetName(fmt.Sprintf("wave%02d", i))
		err := f.UpdateVertices(func(vs []mesh.Vertex) {
			mesh.ParallelFor(len(vs), mesh.ParallelThreshold(), func(lo, hi int) {
				for j := lo; j < hi; j++ {
					p := &vs[j].Position
					r := math.Hypot(float64(p[0]), float64(p[2]))
					p[1] = waveHeight * float32(math.Sin(r*3-phase))

					slope := 0.0
					if r > 0 {
						slope = waveHeight * 3 * math.Cos(r*3-phase) / r
					}
					n := mgl32.Vec3{-float32(slope) * p[0], 1, -float32(slope) * p[2]}
					vs[j].Normal = n.Normalize()
				}
			})
		})
		if err != nil {
			f.Dispose()
			disposeAll(frames)
			return nil, errors.Wrapf(err, "displace frame %d", i)
		}
		frames = append(frames, f)
	}

	a, err := scene.NewAnimatedModel("wave", cfg.Animation.FrameInterval, cfg.Animation.Loop, cfg.Animation.Interpolate, frames...)
	if err != nil {
		disposeAll(frames)
		return nil, err
	}
	return a, nil
}

// buildPulse scales a ring outline per frame.
func buildPulse(cfg *config.Config, opts []scene.MeshOption) (*scene.AnimatedModel, error) {
	positions := make([]mgl32.Vec3, ringSegments)
	for i := range positions {
		s, c := math.Sincos(2 * math.Pi * float64(i) / ringSegments)
		positions[i] = mgl32.Vec3{float32(c) * 0.5, waveHeight * 2, float32(s) * 0.5}
	}
	ring, err := scene.NewMeshComponent(nil, mesh.FromAttributes(positions, nil, nil), nil, append(opts, scene.WithName("ring"))...)
	if err != nil {
		return nil, errors.Wrap(err, "build ring")
	}
	defer ring.Dispose()
	ring.SetColor(mgl32.Vec4{1, 0.5, 0.2, 1})
	ring.SetCulling(false)

	center := mgl32.Vec3{0, waveHeight * 2, 0}
	frames := make([]scene.Node, 0, demoFrames)
	for i := 0; i < demoFrames; i++ {
		f := ring.CloneMesh()
		f.SetName(fmt.Sprintf("ring%02d", i))
		k := 1 + 0.5*float32(math.Sin(2*math.Pi*float64(i)/demoFrames))
		if err := f.ScaleMeshUniform(k, center); err != nil {
			f.Dispose()
			disposeAll(frames)
			return nil, errors.Wrapf(err, "scale frame %d", i)
		}
		frames = append(frames, f)
	}

	a, err := scene.NewAnimatedModel("pulse", cfg.Animation.FrameInterval, cfg.Animation.Loop, cfg.Animation.Interpolate, frames...)
	if err != nil {
		disposeAll(frames)
		return nil, err
	}
	return a, nil
}

func disposeAll(nodes []scene.Node) {
	for _, n := range nodes {
		n.Dispose()
	}
}
