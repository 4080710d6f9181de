package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/engine/shader"
	"github.com/Faultbox/scenegraph/internal/engine/texture"
)

// Frame carries the per-draw state nodes render against.
type Frame struct {
	Context  gpu.Context
	Material shader.Material

	Projection mgl32.Mat4
	View       mgl32.Mat4

	// DefaultTexture is bound by meshes without a texture of their own.
	DefaultTexture texture.Texture

	weight float32
}

// NewFrame returns a frame with identity matrices.
func NewFrame(ctx gpu.Context, material shader.Material) *Frame {
	return &Frame{
		Context:        ctx,
		Material:       material,
		Projection:     mgl32.Ident4(),
		View:           mgl32.Ident4(),
		DefaultTexture: texture.Empty,
	}
}

// Weight is the blend factor toward the interpolation partner.
func (f *Frame) Weight() float32 {
	return f.weight
}

// WithWeight returns a copy of f with the blend weight set.
func (f *Frame) WithWeight(w float32) *Frame {
	c := *f
	c.weight = w
	return &c
}

func (f *Frame) defaultTexture() texture.Texture {
	if f.DefaultTexture == nil {
		return texture.Empty
	}
	return f.DefaultTexture
}
