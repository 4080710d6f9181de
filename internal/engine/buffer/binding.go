package buffer

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
)

// maxStaleErrors bounds how many queued device errors Bind clears before binding.
const maxStaleErrors = 8

// VertexBinding is a vertex array object recording attribute layout.
type VertexBinding struct {
	res *gpu.Resource
}

func NewVertexBinding() *VertexBinding {
	return &VertexBinding{res: gpu.NewResource(gpu.KindVertexArray)}
}

func (b *VertexBinding) Handle() uint32 {
	return b.res.Handle()
}

func (b *VertexBinding) References() int {
	return b.res.References()
}

func (b *VertexBinding) AddReference() int {
	return b.res.AddReference()
}

// Released reports whether the binding can no longer be bound.
func (b *VertexBinding) Released() bool {
	return b.res.Released()
}

// Bind makes the binding current. A device error raised by the bind itself
// is returned as ErrBindFailed.
func (b *VertexBinding) Bind(ctx gpu.Context) error {
	h, allocated, err := b.res.Ensure(ctx)
	if err != nil {
		return errors.Wrap(err, "bind vertex binding")
	}
	if allocated {
		runtime.SetFinalizer(b, finalizeBinding)
	}

	d := ctx.Device()
	for i := 0; i < maxStaleErrors && d.GetError() != gpu.NoError; i++ {
	}
	d.BindVertexArray(h)
	if code := d.GetError(); code != gpu.NoError {
		return errors.Wrapf(ErrBindFailed, "vertex array %d: error 0x%x", h, code)
	}
	return nil
}

func (b *VertexBinding) Unbind(ctx gpu.Context) {
	ctx.Device().BindVertexArray(0)
}

// Dispose drops one reference, or all of them when force is set.
func (b *VertexBinding) Dispose(force bool) bool {
	if !b.res.Release(force, b) {
		return false
	}
	runtime.SetFinalizer(b, nil)
	return true
}

func finalizeBinding(b *VertexBinding) {
	b.res.Orphan(b)
}
