package buffer

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// IndexBuffer holds triangle indices at the narrowest width that fits them.
// Indices stay on the CPU until the first Bind uploads them.
type IndexBuffer struct {
	res *gpu.Resource

	mu       sync.Mutex
	pending  *mesh.Indices
	cached   *mesh.Indices
	count    int
	width    mesh.IndexWidth
	keepCopy bool
}

// NewIndexBuffer stages ix for upload. With keepCopy the CPU copy survives the upload.
func NewIndexBuffer(ix mesh.Indices, keepCopy bool) *IndexBuffer {
	b := &IndexBuffer{
		res:      gpu.NewResource(gpu.KindBuffer),
		keepCopy: keepCopy,
	}
	b.stage(ix)
	return b
}

func (b *IndexBuffer) stage(ix mesh.Indices) {
	if ix.Width == 0 {
		ix = mesh.NewIndices(ix.Values)
	}
	b.pending = &ix
	b.cached = nil
	b.count = ix.Len()
	b.width = ix.Width
}

func (b *IndexBuffer) Handle() uint32 {
	return b.res.Handle()
}

// Count returns the number of indices.
func (b *IndexBuffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Width returns the per-index storage width.
func (b *IndexBuffer) Width() mesh.IndexWidth {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

// SetKeepCopy controls whether the CPU copy is retained after upload.
func (b *IndexBuffer) SetKeepCopy(keep bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keepCopy = keep
	if !keep {
		b.cached = nil
	}
}

func (b *IndexBuffer) References() int {
	return b.res.References()
}

func (b *IndexBuffer) AddReference() int {
	return b.res.AddReference()
}

// Bind binds the buffer to the element target and uploads any staged indices.
func (b *IndexBuffer) Bind(ctx gpu.Context) error {
	h, allocated, err := b.res.Ensure(ctx)
	if err != nil {
		return errors.Wrap(err, "bind index buffer")
	}
	if allocated {
		runtime.SetFinalizer(b, finalizeIndex)
	}
	d := ctx.Device()
	d.BindBuffer(gpu.ElementArrayBuffer, h)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil {
		d.BufferData(gpu.ElementArrayBuffer, b.pending.Bytes(), gpu.StaticDraw)
		if b.keepCopy {
			b.cached = b.pending
		}
		b.pending = nil
	}
	return nil
}

func (b *IndexBuffer) Unbind(ctx gpu.Context) {
	ctx.Device().BindBuffer(gpu.ElementArrayBuffer, 0)
}

// Replace stages new contents; they reach the GPU on the next Bind.
func (b *IndexBuffer) Replace(ix mesh.Indices) error {
	if b.res.Released() {
		return ErrReleased
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stage(ix.Clone())
	return nil
}

// ReadBack returns the indices, from the CPU copy when one exists and
// from GPU memory otherwise. GPU reads need ctx to be current.
func (b *IndexBuffer) ReadBack(ctx gpu.Context) (mesh.Indices, error) {
	b.mu.Lock()
	if src := b.pending; src != nil || b.cached != nil {
		if src == nil {
			src = b.cached
		}
		out := src.Clone()
		b.mu.Unlock()
		return out, nil
	}
	count, width := b.count, b.width
	b.mu.Unlock()

	if err := readable(b.res, ctx); err != nil {
		return mesh.Indices{}, errors.Wrap(err, "read index buffer")
	}
	if err := b.Bind(ctx); err != nil {
		return mesh.Indices{}, err
	}
	data := make([]byte, count*int(width))
	ctx.Device().GetBufferSubData(gpu.ElementArrayBuffer, 0, data)
	return mesh.IndicesFromBytes(width, data), nil
}

// Dispose drops one reference, or all of them when force is set.
func (b *IndexBuffer) Dispose(force bool) bool {
	if !b.res.Release(force, b) {
		return false
	}
	runtime.SetFinalizer(b, nil)
	b.mu.Lock()
	b.pending, b.cached = nil, nil
	b.mu.Unlock()
	return true
}

func finalizeIndex(b *IndexBuffer) {
	b.res.Orphan(b)
}
