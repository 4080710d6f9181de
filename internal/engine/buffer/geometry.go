// Package buffer wraps GPU vertex, index and vertex-layout objects in
// reference-counted handles that allocate on first bind.
package buffer

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

var (
	ErrReleased     = gpu.ErrReleased
	ErrNotAllocated = gpu.ErrNotAllocated
	// ErrBindFailed is returned when the device reports an error on bind.
	ErrBindFailed = errors.New("bind failed")
)

// GeometryBuffer holds interleaved vertex data on the GPU.
type GeometryBuffer struct {
	res   *gpu.Resource
	count atomic.Int64
}

// NewGeometryBuffer returns an unallocated buffer holding one reference.
func NewGeometryBuffer() *GeometryBuffer {
	return &GeometryBuffer{res: gpu.NewResource(gpu.KindBuffer)}
}

func (b *GeometryBuffer) Handle() uint32 {
	return b.res.Handle()
}

// Count returns the number of vertices last uploaded.
func (b *GeometryBuffer) Count() int {
	return int(b.count.Load())
}

func (b *GeometryBuffer) References() int {
	return b.res.References()
}

func (b *GeometryBuffer) AddReference() int {
	return b.res.AddReference()
}

// Bind binds the buffer to the array target, allocating it on first use.
func (b *GeometryBuffer) Bind(ctx gpu.Context) error {
	h, allocated, err := b.res.Ensure(ctx)
	if err != nil {
		return errors.Wrap(err, "bind geometry buffer")
	}
	if allocated {
		runtime.SetFinalizer(b, finalizeGeometry)
	}
	ctx.Device().BindBuffer(gpu.ArrayBuffer, h)
	return nil
}

func (b *GeometryBuffer) Unbind(ctx gpu.Context) {
	ctx.Device().BindBuffer(gpu.ArrayBuffer, 0)
}

// Upload replaces the buffer contents with vertices.
func (b *GeometryBuffer) Upload(ctx gpu.Context, vertices []mesh.Vertex, usage gpu.Usage) error {
	if err := b.Bind(ctx); err != nil {
		return err
	}
	ctx.Device().BufferData(gpu.ArrayBuffer, vertexBytes(vertices), usage)
	b.count.Store(int64(len(vertices)))
	return nil
}

// ReadBack copies the first count vertices out of GPU memory.
func (b *GeometryBuffer) ReadBack(ctx gpu.Context, count int) ([]mesh.Vertex, error) {
	if err := readable(b.res, ctx); err != nil {
		return nil, errors.Wrap(err, "read geometry buffer")
	}
	if err := b.Bind(ctx); err != nil {
		return nil, err
	}
	data := make([]byte, count*mesh.VertexSize)
	ctx.Device().GetBufferSubData(gpu.ArrayBuffer, 0, data)
	return bytesToVertices(data), nil
}

// Dispose drops one reference, or all of them when force is set.
// It returns true when the native buffer was given up.
func (b *GeometryBuffer) Dispose(force bool) bool {
	if !b.res.Release(force, b) {
		return false
	}
	runtime.SetFinalizer(b, nil)
	return true
}

func finalizeGeometry(b *GeometryBuffer) {
	b.res.Orphan(b)
}

func readable(res *gpu.Resource, ctx gpu.Context) error {
	switch {
	case res.Released():
		return ErrReleased
	case res.Handle() == 0:
		return ErrNotAllocated
	case ctx == nil || !ctx.IsCurrent():
		return gpu.ErrNoContext
	}
	return nil
}

func vertexBytes(vertices []mesh.Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*mesh.VertexSize)
}

func bytesToVertices(data []byte) []mesh.Vertex {
	n := len(data) / mesh.VertexSize
	out := make([]mesh.Vertex, n)
	if n > 0 {
		copy(vertexBytes(out), data)
	}
	return out
}
