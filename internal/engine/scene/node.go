// Package scene provides the renderable object graph: mesh leaves sharing
// reference-counted GPU buffers, composite models with cascading
// transforms, and time-driven animated models.
package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/pkg/mesh"
)

var (
	// ErrInvalidHierarchy is returned when an insert would make a node its own ancestor.
	ErrInvalidHierarchy = errors.New("invalid hierarchy")
	// ErrFrameCountMismatch is returned when combining animations of different length.
	ErrFrameCountMismatch = errors.New("frame counts differ")
	// ErrMismatchedFrames is returned when two trees cannot be rendered as an interpolation pair.
	ErrMismatchedFrames = errors.New("models are not pairable")
	// ErrDisposed is returned by operations on a disposed node.
	ErrDisposed = errors.New("node disposed")
	// ErrIndexRange is returned for child positions outside the list.
	ErrIndexRange = errors.New("child index out of range")
)

// Node is an element of the scene graph.
type Node interface {
	Name() string
	SetName(name string)
	// Parent returns the model holding the node, or nil.
	Parent() *Model

	Visible() bool
	SetVisible(visible bool)
	Alpha() float32
	SetAlpha(alpha float32)

	// Vertices and Indices count the geometry under the node.
	Vertices() int
	Indices() int
	Triangles() int

	Location() mgl32.Vec3
	SetLocation(v mgl32.Vec3)
	Rotation() mgl32.Vec3
	SetRotation(v mgl32.Vec3)
	Scale() mgl32.Vec3
	SetScale(v mgl32.Vec3)

	// Bounds scans the vertices under the node in model space.
	Bounds() (mesh.Bounds, error)

	// Render draws the node. When next is not nil it must have the same
	// shape, and its geometry is blended in by the frame weight.
	Render(f *Frame, next Node)
	Clone() Node
	Dispose()

	TranslateMesh(v mgl32.Vec3) error
	ScaleMesh(factor mgl32.Vec3, center mgl32.Vec3) error
	RotateMesh(angles mgl32.Vec3) error
	ApplyMatrix(m mgl32.Mat4) error

	SetCulling(enabled bool)
	SetWireframe(enabled bool)
	SetKeepCopyInMemory(keep bool)

	link() *parentLink
}

// parentLink is the back pointer every node carries to its model.
type parentLink struct {
	parent atomic.Pointer[Model]
}

func (l *parentLink) link() *parentLink { return l }

func (l *parentLink) Parent() *Model { return l.parent.Load() }

// cumulativeAlpha multiplies own by the alpha of every ancestor of p.
func cumulativeAlpha(own float32, p *Model) float32 {
	for ; p != nil && own > 0; p = p.Parent() {
		own *= p.Alpha()
	}
	return own
}

// isAncestor reports whether candidate is m or one of its ancestors.
func isAncestor(candidate, m *Model) bool {
	for p := m; p != nil; p = p.Parent() {
		if p == candidate {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every node below it, depth first.
func Walk(n Node, fn func(Node)) {
	fn(n)
	if m := asModel(n); m != nil {
		for _, c := range m.Children() {
			Walk(c, fn)
		}
	}
}

func asModel(n Node) *Model {
	switch v := n.(type) {
	case *Model:
		return v
	case *AnimatedModel:
		return v.Model
	}
	return nil
}
