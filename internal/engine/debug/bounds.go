// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/internal/engine/scene"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// DefaultBoundsPadding is the default gap between a box and what it encloses.
const DefaultBoundsPadding = 0.05

// boxIndices are two triangles per face over the corners from boxCorners.
var boxIndices = []uint32{
	0, 2, 1, 0, 3, 2, // bottom
	4, 5, 6, 4, 6, 7, // top
	0, 1, 5, 0, 5, 4, // front
	1, 2, 6, 1, 6, 5, // right
	2, 3, 7, 2, 7, 6, // back
	3, 0, 4, 3, 4, 7, // left
}

// boxCorners returns the eight corners of b grown by padding: the
// bottom face first, then the top face in the same winding.
func boxCorners(b mesh.Bounds, padding float32) []mgl32.Vec3 {
	pad := mgl32.Vec3{padding, padding, padding}
	lo, hi := b.Min.Sub(pad), b.Max.Add(pad)
	return []mgl32.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], lo[1], hi[2]}, {lo[0], lo[1], hi[2]},
		{lo[0], hi[1], lo[2]}, {hi[0], hi[1], lo[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
}

// BoundsBox returns a wireframe box mesh enclosing b.
func BoundsBox(name string, b mesh.Bounds, padding float32) (*scene.MeshComponent, error) {
	ix := mesh.NewIndices(boxIndices)
	m, err := scene.NewMeshComponent(nil, mesh.FromAttributes(boxCorners(b, padding), nil, nil), &ix,
		scene.WithName(name), scene.WithKeepCopy(true))
	if err != nil {
		return nil, err
	}
	m.SetWireframe(true)
	m.SetCulling(false)
	m.SetColor(mgl32.Vec4{1, 1, 0, 1})
	return m, nil
}

// FitBox reshapes a box from BoundsBox to enclose b.
func FitBox(box *scene.MeshComponent, b mesh.Bounds, padding float32) error {
	return box.SetGeometry(mesh.FromAttributes(boxCorners(b, padding), nil, nil), mesh.NewIndices(boxIndices))
}
