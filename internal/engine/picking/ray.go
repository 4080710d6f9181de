// Package picking provides ray casting against scene nodes.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenegraph/internal/engine/scene"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // normalized
}

// ScreenToRay converts window coordinates to a world-space ray.
// viewProj is projection * view; the viewport is width by height with
// the origin at the top left.
func ScreenToRay(x, y, width, height float32, viewProj mgl32.Mat4) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height

	inv := viewProj.Inv()
	near := unproject(inv, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(inv, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

func unproject(inv mgl32.Mat4, p mgl32.Vec4) mgl32.Vec3 {
	w := inv.Mul4x1(p)
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}

// IntersectBounds tests the ray against an axis-aligned box with the slab
// method. It returns the entry distance, or the exit distance when the
// origin is inside the box.
func (r Ray) IntersectBounds(b mesh.Bounds) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)
	for i := 0; i < 3; i++ {
		if r.Direction[i] == 0 {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (b.Min[i] - r.Origin[i]) / r.Direction[i]
		t2 := (b.Max[i] - r.Origin[i]) / r.Direction[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}
	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// WorldBounds returns the box enclosing n after mesh world transforms.
// Animated models enclose all of their frames.
func WorldBounds(n scene.Node) (mesh.Bounds, error) {
	switch v := n.(type) {
	case *scene.MeshComponent:
		b, err := v.Bounds()
		if err != nil || b.IsEmpty() {
			return b, err
		}
		return transformBounds(b, v.WorldMatrix()), nil
	case *scene.AnimatedModel:
		return childBounds(v.Children())
	case *scene.Model:
		return childBounds(v.Children())
	}
	return n.Bounds()
}

func childBounds(children []scene.Node) (mesh.Bounds, error) {
	out := mesh.EmptyBounds()
	for _, c := range children {
		if c.Vertices() == 0 {
			continue
		}
		b, err := WorldBounds(c)
		if err != nil {
			return mesh.Bounds{}, err
		}
		out = out.Union(b)
	}
	return out, nil
}

func transformBounds(b mesh.Bounds, m mgl32.Mat4) mesh.Bounds {
	out := mesh.EmptyBounds()
	for i := 0; i < 8; i++ {
		corner := b.Min
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corner[axis] = b.Max[axis]
			}
		}
		out.Extend(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// Pick returns the nearest visible child of root hit by the ray.
func Pick(root *scene.Model, r Ray) (scene.Node, float32, error) {
	var (
		best scene.Node
		dist = float32(math.MaxFloat32)
	)
	for _, c := range root.Children() {
		if !c.Visible() || c.Vertices() == 0 {
			continue
		}
		b, err := WorldBounds(c)
		if err != nil {
			return nil, 0, err
		}
		if t, ok := r.IntersectBounds(b); ok && t < dist {
			best, dist = c, t
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	return best, dist, nil
}
