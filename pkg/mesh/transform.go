package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Bulk per-vertex transforms. Each runs through ParallelFor and mutates in place.

// Translate offsets every position by v.
func Translate(vertices []Vertex, v mgl32.Vec3) {
	ParallelFor(len(vertices), ParallelThreshold(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			vertices[i].Position = vertices[i].Position.Add(v)
		}
	})
}

// Scale scales positions component-wise about center. Normals follow the
// inverse scale so they stay perpendicular under non-uniform factors.
func Scale(vertices []Vertex, factor, center mgl32.Vec3) {
	uniform := factor[0] == factor[1] && factor[1] == factor[2]
	inv := mgl32.Vec3{safeInverse(factor[0]), safeInverse(factor[1]), safeInverse(factor[2])}
	ParallelFor(len(vertices), ParallelThreshold(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := &vertices[i]
			v.Position = center.Add(mulVec(v.Position.Sub(center), factor))
			if !uniform {
				v.Normal = normalize(mulVec(v.Normal, inv))
			}
		}
	})
}

// RotationMatrix composes Euler angles (radians) as Rz * Ry * Rx.
func RotationMatrix(angles mgl32.Vec3) mgl32.Mat4 {
	return mgl32.HomogRotate3DZ(angles[2]).
		Mul4(mgl32.HomogRotate3DY(angles[1])).
		Mul4(mgl32.HomogRotate3DX(angles[0]))
}

// Rotate rotates positions and normals about the origin by Euler angles in radians.
func Rotate(vertices []Vertex, angles mgl32.Vec3) {
	Apply(vertices, RotationMatrix(angles))
}

// Apply transforms positions by m and normals by its upper 3x3.
func Apply(vertices []Vertex, m mgl32.Mat4) {
	normalMat := m.Mat3()
	if inv := normalMat.Inv(); inv != (mgl32.Mat3{}) {
		normalMat = inv.Transpose()
	}
	ParallelFor(len(vertices), ParallelThreshold(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := &vertices[i]
			v.Position = mgl32.TransformCoordinate(v.Position, m)
			v.Normal = normalize(normalMat.Mul3x1(v.Normal))
		}
	})
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

func safeInverse(f float32) float32 {
	if f == 0 {
		return 0
	}
	return 1 / f
}
