package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns an inverted box that any Extend call will replace.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// BoundsOf scans vertices for their bounding box. Empty input yields the zero box.
func BoundsOf(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := EmptyBounds()
	for i := range vertices {
		b.Extend(vertices[i].Position)
	}
	return b
}

// IsEmpty reports whether no point was ever added.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0]
}

// Extend grows the box to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Union returns the box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
	return b
}

func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Bounds) Width() float32  { return b.Max[0] - b.Min[0] }
func (b Bounds) Height() float32 { return b.Max[1] - b.Min[1] }
func (b Bounds) Depth() float32  { return b.Max[2] - b.Min[2] }

func (b Bounds) MinX() float32 { return b.Min[0] }
func (b Bounds) MinY() float32 { return b.Min[1] }
func (b Bounds) MinZ() float32 { return b.Min[2] }
func (b Bounds) MaxX() float32 { return b.Max[0] }
func (b Bounds) MaxY() float32 { return b.Max[1] }
func (b Bounds) MaxZ() float32 { return b.Max[2] }

// CenterXZ moves vertices so the box is centered horizontally, keeping Y.
// Returns the offset that was subtracted.
func CenterXZ(vertices []Vertex) mgl32.Vec3 {
	c := BoundsOf(vertices).Center()
	offset := mgl32.Vec3{c[0], 0, c[2]}
	Translate(vertices, offset.Mul(-1))
	return offset
}

// SmoothNormals averages normals of vertices that share a position.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	groups := make(map[[3]int32][]int)
	for i := range vertices {
		p := vertices[i].Position
		key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		groups[key] = append(groups[key], i)
	}

	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(vertices[idx].Normal)
		}
		if sum.Len() == 0 {
			continue
		}
		avg := sum.Normalize()
		for _, idx := range idxs {
			vertices[idx].Normal = avg
		}
	}
}
