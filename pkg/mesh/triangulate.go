package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrNonTriangulable is returned when ear clipping completes a full pass
// over the remaining boundary without finding an ear.
var ErrNonTriangulable = errors.New("polygon is not triangulable")

// normalEpsilon is the squared length under which a polygon normal is treated as degenerate.
const normalEpsilon = 1e-12

// TriangulateQuads splits every four consecutive vertices into the triangles
// (0,1,2) and (0,2,3). Trailing vertices that do not form a full quad are dropped.
func TriangulateQuads(vertices []Vertex) []Vertex {
	quads := len(vertices) / 4
	out := make([]Vertex, quads*6)
	ParallelFor(quads, ParallelThreshold()/4, func(lo, hi int) {
		for q := lo; q < hi; q++ {
			src := vertices[q*4 : q*4+4]
			dst := out[q*6 : q*6+6]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			dst[3], dst[4], dst[5] = src[0], src[2], src[3]
		}
	})
	return out
}

// TriangulatePolygon converts a simple planar polygon into a triangle list by ear clipping.
func TriangulatePolygon(vertices []Vertex) ([]Vertex, error) {
	indices, err := TriangulatePolygonIndices(Positions(vertices))
	if err != nil {
		return nil, err
	}
	out := make([]Vertex, len(indices))
	for i, idx := range indices {
		out[i] = vertices[idx]
	}
	return out, nil
}

// TriangulatePolygons triangulates each polygon and concatenates the results.
func TriangulatePolygons(polygons [][]Vertex) ([]Vertex, error) {
	var out []Vertex
	for i, poly := range polygons {
		tris, err := TriangulatePolygon(poly)
		if err != nil {
			return nil, errors.Wrapf(err, "polygon %d", i)
		}
		out = append(out, tris...)
	}
	return out, nil
}

// TriangulatePolygonIndices runs ear clipping over positions and returns
// triangles as indices into positions. Emitted triangles keep the input winding.
// Fewer than three positions yield no triangles and no error.
func TriangulatePolygonIndices(positions []mgl32.Vec3) ([]uint32, error) {
	n := len(positions)
	if n < 3 {
		return nil, nil
	}

	normal := polygonNormal(positions)
	if normal.Dot(normal) < normalEpsilon {
		return nil, errors.Wrapf(ErrNonTriangulable, "degenerate normal for %d vertices", n)
	}

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	out := make([]uint32, 0, (n-2)*3)

	i, misses := 0, 0
	for len(remaining) > 2 {
		count := len(remaining)
		i %= count
		a, b, c := remaining[i], remaining[(i+1)%count], remaining[(i+2)%count]

		if !isEar(positions, remaining, a, b, c, normal) {
			i++
			misses++
			if misses >= count {
				return nil, errors.Wrapf(ErrNonTriangulable, "no ear among %d remaining vertices", count)
			}
			continue
		}

		out = append(out, uint32(a), uint32(b), uint32(c))
		mid := (i + 1) % count
		remaining = append(remaining[:mid], remaining[mid+1:]...)
		if mid < i {
			i--
		}
		misses = 0
	}
	return out, nil
}

func isEar(positions []mgl32.Vec3, remaining []int, a, b, c int, normal mgl32.Vec3) bool {
	pa, pb, pc := positions[a], positions[b], positions[c]
	if tripleProduct(pa, pb, pc, normal) < 0 {
		return false
	}
	for _, r := range remaining {
		if r == a || r == b || r == c {
			continue
		}
		p := positions[r]
		if p == pa || p == pb || p == pc {
			continue
		}
		if insideTriangle(pa, pb, pc, p, normal) {
			return false
		}
	}
	return true
}

// tripleProduct returns ((b-a) x (c-a)) . n, positive for a counter-clockwise turn about n.
func tripleProduct(a, b, c, n mgl32.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Dot(n)
}

// insideTriangle reports whether p lies inside or on triangle abc: the triple
// products of p against the three edges must not disagree in sign.
func insideTriangle(a, b, c, p, n mgl32.Vec3) bool {
	var neg, pos bool
	for _, s := range [3]float32{
		tripleProduct(a, b, p, n),
		tripleProduct(b, c, p, n),
		tripleProduct(c, a, p, n),
	} {
		neg = neg || s < 0
		pos = pos || s > 0
	}
	return !(neg && pos)
}

// polygonNormal computes the Newell normal. Its length is twice the polygon area.
func polygonNormal(positions []mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	for i, cur := range positions {
		next := positions[(i+1)%len(positions)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return n
}

// SignedArea returns the area of the polygon measured against normal.
// Counter-clockwise winding about normal yields a positive area.
func SignedArea(positions []mgl32.Vec3, normal mgl32.Vec3) float32 {
	if l := normal.Len(); l > 0 {
		normal = normal.Mul(1 / l)
	}
	return polygonNormal(positions).Dot(normal) / 2
}
