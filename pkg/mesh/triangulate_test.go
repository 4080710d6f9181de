package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

func polygon(points ...[2]float32) []Vertex {
	out := make([]Vertex, len(points))
	for i, p := range points {
		out[i] = Vertex{
			Position: mgl32.Vec3{p[0], p[1], 1},
			TexCoord: mgl32.Vec2{p[0], p[1]},
			Normal:   mgl32.Vec3{0, 0, 1},
		}
	}
	return out
}

func regular(n int, radius float32) []Vertex {
	points := make([][2]float32, n)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = [2]float32{radius * float32(math.Cos(a)), radius * float32(math.Sin(a))}
	}
	return polygon(points...)
}

func reverse(vs []Vertex) []Vertex {
	out := make([]Vertex, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out
}

func TestTriangulateQuads(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"empty", 0, 0},
		{"one quad", 4, 6},
		{"three quads", 12, 18},
		{"trailing vertices dropped", 10, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]Vertex, tt.input)
			for i := range in {
				in[i].Position = mgl32.Vec3{float32(i), 0, 0}
			}
			out := TriangulateQuads(in)
			if len(out) != tt.want {
				t.Fatalf("expected %d vertices, got %d", tt.want, len(out))
			}
			order := []int{0, 1, 2, 0, 2, 3}
			for q := 0; q < len(out)/6; q++ {
				for k, src := range order {
					if out[q*6+k] != in[q*4+src] {
						t.Errorf("quad %d slot %d: expected source vertex %d", q, k, src)
					}
				}
			}
		})
	}
}

func TestTriangulateQuadsParallel(t *testing.T) {
	old := ParallelThreshold()
	SetParallelThreshold(16)
	defer SetParallelThreshold(old)

	in := make([]Vertex, 4*1000)
	for i := range in {
		in[i].Position = mgl32.Vec3{float32(i), 1, 2}
	}
	out := TriangulateQuads(in)
	if len(out) != 6000 {
		t.Fatalf("expected 6000 vertices, got %d", len(out))
	}
	for q := 0; q < 1000; q++ {
		if out[q*6+5] != in[q*4+3] || out[q*6+3] != in[q*4] {
			t.Fatalf("quad %d decomposed incorrectly", q)
		}
	}
}

func TestTriangulatePolygonConvex(t *testing.T) {
	up := mgl32.Vec3{0, 0, 1}
	tests := []struct {
		name string
		poly []Vertex
	}{
		{"triangle", regular(3, 1)},
		{"square", polygon([2]float32{0, 0}, [2]float32{2, 0}, [2]float32{2, 2}, [2]float32{0, 2})},
		{"hexagon", regular(6, 3)},
		{"clockwise octagon", reverse(regular(8, 2))},
		{"many sides", regular(40, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := TriangulatePolygon(tt.poly)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n := len(tt.poly)
			if len(tris) != (n-2)*3 {
				t.Fatalf("expected %d triangles, got %d vertices", n-2, len(tris))
			}

			var sum float32
			for i := 0; i < len(tris); i += 3 {
				sum += SignedArea(Positions(tris[i:i+3]), up)
			}
			want := SignedArea(Positions(tt.poly), up)
			if math.Abs(float64(sum-want)) > 1e-3 {
				t.Errorf("summed area %f, polygon area %f", sum, want)
			}
		})
	}
}

func TestTriangulatePolygonConcave(t *testing.T) {
	up := mgl32.Vec3{0, 0, 1}
	tests := []struct {
		name string
		poly []Vertex
	}{
		{"L shape", polygon(
			[2]float32{0, 0}, [2]float32{2, 0}, [2]float32{2, 1},
			[2]float32{1, 1}, [2]float32{1, 2}, [2]float32{0, 2},
		)},
		{"arrow", polygon(
			[2]float32{0, 0}, [2]float32{2, 1}, [2]float32{4, 0}, [2]float32{2, 3},
		)},
		{"comb", polygon(
			[2]float32{0, 0}, [2]float32{5, 0}, [2]float32{5, 3}, [2]float32{4, 3},
			[2]float32{4, 1}, [2]float32{3, 1}, [2]float32{3, 3}, [2]float32{2, 3},
			[2]float32{2, 1}, [2]float32{1, 1}, [2]float32{1, 3}, [2]float32{0, 3},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := TriangulatePolygon(tt.poly)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tris) != (len(tt.poly)-2)*3 {
				t.Fatalf("expected %d triangles, got %d vertices", len(tt.poly)-2, len(tris))
			}
			var sum float32
			for i := 0; i < len(tris); i += 3 {
				area := SignedArea(Positions(tris[i:i+3]), up)
				if area < -1e-5 {
					t.Errorf("triangle %d has reversed winding (area %f)", i/3, area)
				}
				sum += area
			}
			want := SignedArea(Positions(tt.poly), up)
			if math.Abs(float64(sum-want)) > 1e-3 {
				t.Errorf("summed area %f, polygon area %f", sum, want)
			}
		})
	}
}

func TestTriangulatePolygonDegenerate(t *testing.T) {
	tests := []struct {
		name string
		poly []Vertex
	}{
		{"collinear", polygon([2]float32{0, 0}, [2]float32{1, 0}, [2]float32{2, 0}, [2]float32{3, 0})},
		{"bow tie", polygon([2]float32{0, 0}, [2]float32{1, 1}, [2]float32{1, 0}, [2]float32{0, 1})},
		{"coincident", polygon([2]float32{1, 1}, [2]float32{1, 1}, [2]float32{1, 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TriangulatePolygon(tt.poly)
			if !errors.Is(err, ErrNonTriangulable) {
				t.Errorf("expected ErrNonTriangulable, got %v", err)
			}
		})
	}
}

func TestTriangulatePolygonTooSmall(t *testing.T) {
	tests := []struct {
		name string
		in   []Vertex
	}{
		{"empty", nil},
		{"point", polygon([2]float32{0, 0})},
		{"segment", polygon([2]float32{0, 0}, [2]float32{1, 0})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := TriangulatePolygon(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tris) != 0 {
				t.Errorf("expected no triangles, got %d vertices", len(tris))
			}
		})
	}
}

func TestTriangulatePolygons(t *testing.T) {
	out, err := TriangulatePolygons([][]Vertex{regular(4, 1), regular(5, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != (2+3)*3 {
		t.Errorf("expected 15 vertices, got %d", len(out))
	}

	_, err = TriangulatePolygons([][]Vertex{regular(4, 1), polygon([2]float32{0, 0}, [2]float32{1, 0}, [2]float32{2, 0})})
	if !errors.Is(err, ErrNonTriangulable) {
		t.Errorf("expected wrapped ErrNonTriangulable, got %v", err)
	}
}
