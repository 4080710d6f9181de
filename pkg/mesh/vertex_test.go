package mesh

import (
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestVertexLayout(t *testing.T) {
	if VertexSize != 32 {
		t.Errorf("expected 32-byte vertices, got %d", VertexSize)
	}
	if PositionOffset != 0 || TexCoordOffset != 12 || NormalOffset != 20 {
		t.Errorf("unexpected offsets %d/%d/%d", PositionOffset, TexCoordOffset, NormalOffset)
	}
}

func TestFromAttributes(t *testing.T) {
	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	uvs := []mgl32.Vec2{{0, 0}, {1, 0}}
	normals := []mgl32.Vec3{{0, 0, 1}}

	vs := FromAttributes(positions, uvs, normals)
	if len(vs) != 3 {
		t.Fatalf("expected 3 vertices, got %d", len(vs))
	}
	if vs[1].TexCoord != (mgl32.Vec2{1, 0}) {
		t.Errorf("unexpected texcoord %v", vs[1].TexCoord)
	}
	if vs[2].TexCoord != (mgl32.Vec2{}) {
		t.Errorf("missing texcoord should be zero, got %v", vs[2].TexCoord)
	}
	if vs[0].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("unexpected normal %v", vs[0].Normal)
	}
	if vs[2].Normal != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("missing normal should default to +Y, got %v", vs[2].Normal)
	}
}

func TestParallelFor(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		threshold int
	}{
		{"empty", 0, 10},
		{"serial", 50, 100},
		{"disabled", 5000, 0},
		{"parallel", 10000, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			var calls atomic.Int32
			ParallelFor(tt.n, tt.threshold, func(lo, hi int) {
				calls.Add(1)
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
			if tt.n == 0 && calls.Load() != 0 {
				t.Error("expected no calls for empty range")
			}
		})
	}
}
