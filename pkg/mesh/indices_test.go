package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

func TestWidthFor(t *testing.T) {
	tests := []struct {
		pool int
		want IndexWidth
		bits int
	}{
		{0, Width8, 8},
		{1, Width8, 8},
		{256, Width8, 8},
		{257, Width16, 16},
		{65536, Width16, 16},
		{65537, Width32, 32},
	}

	for _, tt := range tests {
		got := WidthFor(tt.pool)
		if got != tt.want {
			t.Errorf("WidthFor(%d) = %v, want %v", tt.pool, got, tt.want)
		}
		if got.Bits() != tt.bits {
			t.Errorf("WidthFor(%d).Bits() = %d, want %d", tt.pool, got.Bits(), tt.bits)
		}
	}
}

func TestGenerateIndicesRoundTrip(t *testing.T) {
	a := Vertex{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}}
	b := Vertex{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}}
	c := Vertex{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 1, 0}}
	d := Vertex{Position: mgl32.Vec3{1, 1, 0}, TexCoord: mgl32.Vec2{1, 1}, Normal: mgl32.Vec3{0, 1, 0}}
	seq := []Vertex{a, b, c, a, c, d, d, a}

	tests := []struct {
		name     string
		optimize bool
		pool     int
	}{
		{"optimized", true, 4},
		{"identity", false, len(seq)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, ix := GenerateIndices(seq, tt.optimize)
			if len(pool) != tt.pool {
				t.Fatalf("expected pool of %d, got %d", tt.pool, len(pool))
			}
			if ix.Len() != len(seq) {
				t.Fatalf("expected %d indices, got %d", len(seq), ix.Len())
			}
			if ix.Width != Width8 {
				t.Errorf("expected 8-bit indices, got %v", ix.Width)
			}
			back, err := Expand(pool, ix)
			if err != nil {
				t.Fatalf("expand failed: %v", err)
			}
			for i := range seq {
				if back[i] != seq[i] {
					t.Errorf("vertex %d differs after round trip", i)
				}
			}
		})
	}
}

func TestGenerateIndicesWideningPool(t *testing.T) {
	seq := make([]Vertex, 300)
	for i := range seq {
		seq[i].Position = mgl32.Vec3{float32(i), 0, 0}
	}
	pool, ix := GenerateIndices(seq, true)
	if len(pool) != 300 {
		t.Fatalf("expected 300 unique vertices, got %d", len(pool))
	}
	if ix.Width != Width16 {
		t.Errorf("expected 16-bit indices for 300 vertices, got %v", ix.Width)
	}
}

func TestExpandOutOfRange(t *testing.T) {
	_, err := Expand(make([]Vertex, 2), Indices{Width: Width8, Values: []uint32{0, 1, 2}})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestIndicesBytes(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
		width  IndexWidth
		size   int
	}{
		{"bytes", []uint32{0, 1, 255}, Width8, 3},
		{"shorts", []uint32{0, 256, 65535}, Width16, 6},
		{"words", []uint32{0, 70000}, Width32, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := NewIndices(tt.values)
			if ix.Width != tt.width {
				t.Fatalf("expected width %v, got %v", tt.width, ix.Width)
			}
			data := ix.Bytes()
			if len(data) != tt.size {
				t.Fatalf("expected %d bytes, got %d", tt.size, len(data))
			}
			back := IndicesFromBytes(ix.Width, data)
			for i, v := range tt.values {
				if back.Values[i] != v {
					t.Errorf("index %d: expected %d, got %d", i, v, back.Values[i])
				}
			}
		})
	}
}
