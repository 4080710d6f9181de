package mesh

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrIndexOutOfRange is returned when an index addresses past the vertex pool.
var ErrIndexOutOfRange = errors.New("index out of range")

// IndexWidth is the size in bytes of a single index.
type IndexWidth uint8

// Supported index widths.
const (
	Width8  IndexWidth = 1
	Width16 IndexWidth = 2
	Width32 IndexWidth = 4
)

// Bits returns the width in bits.
func (w IndexWidth) Bits() int {
	return int(w) * 8
}

func (w IndexWidth) String() string {
	switch w {
	case Width8:
		return "uint8"
	case Width16:
		return "uint16"
	case Width32:
		return "uint32"
	}
	return "invalid"
}

// WidthFor returns the narrowest width able to address a pool of n vertices,
// i.e. whose range covers n-1.
func WidthFor(n int) IndexWidth {
	switch {
	case n <= math.MaxUint8+1:
		return Width8
	case n <= math.MaxUint16+1:
		return Width16
	default:
		return Width32
	}
}

// Indices is an index list tagged with the width it is stored at on the GPU.
// Values are kept widened to uint32 on the CPU side.
type Indices struct {
	Width  IndexWidth
	Values []uint32
}

// NewIndices wraps values, choosing the narrowest width that holds the largest value.
func NewIndices(values []uint32) Indices {
	var max uint32
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return Indices{Width: WidthFor(int(max) + 1), Values: values}
}

// Len returns the number of indices.
func (ix Indices) Len() int {
	return len(ix.Values)
}

// Triangles returns the number of whole triangles described.
func (ix Indices) Triangles() int {
	return len(ix.Values) / 3
}

// Bytes packs the indices at their width, little-endian.
func (ix Indices) Bytes() []byte {
	w := ix.Width
	if w == 0 {
		w = Width8
	}
	out := make([]byte, len(ix.Values)*int(w))
	switch w {
	case Width8:
		for i, v := range ix.Values {
			out[i] = byte(v)
		}
	case Width16:
		for i, v := range ix.Values {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
	default:
		for i, v := range ix.Values {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
	}
	return out
}

// IndicesFromBytes unpacks count indices stored at width w.
func IndicesFromBytes(w IndexWidth, data []byte) Indices {
	n := 0
	if w > 0 {
		n = len(data) / int(w)
	}
	values := make([]uint32, n)
	switch w {
	case Width8:
		for i := range values {
			values[i] = uint32(data[i])
		}
	case Width16:
		for i := range values {
			values[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case Width32:
		for i := range values {
			values[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return Indices{Width: w, Values: values}
}

// Clone returns a deep copy.
func (ix Indices) Clone() Indices {
	return Indices{Width: ix.Width, Values: append([]uint32(nil), ix.Values...)}
}

// GenerateIndices builds an index list for a flat vertex sequence.
// With optimize, identical vertices are folded into one pool entry;
// otherwise the pool is the input and the indices are the identity sequence.
func GenerateIndices(vertices []Vertex, optimize bool) ([]Vertex, Indices) {
	if !optimize {
		values := make([]uint32, len(vertices))
		for i := range values {
			values[i] = uint32(i)
		}
		return vertices, Indices{Width: WidthFor(len(vertices)), Values: values}
	}

	pool := make([]Vertex, 0, len(vertices))
	seen := make(map[Vertex]uint32, len(vertices))
	values := make([]uint32, len(vertices))
	for i, v := range vertices {
		idx, ok := seen[v]
		if !ok {
			idx = uint32(len(pool))
			seen[v] = idx
			pool = append(pool, v)
		}
		values[i] = idx
	}
	return pool, Indices{Width: WidthFor(len(pool)), Values: values}
}

// Expand reconstructs the flat vertex sequence addressed by indices.
func Expand(pool []Vertex, ix Indices) ([]Vertex, error) {
	out := make([]Vertex, len(ix.Values))
	for i, idx := range ix.Values {
		if int(idx) >= len(pool) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d at %d, pool size %d", idx, i, len(pool))
		}
		out[i] = pool[idx]
	}
	return out, nil
}
