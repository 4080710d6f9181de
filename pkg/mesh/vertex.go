// Package mesh provides CPU-side vertex types and triangulation utilities.
// Nothing here touches the GPU; buffers are built from its output.
package mesh

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single interleaved vertex: position, texture coordinate, normal.
type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
}

// Interleaved layout of Vertex in bytes.
const (
	VertexSize     = int(unsafe.Sizeof(Vertex{}))
	PositionOffset = int(unsafe.Offsetof(Vertex{}.Position))
	TexCoordOffset = int(unsafe.Offsetof(Vertex{}.TexCoord))
	NormalOffset   = int(unsafe.Offsetof(Vertex{}.Normal))
)

// FromAttributes zips separate attribute arrays into vertices.
// Missing texture coordinates default to zero and missing normals to +Y.
func FromAttributes(positions []mgl32.Vec3, texCoords []mgl32.Vec2, normals []mgl32.Vec3) []Vertex {
	out := make([]Vertex, len(positions))
	for i, p := range positions {
		out[i].Position = p
		if i < len(texCoords) {
			out[i].TexCoord = texCoords[i]
		}
		if i < len(normals) {
			out[i].Normal = normals[i]
		} else {
			out[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
	return out
}

// Positions extracts the position of every vertex.
func Positions(vertices []Vertex) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(vertices))
	for i := range vertices {
		out[i] = vertices[i].Position
	}
	return out
}
