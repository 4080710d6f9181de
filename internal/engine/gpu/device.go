// Package gpu defines the graphics device and context abstractions the scene
// graph renders through, plus reference-counted ownership of native handles.
package gpu

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// Kind identifies the type of native object behind a handle.
type Kind uint8

const (
	KindBuffer Kind = iota
	KindVertexArray
	KindTexture
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindVertexArray:
		return "vertex-array"
	case KindTexture:
		return "texture"
	}
	return "unknown"
}

func (k Kind) gen(d Device) uint32 {
	switch k {
	case KindBuffer:
		return d.GenBuffer()
	case KindVertexArray:
		return d.GenVertexArray()
	case KindTexture:
		return d.GenTexture()
	}
	return 0
}

func (k Kind) delete(d Device, handle uint32) error {
	switch k {
	case KindBuffer:
		return d.DeleteBuffer(handle)
	case KindVertexArray:
		return d.DeleteVertexArray(handle)
	case KindTexture:
		return d.DeleteTexture(handle)
	}
	return errors.Errorf("cannot delete %s handle %d", k, handle)
}

// Target is a buffer binding point.
type Target uint8

const (
	ArrayBuffer Target = iota
	ElementArrayBuffer
)

// Usage is the expected update frequency of buffer contents.
type Usage uint8

const (
	StaticDraw Usage = iota
	DynamicDraw
	StreamDraw
)

// ParseUsage maps a config usage hint onto a Usage.
func ParseUsage(s string) (Usage, error) {
	switch strings.ToLower(s) {
	case "", "static":
		return StaticDraw, nil
	case "dynamic":
		return DynamicDraw, nil
	case "stream":
		return StreamDraw, nil
	}
	return StaticDraw, errors.Errorf("unknown usage hint %q", s)
}

// WrapMode is a texture coordinate wrapping mode.
type WrapMode uint8

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// NoError is the value GetError returns when no error is pending.
const NoError uint32 = 0

// Device is the set of native graphics calls the engine issues.
// Every method must be called on the thread that owns the context.
type Device interface {
	GenBuffer() uint32
	DeleteBuffer(handle uint32) error
	BindBuffer(target Target, handle uint32)
	BufferData(target Target, data []byte, usage Usage)
	GetBufferSubData(target Target, offset int, data []byte)

	GenVertexArray() uint32
	DeleteVertexArray(handle uint32) error
	BindVertexArray(handle uint32)
	EnableVertexAttrib(location uint32)
	DisableVertexAttrib(location uint32)
	VertexAttribPointer(location uint32, size, stride int32, offset int)

	GenTexture() uint32
	DeleteTexture(handle uint32) error
	BindTexture(handle uint32)
	TexImage2D(width, height int32, pixels []byte)
	SetTextureWrap(mode WrapMode)

	DrawElements(count int32, width mesh.IndexWidth)
	GetError() uint32

	SetDepthMask(enabled bool)
	SetCulling(enabled bool)
	SetWireframe(enabled bool)
	SetPremultipliedBlend(enabled bool)
}

// Context is a graphics context that GPU work can be dispatched to.
type Context interface {
	ID() uint64
	Device() Device
	// IsCurrent reports whether the context is active for immediate calls.
	IsCurrent() bool
	// Enqueue schedules action on the context thread. It returns false
	// if the context is gone and the action will never run.
	Enqueue(action func(Device)) bool
}
