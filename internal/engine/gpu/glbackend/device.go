// Package glbackend implements gpu.Device on top of OpenGL 4.1 core.
package glbackend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/internal/logger"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// Device issues calls against the GL context current on the calling thread.
type Device struct{}

// New initializes the GL function pointers and default state.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	return &Device{}, nil
}

var _ gpu.Device = (*Device)(nil)

func target(t gpu.Target) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func usage(u gpu.Usage) uint32 {
	switch u {
	case gpu.DynamicDraw:
		return gl.DYNAMIC_DRAW
	case gpu.StreamDraw:
		return gl.STREAM_DRAW
	}
	return gl.STATIC_DRAW
}

func indexType(w mesh.IndexWidth) uint32 {
	switch w {
	case mesh.Width8:
		return gl.UNSIGNED_BYTE
	case mesh.Width16:
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}

func wrapMode(m gpu.WrapMode) int32 {
	switch m {
	case gpu.WrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case gpu.WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.REPEAT
}

// checkError drains the error queue after a delete and reports the first code.
func checkError(op string, handle uint32) error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	for i := 0; i < 8 && gl.GetError() != gl.NO_ERROR; i++ {
	}
	return fmt.Errorf("%s %d: GL error 0x%x", op, handle, code)
}

func (d *Device) GenBuffer() uint32 {
	var h uint32
	gl.GenBuffers(1, &h)
	return h
}

func (d *Device) DeleteBuffer(handle uint32) error {
	gl.DeleteBuffers(1, &handle)
	return checkError("delete buffer", handle)
}

func (d *Device) BindBuffer(t gpu.Target, handle uint32) {
	gl.BindBuffer(target(t), handle)
}

func (d *Device) BufferData(t gpu.Target, data []byte, u gpu.Usage) {
	if len(data) == 0 {
		gl.BufferData(target(t), 0, nil, usage(u))
		return
	}
	gl.BufferData(target(t), len(data), unsafe.Pointer(&data[0]), usage(u))
}

func (d *Device) GetBufferSubData(t gpu.Target, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.GetBufferSubData(target(t), offset, len(data), unsafe.Pointer(&data[0]))
}

func (d *Device) GenVertexArray() uint32 {
	var h uint32
	gl.GenVertexArrays(1, &h)
	return h
}

func (d *Device) DeleteVertexArray(handle uint32) error {
	gl.DeleteVertexArrays(1, &handle)
	return checkError("delete vertex array", handle)
}

func (d *Device) BindVertexArray(handle uint32) {
	gl.BindVertexArray(handle)
}

func (d *Device) EnableVertexAttrib(location uint32) {
	gl.EnableVertexAttribArray(location)
}

func (d *Device) DisableVertexAttrib(location uint32) {
	gl.DisableVertexAttribArray(location)
}

func (d *Device) VertexAttribPointer(location uint32, size, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, stride, uintptr(offset))
}

func (d *Device) GenTexture() uint32 {
	var h uint32
	gl.GenTextures(1, &h)
	return h
}

func (d *Device) DeleteTexture(handle uint32) error {
	gl.DeleteTextures(1, &handle)
	return checkError("delete texture", handle)
}

func (d *Device) BindTexture(handle uint32) {
	gl.BindTexture(gl.TEXTURE_2D, handle)
}

func (d *Device) TexImage2D(width, height int32, pixels []byte) {
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = unsafe.Pointer(&pixels[0])
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
}

func (d *Device) SetTextureWrap(mode gpu.WrapMode) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(mode))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(mode))
}

func (d *Device) DrawElements(count int32, width mesh.IndexWidth) {
	gl.DrawElements(gl.TRIANGLES, count, indexType(width), nil)
}

func (d *Device) GetError() uint32 {
	return gl.GetError()
}

func (d *Device) SetDepthMask(enabled bool) {
	gl.DepthMask(enabled)
}

func (d *Device) SetCulling(enabled bool) {
	if enabled {
		gl.Enable(gl.CULL_FACE)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
}

func (d *Device) SetWireframe(enabled bool) {
	if enabled {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

func (d *Device) SetPremultipliedBlend(enabled bool) {
	if enabled {
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
}

// Clear clears the color and depth buffers.
func (d *Device) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Viewport sets the drawable area.
func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ReadPixels reads the framebuffer as bottom-up RGBA rows.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}
