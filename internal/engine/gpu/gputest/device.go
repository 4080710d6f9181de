// Package gputest provides in-memory fakes of the gpu package interfaces so
// resource lifetimes and draw calls can be verified without a GL context.
package gputest

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
	"github.com/Faultbox/scenegraph/pkg/mesh"
)

// InvalidOperation mirrors GL_INVALID_OPERATION.
const InvalidOperation uint32 = 0x0502

// AttribCall records one VertexAttribPointer call.
type AttribCall struct {
	VertexArray uint32
	Buffer      uint32
	Location    uint32
	Size        int32
	Stride      int32
	Offset      int
}

// DrawCall records one DrawElements call and the state it was issued under.
type DrawCall struct {
	VertexArray   uint32
	ElementBuffer uint32
	Texture       uint32
	Count         int32
	Width         mesh.IndexWidth
	DepthMask     bool
	Culling       bool
	Wireframe     bool
	Premultiplied bool
}

// Device is a thread-safe recording implementation of gpu.Device.
type Device struct {
	mu   sync.Mutex
	next uint32

	buffers      map[uint32][]byte
	vertexArrays map[uint32]bool
	textures     map[uint32][2]int32
	deleted      map[gpu.Kind][]uint32

	boundBuffer  map[gpu.Target]uint32
	boundArray   uint32
	boundTexture uint32
	elementOf    map[uint32]uint32
	enabled      map[uint32]bool

	attribs []AttribCall
	draws   []DrawCall
	uploads int
	clears  int

	viewport [2]int

	depthMask     bool
	culling       bool
	wireframe     bool
	premultiplied bool
	wrap          gpu.WrapMode

	pendingError  uint32
	failArrayBind int
	deleteErr     map[gpu.Kind]error
}

// NewDevice returns an empty fake device.
func NewDevice() *Device {
	return &Device{
		buffers:      map[uint32][]byte{},
		vertexArrays: map[uint32]bool{},
		textures:     map[uint32][2]int32{},
		deleted:      map[gpu.Kind][]uint32{},
		boundBuffer:  map[gpu.Target]uint32{},
		elementOf:    map[uint32]uint32{},
		enabled:      map[uint32]bool{},
		deleteErr:    map[gpu.Kind]error{},
		depthMask:    true,
	}
}

// NewContext returns a context dispatcher over a fresh fake device.
func NewContext() (*gpu.Thread, *Device) {
	d := NewDevice()
	return gpu.NewThread(d), d
}

func (d *Device) gen() uint32 {
	d.next++
	return d.next
}

func (d *Device) GenBuffer() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.gen()
	d.buffers[h] = nil
	return h
}

func (d *Device) DeleteBuffer(handle uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.deleteErr[gpu.KindBuffer]; err != nil {
		return err
	}
	if _, ok := d.buffers[handle]; !ok {
		return errors.Errorf("buffer %d is not live", handle)
	}
	delete(d.buffers, handle)
	d.deleted[gpu.KindBuffer] = append(d.deleted[gpu.KindBuffer], handle)
	return nil
}

func (d *Device) BindBuffer(target gpu.Target, handle uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundBuffer[target] = handle
	if target == gpu.ElementArrayBuffer && d.boundArray != 0 {
		d.elementOf[d.boundArray] = handle
	}
}

func (d *Device) BufferData(target gpu.Target, data []byte, _ gpu.Usage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.boundBuffer[target]
	if _, ok := d.buffers[h]; !ok || h == 0 {
		d.pendingError = InvalidOperation
		return
	}
	d.buffers[h] = append([]byte(nil), data...)
	d.uploads++
}

func (d *Device) GetBufferSubData(target gpu.Target, offset int, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	src := d.buffers[d.boundBuffer[target]]
	if offset > len(src) {
		return
	}
	copy(data, src[offset:])
}

func (d *Device) GenVertexArray() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.gen()
	d.vertexArrays[h] = true
	return h
}

func (d *Device) DeleteVertexArray(handle uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.deleteErr[gpu.KindVertexArray]; err != nil {
		return err
	}
	if !d.vertexArrays[handle] {
		return errors.Errorf("vertex array %d is not live", handle)
	}
	delete(d.vertexArrays, handle)
	d.deleted[gpu.KindVertexArray] = append(d.deleted[gpu.KindVertexArray], handle)
	return nil
}

func (d *Device) BindVertexArray(handle uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if handle != 0 && d.failArrayBind > 0 {
		d.failArrayBind--
		d.pendingError = InvalidOperation
		return
	}
	if handle != 0 && !d.vertexArrays[handle] {
		d.pendingError = InvalidOperation
		return
	}
	d.boundArray = handle
}

func (d *Device) EnableVertexAttrib(location uint32) {
	d.mu.Lock()
	d.enabled[location] = true
	d.mu.Unlock()
}

func (d *Device) DisableVertexAttrib(location uint32) {
	d.mu.Lock()
	d.enabled[location] = false
	d.mu.Unlock()
}

func (d *Device) VertexAttribPointer(location uint32, size, stride int32, offset int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attribs = append(d.attribs, AttribCall{
		VertexArray: d.boundArray,
		Buffer:      d.boundBuffer[gpu.ArrayBuffer],
		Location:    location,
		Size:        size,
		Stride:      stride,
		Offset:      offset,
	})
}

func (d *Device) GenTexture() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.gen()
	d.textures[h] = [2]int32{}
	return h
}

func (d *Device) DeleteTexture(handle uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.deleteErr[gpu.KindTexture]; err != nil {
		return err
	}
	if _, ok := d.textures[handle]; !ok {
		return errors.Errorf("texture %d is not live", handle)
	}
	delete(d.textures, handle)
	d.deleted[gpu.KindTexture] = append(d.deleted[gpu.KindTexture], handle)
	return nil
}

func (d *Device) BindTexture(handle uint32) {
	d.mu.Lock()
	d.boundTexture = handle
	d.mu.Unlock()
}

func (d *Device) TexImage2D(width, height int32, _ []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[d.boundTexture]; ok {
		d.textures[d.boundTexture] = [2]int32{width, height}
	}
}

func (d *Device) SetTextureWrap(mode gpu.WrapMode) {
	d.mu.Lock()
	d.wrap = mode
	d.mu.Unlock()
}

func (d *Device) DrawElements(count int32, width mesh.IndexWidth) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draws = append(d.draws, DrawCall{
		VertexArray:   d.boundArray,
		ElementBuffer: d.elementOf[d.boundArray],
		Texture:       d.boundTexture,
		Count:         count,
		Width:         width,
		DepthMask:     d.depthMask,
		Culling:       d.culling,
		Wireframe:     d.wireframe,
		Premultiplied: d.premultiplied,
	})
}

func (d *Device) GetError() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	code := d.pendingError
	d.pendingError = gpu.NoError
	return code
}

func (d *Device) SetDepthMask(enabled bool) {
	d.mu.Lock()
	d.depthMask = enabled
	d.mu.Unlock()
}

func (d *Device) SetCulling(enabled bool) {
	d.mu.Lock()
	d.culling = enabled
	d.mu.Unlock()
}

func (d *Device) SetWireframe(enabled bool) {
	d.mu.Lock()
	d.wireframe = enabled
	d.mu.Unlock()
}

func (d *Device) SetPremultipliedBlend(enabled bool) {
	d.mu.Lock()
	d.premultiplied = enabled
	d.mu.Unlock()
}

func (d *Device) Clear() {
	d.mu.Lock()
	d.clears++
	d.mu.Unlock()
}

func (d *Device) Viewport(width, height int) {
	d.mu.Lock()
	d.viewport = [2]int{width, height}
	d.mu.Unlock()
}

// ReadPixels returns an opaque black framebuffer of the requested size.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	for i := 3; i < len(pixels); i += 4 {
		pixels[i] = 255
	}
	return pixels
}
