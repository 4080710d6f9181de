package gputest

import (
	"github.com/Faultbox/scenegraph/internal/engine/gpu"
)

// FailDeletes makes every delete of kind return err. Pass nil to clear.
func (d *Device) FailDeletes(kind gpu.Kind, err error) {
	d.mu.Lock()
	d.deleteErr[kind] = err
	d.mu.Unlock()
}

// FailVertexArrayBinds makes the next n non-zero vertex array binds raise InvalidOperation.
func (d *Device) FailVertexArrayBinds(n int) {
	d.mu.Lock()
	d.failArrayBind = n
	d.mu.Unlock()
}

// RaiseError sets the pending error code.
func (d *Device) RaiseError(code uint32) {
	d.mu.Lock()
	d.pendingError = code
	d.mu.Unlock()
}

// Deleted returns the handles of kind deleted so far, in order.
func (d *Device) Deleted(kind gpu.Kind) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.deleted[kind]...)
}

// LiveBuffers returns the number of buffers not yet deleted.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LiveVertexArrays returns the number of vertex arrays not yet deleted.
func (d *Device) LiveVertexArrays() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.vertexArrays)
}

// LiveTextures returns the number of textures not yet deleted.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// BufferContents returns a copy of the bytes stored in buffer handle.
func (d *Device) BufferContents(handle uint32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.buffers[handle]...)
}

// TextureSize returns the dimensions last uploaded to texture handle.
func (d *Device) TextureSize(handle uint32) (int32, int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.textures[handle]
	return s[0], s[1]
}

// Uploads returns the number of successful BufferData calls.
func (d *Device) Uploads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads
}

// Draws returns every draw call issued.
func (d *Device) Draws() []DrawCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DrawCall(nil), d.draws...)
}

// Attribs returns every attribute pointer call issued.
func (d *Device) Attribs() []AttribCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]AttribCall(nil), d.attribs...)
}

// Wrap returns the last texture wrap mode set.
func (d *Device) Wrap() gpu.WrapMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap
}

// Clears returns the number of Clear calls.
func (d *Device) Clears() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// ViewportSize returns the last viewport set.
func (d *Device) ViewportSize() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport[0], d.viewport[1]
}

// Reset clears recorded draws and attribute calls.
func (d *Device) Reset() {
	d.mu.Lock()
	d.draws = nil
	d.attribs = nil
	d.mu.Unlock()
}
