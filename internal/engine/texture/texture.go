// Package texture provides reference-counted GPU textures and the
// collection types that animated and composite materials bind through.
package texture

import (
	"image"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/Faultbox/scenegraph/internal/engine/gpu"
)

// ErrFrameCountMismatch is returned when combining sequences of different length.
var ErrFrameCountMismatch = errors.New("frame counts differ")

// Texture is an opaque reference-counted texture handle.
type Texture interface {
	Bind(ctx gpu.Context, wrap gpu.WrapMode) error
	Unbind(ctx gpu.Context)
	AddReference()
	Dispose()
	Handle() uint32
	Name() string
	Premultiplied() bool
	IsEmpty() bool
}

// Texture2D is a 2D texture uploaded from decoded pixels on first bind.
type Texture2D struct {
	name          string
	res           *gpu.Resource
	width, height int32
	premultiplied bool

	mu     sync.Mutex
	pixels []byte
}

// NewTexture2D stages img for upload. *image.NRGBA input keeps straight
// alpha; anything else is converted to premultiplied RGBA.
func NewTexture2D(name string, img image.Image) *Texture2D {
	t := &Texture2D{
		name: name,
		res:  gpu.NewResource(gpu.KindTexture),
	}
	b := img.Bounds()
	t.width, t.height = int32(b.Dx()), int32(b.Dy())

	if n, ok := img.(*image.NRGBA); ok && n.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		t.pixels = append([]byte(nil), n.Pix...)
		return t
	}
	t.pixels = ToRGBA(img, ConvertOptions{}).Pix
	t.premultiplied = true
	return t
}

func (t *Texture2D) Name() string        { return t.name }
func (t *Texture2D) Handle() uint32      { return t.res.Handle() }
func (t *Texture2D) Premultiplied() bool { return t.premultiplied }
func (t *Texture2D) IsEmpty() bool       { return false }

// Size returns the texture dimensions in pixels.
func (t *Texture2D) Size() (int32, int32) {
	return t.width, t.height
}

func (t *Texture2D) References() int {
	return t.res.References()
}

func (t *Texture2D) Bind(ctx gpu.Context, wrap gpu.WrapMode) error {
	h, allocated, err := t.res.Ensure(ctx)
	if err != nil {
		return errors.Wrapf(err, "bind texture %q", t.name)
	}
	if allocated {
		runtime.SetFinalizer(t, finalizeTexture)
	}
	d := ctx.Device()
	d.BindTexture(h)

	t.mu.Lock()
	if t.pixels != nil {
		d.TexImage2D(t.width, t.height, t.pixels)
		t.pixels = nil
	}
	t.mu.Unlock()

	d.SetTextureWrap(wrap)
	return nil
}

func (t *Texture2D) Unbind(ctx gpu.Context) {
	ctx.Device().BindTexture(0)
}

func (t *Texture2D) AddReference() {
	t.res.AddReference()
}

func (t *Texture2D) Dispose() {
	if t.res.Release(false, t) {
		runtime.SetFinalizer(t, nil)
	}
}

func finalizeTexture(t *Texture2D) {
	t.res.Orphan(t)
}

type emptyTexture struct{}

// Empty is the placeholder bound when a mesh has no texture.
var Empty Texture = emptyTexture{}

func (emptyTexture) Bind(ctx gpu.Context, _ gpu.WrapMode) error {
	ctx.Device().BindTexture(0)
	return nil
}

func (emptyTexture) Unbind(gpu.Context)  {}
func (emptyTexture) AddReference()       {}
func (emptyTexture) Dispose()            {}
func (emptyTexture) Handle() uint32      { return 0 }
func (emptyTexture) Name() string        { return "empty" }
func (emptyTexture) Premultiplied() bool { return false }
func (emptyTexture) IsEmpty() bool       { return true }
