package texture

import (
	"image"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp" // BMP decoder registration
)

// Decode reads an encoded image from r and stages it as a texture.
func Decode(name string, r io.Reader) (*Texture2D, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode texture %s", name)
	}
	if img.Bounds().Empty() {
		return nil, errors.Errorf("texture %s (%s) has no pixels", name, format)
	}
	return NewTexture2D(name, img), nil
}

// Load decodes the image file at path. The texture is named after the file.
func Load(path string) (*Texture2D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open texture")
	}
	defer f.Close()
	return Decode(filepath.Base(path), f)
}
