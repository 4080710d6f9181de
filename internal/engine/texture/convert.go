package texture

import (
	"image"
	"image/color"
	"image/draw"
)

// ConvertOptions controls ToRGBA.
type ConvertOptions struct {
	// ColorKey, when set, becomes fully transparent.
	ColorKey *color.RGBA
	// FlipY stores rows bottom-up, matching GL texture origin.
	FlipY bool
}

// ToRGBA converts img to a tightly packed, alpha-premultiplied RGBA image.
func ToRGBA(img image.Image, opts ConvertOptions) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	if opts.ColorKey != nil {
		applyColorKey(rgba, *opts.ColorKey)
	}
	if opts.FlipY {
		flipRows(rgba.Pix, rgba.Stride, rgba.Bounds().Dy())
	}
	return rgba
}

func applyColorKey(img *image.RGBA, key color.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		if p[0] == key.R && p[1] == key.G && p[2] == key.B {
			p[0], p[1], p[2], p[3] = 0, 0, 0, 0
		}
	}
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
