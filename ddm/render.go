// Package ddm implements C1: composing three independently-rasterized
// Data Matrix layers into one RGB "dense datamatrix" image, upscaled
// with nearest-neighbor sampling to a target pixel size.
package ddm

import (
	"fmt"
	"image"

	"github.com/bindreams/vis-transfer/packet"
	"github.com/bindreams/vis-transfer/sizeclass"
	"golang.org/x/image/draw"
)

// Rasterizer is the external collaborator (§1: "treated as a
// replaceable library") that turns a layer's raw bytes into a
// single-channel symbol_size x symbol_size bit-grid. This package only
// defines the interface it consumes; a concrete implementation (e.g. a
// zint or dmtx binding) is supplied by the caller.
type Rasterizer interface {
	// Rasterize encodes data as one Data Matrix symbol and returns its
	// bit-grid as a class.Size x class.Size grayscale image, where
	// black pixels are module 1 and white pixels are module 0.
	Rasterize(data []byte, class sizeclass.Class) (*image.Gray, error)
}

// Render composes three layers into one class.Size x class.Size RGB
// image (R = layers[0], G = layers[1], B = layers[2]), matching
// §4.4: "combining them as three channels."
func Render(r Rasterizer, layers packet.Layers, class sizeclass.Class) (*image.NRGBA, error) {
	s := class.Size
	out := image.NewNRGBA(image.Rect(0, 0, s, s))

	for i, data := range layers {
		gray, err := r.Rasterize(data, class)
		if err != nil {
			return nil, fmt.Errorf("ddm: rasterizing layer %d: %w", i, err)
		}
		if gray.Bounds().Dx() != s || gray.Bounds().Dy() != s {
			return nil, fmt.Errorf("ddm: rasterizer returned %dx%d bitmap, want %dx%d",
				gray.Bounds().Dx(), gray.Bounds().Dy(), s, s)
		}

		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				v := gray.GrayAt(x, y).Y
				idx := out.PixOffset(x, y)
				out.Pix[idx+i] = v // channel i of this pixel <- this layer's module value
				out.Pix[idx+3] = 255
			}
		}
	}

	return out, nil
}

// TargetSize returns the largest multiple of class.Size not exceeding
// screenMinSide, per §4.4/§6: T = floor(screen_min_side / s) * s. When
// screenMinSide is smaller than class.Size it returns class.Size.
func TargetSize(screenMinSide int, class sizeclass.Class) int {
	if class.Size <= 0 || screenMinSide < class.Size {
		return class.Size
	}
	return (screenMinSide / class.Size) * class.Size
}

// Upscale resizes img to target x target using nearest-neighbor
// sampling. Nearest-neighbor is mandatory (§4.4): any smoothing filter
// blurs the module boundaries the decoder relies on.
func Upscale(img *image.NRGBA, target int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, target, target))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
