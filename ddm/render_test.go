package ddm

import (
	"image"
	"testing"

	"github.com/bindreams/vis-transfer/packet"
	"github.com/bindreams/vis-transfer/sizeclass"
	"github.com/stretchr/testify/require"
)

// solidRasterizer returns a uniformly-shaded bitmap whose brightness
// encodes which layer it was asked to render, so tests can assert each
// output channel came from the right layer without a real barcode
// engine.
type solidRasterizer struct {
	calls [][]byte
}

func (s *solidRasterizer) Rasterize(data []byte, class sizeclass.Class) (*image.Gray, error) {
	s.calls = append(s.calls, data)
	shade := byte(len(s.calls) * 50)
	img := image.NewGray(image.Rect(0, 0, class.Size, class.Size))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return img, nil
}

func TestRenderComposesThreeChannels(t *testing.T) {
	class := sizeclass.Table[sizeclass.Default]
	layers := packet.Layers{[]byte("r"), []byte("g"), []byte("b")}

	r := &solidRasterizer{}
	img, err := Render(r, layers, class)
	require.NoError(t, err)
	require.Len(t, r.calls, 3)

	px := img.NRGBAAt(0, 0)
	require.EqualValues(t, 50, px.R)
	require.EqualValues(t, 100, px.G)
	require.EqualValues(t, 150, px.B)
	require.EqualValues(t, 255, px.A)
}

func TestTargetSizeFloorsToMultiple(t *testing.T) {
	class := sizeclass.Table[sizeclass.Default] // size 96
	require.Equal(t, 960, TargetSize(1000, class))
	require.Equal(t, 96, TargetSize(96, class))
	require.Equal(t, 96, TargetSize(50, class)) // below one symbol width
}

func TestUpscaleIsNearestNeighborSized(t *testing.T) {
	class := sizeclass.Table[sizeclass.Default]
	r := &solidRasterizer{}
	img, err := Render(r, packet.Layers{[]byte("a"), []byte("b"), []byte("c")}, class)
	require.NoError(t, err)

	up := Upscale(img, 960)
	require.Equal(t, 960, up.Bounds().Dx())
	require.Equal(t, 960, up.Bounds().Dy())

	// Nearest-neighbor must preserve hard block edges: a pixel taken from
	// well within one source module's upscaled footprint must exactly
	// match that module's original color, with no blending.
	require.Equal(t, img.NRGBAAt(0, 0), up.NRGBAAt(5, 5))
}
