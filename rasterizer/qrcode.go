// Package rasterizer provides the default ddm.Rasterizer backend used
// by cmd/vis-send. §1 treats the barcode rasterizer as a replaceable
// external library the core only consumes through an interface; this
// package is that concrete default, not part of the protocol core.
//
// No Data Matrix *encoder* binding appears anywhere in the retrieval
// pack (gocv wraps OpenCV's QR detector/decoder, used by decode.Reader
// for the same reason, but not a Data Matrix writer). This backend
// uses gocv's QRCodeEncoder as the stand-in symbology, matching the
// tradeoff decode.QRCodeReader already makes on the receive side. A
// deployment with a real zint or libdmtx binding can swap this package
// out without touching ddm, encoder, or anything downstream.
package rasterizer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bindreams/vis-transfer/sizeclass"
	"gocv.io/x/gocv"
)

// QRCode rasterizes each layer as a QR symbol sized to fill the
// requested size class's dot grid.
type QRCode struct {
	enc gocv.QRCodeEncoder
}

// New constructs a QRCode rasterizer. Callers must call Close when
// done with it.
func New() *QRCode {
	return &QRCode{enc: gocv.NewQRCodeEncoder()}
}

// Close releases the underlying OpenCV encoder.
func (q *QRCode) Close() error {
	return q.enc.Close()
}

// Rasterize encodes data as a QR symbol and resizes it with
// nearest-neighbor sampling to class.Size x class.Size, matching the
// module-for-module bit-grid contract ddm.Render expects from a
// Rasterizer.
func (q *QRCode) Rasterize(data []byte, class sizeclass.Class) (*image.Gray, error) {
	symbol := gocv.NewMat()
	defer symbol.Close()

	if err := q.enc.Encode(string(data), &symbol); err != nil {
		return nil, fmt.Errorf("rasterizer: encoding %d bytes: %w", len(data), err)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(symbol, &resized, image.Pt(class.Size, class.Size), 0, 0, gocv.InterpolationNearestNeighbor)

	out := image.NewGray(image.Rect(0, 0, class.Size, class.Size))
	for y := 0; y < class.Size; y++ {
		for x := 0; x < class.Size; x++ {
			v, err := resized.GetUCharAt(y, x)
			if err != nil {
				return nil, fmt.Errorf("rasterizer: reading pixel (%d,%d): %w", x, y, err)
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out, nil
}
