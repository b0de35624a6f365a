// Package decode implements C5: the two-tier symbol decoder that
// extracts a packet from one RGB video frame, fast first, falling back
// to a slower but more resilient path on request.
package decode

import (
	"image"

	"gocv.io/x/gocv"
)

// Reader is the pixel-level symbol recognition capability this package
// builds its fast/precise strategies on top of. It corresponds to
// whatever barcode engine backs detection and decoding; this package
// only depends on this interface so that engine is swappable, per
// §9's "Two-tier decoder as strategy" note.
type Reader interface {
	// Detect locates a single symbol's bounding quadrilateral in img
	// and reports whether one was found.
	Detect(img gocv.Mat) (image.Rectangle, bool)
	// Decode attempts to read a symbol's payload from img as-is,
	// without first detecting or cropping it.
	Decode(img gocv.Mat) ([]byte, bool)
}

// QRCodeReader is the default Reader, backed by OpenCV's built-in
// QRCodeDetector (gocv.io/x/gocv's wrapper around cv::QRCodeDetector).
// The source project's fast path used cv2.QRCodeDetector() directly
// and its precise path used a QReader wrapper over the same family of
// detectors; in Go, gocv's QRCodeDetector is the equivalent real
// dependency for both tiers. A dedicated Data Matrix reader binding
// can be substituted by implementing Reader without touching this
// package's decode logic.
type QRCodeReader struct {
	detector gocv.QRCodeDetector
}

// NewQRCodeReader constructs a QRCodeReader. Callers must call Close
// when done.
func NewQRCodeReader() *QRCodeReader {
	return &QRCodeReader{detector: gocv.NewQRCodeDetector()}
}

// Close releases the underlying OpenCV detector.
func (r *QRCodeReader) Close() error {
	return r.detector.Close()
}

// Detect reports the bounding rectangle of a symbol in img, if any.
func (r *QRCodeReader) Detect(img gocv.Mat) (image.Rectangle, bool) {
	points := gocv.NewMat()
	defer points.Close()

	if !r.detector.Detect(img, &points) {
		return image.Rectangle{}, false
	}
	return quadBounds(points, img.Cols(), img.Rows()), true
}

// Decode attempts to detect-and-decode img without a pre-supplied crop.
func (r *QRCodeReader) Decode(img gocv.Mat) ([]byte, bool) {
	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	text := r.detector.DetectAndDecode(img, &points, &straight)
	if text == "" {
		return nil, false
	}
	return []byte(text), true
}

// quadBounds converts the detector's 4-point quadrilateral (a 4x1
// Mat of 2-channel float32 points) into an axis-aligned rectangle,
// clamped to the frame so a symbol near the border never produces a
// degenerate x2<x1/y2<y1 box (§9 open question).
func quadBounds(points gocv.Mat, frameW, frameH int) image.Rectangle {
	if points.Empty() || points.Rows() == 0 {
		return image.Rect(0, 0, frameW, frameH)
	}

	minX, minY := float32(frameW), float32(frameH)
	maxX, maxY := float32(0), float32(0)

	n := points.Total()
	data, err := points.DataPtrFloat32()
	if err != nil || len(data) < n*2 {
		return image.Rect(0, 0, frameW, frameH)
	}

	for i := 0; i < n; i++ {
		x, y := data[2*i], data[2*i+1]
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	r := image.Rect(int(minX), int(minY), int(maxX), int(maxY)).Intersect(image.Rect(0, 0, frameW, frameH))
	if r.Dx() <= 0 || r.Dy() <= 0 {
		// Degenerate crop: fall back to the full frame rather than
		// handing the caller an unusable rectangle.
		return image.Rect(0, 0, frameW, frameH)
	}
	return r
}
