package decode

import "gocv.io/x/gocv"

// decodeFast implements §4.8's fast path (mode 0): split into R/G/B,
// detect each channel's symbol quadrilateral, crop, and decode the
// crop. Any per-channel detection or decode failure fails the whole
// frame, on the theory that a partial capture is worse than no
// capture — the caller will rewind and retry under the precise path.
func decodeFast(r Reader, frame gocv.Mat) (layers [3][]byte, ok bool) {
	l0, l1, l2 := splitChannels(frame)
	defer closeAll(l0, l1, l2)

	channels := [3]gocv.Mat{l0, l1, l2}
	for i, ch := range channels {
		color := gocv.NewMat()
		gocv.CvtColor(ch, &color, gocv.ColorGrayToBGR)

		rect, found := r.Detect(color)
		if !found {
			color.Close()
			return layers, false
		}

		crop := color.Region(rect)
		data, decoded := r.Decode(crop)
		crop.Close()
		color.Close()

		// The real detector can't distinguish "decoded to zero bytes"
		// from "failed to decode" (both surface as an empty string), so
		// unlike the idealized spec text we can't separately accept a
		// legitimately-empty trailing channel here; any failure aborts
		// the whole frame and the driver retries under the precise path.
		if !decoded {
			return layers, false
		}
		layers[i] = data
	}

	return layers, true
}
