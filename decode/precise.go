package decode

import (
	"image"

	"gocv.io/x/gocv"
)

// thresholdSteps mirrors the source's range(32, 192+1, 16): eleven
// fixed thresholds tried in order after the as-is and Otsu attempts
// both fail.
var thresholdSteps = func() []float32 {
	steps := make([]float32, 0, 11)
	for t := 32; t <= 192; t += 16 {
		steps = append(steps, float32(t))
	}
	return steps
}()

// decodePrecise implements §4.8's precise path (mode 1): for each
// channel independently, try strategies in order until one succeeds.
func decodePrecise(r Reader, frame gocv.Mat) (layers [3][]byte, ok bool) {
	l0, l1, l2 := splitChannels(frame)
	defer closeAll(l0, l1, l2)

	channels := [3]gocv.Mat{l0, l1, l2}
	for i, ch := range channels {
		data, decoded := decodeChannelPrecise(r, ch)
		if !decoded {
			return layers, false
		}
		layers[i] = data
	}
	return layers, true
}

func decodeChannelPrecise(r Reader, gray gocv.Mat) ([]byte, bool) {
	// (a) convert as-is to BGR and decode.
	if data, ok := tryGrayDecode(r, gray); ok {
		return data, true
	}

	// (b) Otsu threshold, then decode.
	otsu := gocv.NewMat()
	gocv.Threshold(gray, &otsu, 128, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)
	data, ok := tryGrayDecode(r, otsu)
	otsu.Close()
	if ok {
		return data, true
	}

	// (c) fixed thresholds over a lightly blurred copy.
	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	defer blurred.Close()

	for _, t := range thresholdSteps {
		th := gocv.NewMat()
		gocv.Threshold(blurred, &th, t, 255, gocv.ThresholdBinary)
		data, ok := tryGrayDecode(r, th)
		th.Close()
		if ok {
			return data, true
		}
	}

	return nil, false
}

// tryGrayDecode converts a single-channel Mat to BGR and attempts a
// decode, matching the source's cv2.cvtColor(..., COLOR_GRAY2RGB) step
// before every attempt.
func tryGrayDecode(r Reader, gray gocv.Mat) ([]byte, bool) {
	color := gocv.NewMat()
	defer color.Close()
	gocv.CvtColor(gray, &color, gocv.ColorGrayToBGR)
	return r.Decode(color)
}
