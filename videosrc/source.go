// Package videosrc implements C3: an iterator over decoded RGB frames
// read from a video container, plus the container's total frame count.
package videosrc

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"
)

// Source reads frames from a video file with gocv.VideoCapture, the
// same capture primitive the teacher's detect.go and cvpipe package
// use for webcam and file input.
type Source struct {
	cap *gocv.VideoCapture
}

// Open opens path as a video source.
func Open(path string) (*Source, error) {
	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("videosrc: opening %s: %w", path, err)
	}
	return &Source{cap: cap}, nil
}

// Close releases the underlying capture device.
func (s *Source) Close() error {
	return s.cap.Close()
}

// TotalFrames reports the container's declared frame count, used to
// drive progress reporting (CAP_PROP_FRAME_COUNT).
func (s *Source) TotalFrames() int {
	return int(s.cap.Get(gocv.VideoCaptureFrameCount))
}

// Next returns the next decoded BGR frame. It returns io.EOF once the
// container is exhausted, matching rewind.Source's contract of a plain
// error terminating the sequence.
//
// The caller owns the returned Mat and must Close it (or hand it to
// something that will, e.g. rewind.Buffer's release callback).
func (s *Source) Next() (gocv.Mat, error) {
	frame := gocv.NewMat()
	if ok := s.cap.Read(&frame); !ok {
		frame.Close()
		return gocv.Mat{}, io.EOF
	}
	if frame.Empty() {
		frame.Close()
		return gocv.Mat{}, io.EOF
	}
	return frame, nil
}
