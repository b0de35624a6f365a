// Package muxer writes a sequence of DDM frames to a VP9-lossless,
// GBRP video container by shelling out to ffmpeg, the same
// subprocess-with-piped-stdin pattern the teacher's
// client.StreamProcess and cvpipe.Pipeline use for their GStreamer
// encoders (§6's "generate mode" writes a standalone video file
// instead of driving a live display).
package muxer

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
)

// Writer implements encoder.Sink by piping raw RGB24 frames into an
// ffmpeg process that encodes them as VP9 lossless, pixel format
// GBRP, at the given (nominal, time-base-only) frame rate.
type Writer struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	width int
	height int
	buf   []byte
}

// New starts an ffmpeg subprocess that reads width x height RGB24
// frames from stdin and muxes them into outPath as VP9 lossless/GBRP
// at fps (a time-base only; playback rate is a separate concern,
// per §6).
func New(outPath string, width, height, fps int) (*Writer, error) {
	args := []string{
		"-hide_banner", "-loglevel", "warning", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprint(fps),
		"-i", "-",
		"-c:v", "libvpx-vp9",
		"-lossless", "1",
		"-pix_fmt", "gbrp",
		outPath,
	}

	cmd := exec.Command("ffmpeg", args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("muxer: ffmpeg stdin: %w", err)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("muxer: starting ffmpeg: %w", err)
	}

	return &Writer{cmd: cmd, stdin: stdin, width: width, height: height}, nil
}

// Show writes one frame to the encoder's stdin, converting img's
// NRGBA pixels to packed RGB24 (ffmpeg's rawvideo input format).
func (w *Writer) Show(img *image.NRGBA) error {
	n := w.width * w.height
	if cap(w.buf) < n*3 {
		w.buf = make([]byte, n*3)
	}
	buf := w.buf[:n*3]

	for i := 0; i < n; i++ {
		buf[i*3+0] = img.Pix[i*4+0]
		buf[i*3+1] = img.Pix[i*4+1]
		buf[i*3+2] = img.Pix[i*4+2]
	}

	if _, err := w.stdin.Write(buf); err != nil {
		return fmt.Errorf("muxer: writing frame to ffmpeg: %w", err)
	}
	return nil
}

// Close finishes the stream: closing stdin signals EOF to ffmpeg,
// then Close waits for it to finish writing the container.
func (w *Writer) Close() error {
	if err := w.stdin.Close(); err != nil {
		return fmt.Errorf("muxer: closing ffmpeg stdin: %w", err)
	}
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("muxer: ffmpeg: %w", err)
	}
	return nil
}
