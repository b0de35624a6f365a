// Command vis-send is the sender CLI: it drives the encoder pipeline
// either to a live full-screen window or, in "generate" mode, to a
// standalone video file, per spec.md §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"

	"github.com/bindreams/vis-transfer/ddm"
	"github.com/bindreams/vis-transfer/encoder"
	"github.com/bindreams/vis-transfer/muxer"
	"github.com/bindreams/vis-transfer/rasterizer"
	"github.com/bindreams/vis-transfer/sizeclass"
	"gocv.io/x/gocv"
)

const defaultFPS = 15

func main() {
	if len(os.Args) > 1 && os.Args[1] == "generate" {
		runGenerate(os.Args[2:])
		return
	}
	runLive(os.Args[1:])
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("vis-send generate", flag.ExitOnError)
	out := fs.String("o", "", "output video path")
	size := fs.Int("size", sizeclass.Default, "symbol size class")
	pixels := fs.Int("pixels", 960, "output frame side length, as if displayed on a screen this tall/wide")
	fs.Parse(args)

	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: vis-send generate INPUT -o OUTPUT")
		os.Exit(2)
	}

	class, err := sizeclass.Lookup(*size)
	if err != nil {
		log.Fatalf("[encode] %v", err)
	}
	target := ddm.TargetSize(*pixels, class)

	src, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("[encode] %v", err)
	}
	defer src.Close()

	r := rasterizer.New()
	defer r.Close()

	w, err := muxer.New(*out, target, target, 1) // time-base only per §6; playback rate is separate
	if err != nil {
		log.Fatalf("[encode] %v", err)
	}

	d := encoder.New(r, class, defaultFPS, target)
	log.Printf("[encode] estimated display duration: %s", d.EstimatedDuration(estimateBlocks(src, class)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := d.Run(ctx, src, w); err != nil {
		w.Close()
		log.Fatalf("[encode] %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("[encode] %v", err)
	}
}

func runLive(args []string) {
	fs := flag.NewFlagSet("vis-send", flag.ExitOnError)
	size := fs.Int("size", sizeclass.Default, "symbol size class")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vis-send INPUT")
		os.Exit(2)
	}

	class, err := sizeclass.Lookup(*size)
	if err != nil {
		log.Fatalf("[encode] %v", err)
	}

	src, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("[encode] %v", err)
	}
	defer src.Close()

	r := rasterizer.New()
	defer r.Close()

	window := gocv.NewWindow("vis-send")
	defer window.Close()
	window.ResizeWindow(960, 960)

	sink := &windowSink{window: window}
	target := ddm.TargetSize(960, class)
	d := encoder.New(r, class, defaultFPS, target)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := d.Run(ctx, src, sink); err != nil {
		log.Fatalf("[encode] %v", err)
	}
}

// windowSink adapts a gocv.Window to encoder.Sink for the live display
// path, the same window.IMShow usage as the teacher's detect.go loop.
type windowSink struct {
	window *gocv.Window
	buf    []byte
}

func (s *windowSink) Show(img *image.NRGBA) error {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	n := w * h
	if cap(s.buf) < n*3 {
		s.buf = make([]byte, n*3)
	}
	buf := s.buf[:n*3]
	for i := 0; i < n; i++ {
		// window.IMShow expects BGR; img.Pix is R,G,B,A.
		buf[i*3+0] = img.Pix[i*4+2]
		buf[i*3+1] = img.Pix[i*4+1]
		buf[i*3+2] = img.Pix[i*4+0]
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return fmt.Errorf("windowSink: %w", err)
	}
	defer mat.Close()

	s.window.IMShow(mat)
	s.window.WaitKey(1)
	return nil
}

func estimateBlocks(f *os.File, class sizeclass.Class) uint64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	blockSize := uint64(class.BlockSize())
	if blockSize == 0 {
		return 0
	}
	size := uint64(info.Size())
	count := size / blockSize
	if size%blockSize != 0 {
		count++
	}
	return count
}
