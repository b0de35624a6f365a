// Command vis-recv is the receiver CLI: it reads a recorded video
// container frame by frame and reassembles the file it encodes,
// per spec.md §6 ("vis-recv INPUT -o OUTPUT [-f]").
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bindreams/vis-transfer/assembler"
	"github.com/bindreams/vis-transfer/decode"
	"github.com/bindreams/vis-transfer/rewind"
	"github.com/bindreams/vis-transfer/sizeclass"
	"github.com/bindreams/vis-transfer/videosrc"
	"gocv.io/x/gocv"
)

func main() {
	fs := flag.NewFlagSet("vis-recv", flag.ExitOnError)
	out := fs.String("o", "", "output file path")
	force := fs.Bool("f", false, "overwrite the output file if it already exists")
	size := fs.Int("size", sizeclass.Default, "symbol size class, must match the sender")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: vis-recv INPUT -o OUTPUT [-f]")
		os.Exit(2)
	}
	input := fs.Arg(0)

	if err := run(input, *out, *size, *force); err != nil {
		log.Fatalf("[decode] %v", err)
	}
}

func run(input, output string, size int, force bool) error {
	if !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output %s already exists (pass -f to overwrite)", output)
		}
	}

	class, err := sizeclass.Lookup(size)
	if err != nil {
		return err
	}

	src, err := videosrc.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	reader := decode.NewQRCodeReader()
	defer reader.Close()
	dec := decode.New(reader)

	buf := rewind.New[gocv.Mat](src, decode.MaxMode, func(m gocv.Mat) { m.Close() })
	driver := assembler.New[gocv.Mat](buf, dec, class.PacketSize())
	driver.TotalFrames = src.TotalFrames()
	driver.OnProgress = func(p assembler.Progress) {
		log.Printf("[decode] mode=%d frame=%d/%d bytes=%d/%d",
			p.Mode, p.FrameOrdinal, p.TotalFrames, p.BytesAssembled, p.ExpectedSize)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := driver.Run(f); err != nil {
		os.Remove(output)
		return err
	}
	return nil
}
