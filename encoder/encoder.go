// Package encoder implements C2, the encoder driver: it drives L4's
// packet stream through the L3/L2 codecs and the C1 renderer at a
// fixed frame rate, handing finished images to a Sink one at a time.
package encoder

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/bindreams/vis-transfer/ddm"
	"github.com/bindreams/vis-transfer/header"
	"github.com/bindreams/vis-transfer/packet"
	"github.com/bindreams/vis-transfer/sizeclass"
	"github.com/bindreams/vis-transfer/stream"
)

// queueDepth is the renderer thread's bounded output channel capacity
// (§4.5: "a bounded channel of capacity 2... the natural backpressure
// mechanism").
const queueDepth = 2

// Sink receives one rendered DDM frame at a time, in order, at the
// driver's configured frame rate. Show must not block for longer than
// necessary to hand the frame to the display or the video muxer
// (§4.5: "Never blocks on rendering" is the UI thread's obligation,
// not Sink's, but a slow Sink still holds up the tick).
type Sink interface {
	Show(img *image.NRGBA) error
}

// Driver holds the frame rate, target pixel size, and rasterizer/size
// class used to build each frame. The current block index is tracked by
// the stream.Stream that Run creates, not by Driver.
type Driver struct {
	rasterizer ddm.Rasterizer
	class      sizeclass.Class
	fps        float64
	targetSize int
}

// New returns a Driver that renders with rasterizer at class, upscaled
// to targetSize, ticking at fps frames per second.
func New(rasterizer ddm.Rasterizer, class sizeclass.Class, fps float64, targetSize int) *Driver {
	return &Driver{rasterizer: rasterizer, class: class, fps: fps, targetSize: targetSize}
}

// EstimatedDuration returns how long a transfer of blockCount payload
// packets plus the header frame will take to display, mirroring the
// source's est_time_string (§ SPEC_FULL "estimated_time"). It is a
// pure function of already-tracked state, so it lives in the core
// even though the string formatting belongs to CLI/GUI glue.
func (d *Driver) EstimatedDuration(blockCount uint64) time.Duration {
	frames := float64(blockCount + 1) // +1 for the header frame
	return time.Duration(frames / d.fps * float64(time.Second))
}

// renderedFrame is one item on the renderer thread's output channel.
type renderedFrame struct {
	img *image.NRGBA
	err error
}

// Run executes the full send-side pipeline over src, writing rendered
// frames to sink at the driver's frame rate until the stream is
// exhausted or ctx is cancelled.
//
// Two goroutines cooperate exactly as §5 describes: this goroutine is
// the "UI thread," owning the ticker and the Sink; a background
// goroutine is the "renderer thread," owning src and the L4/L2/C1
// pipeline, pushing onto a capacity-2 channel that provides
// backpressure. Cancelling ctx sets the renderer's abort path and this
// goroutine drains the channel before returning, so the renderer
// always observes cancellation and exits instead of blocking forever
// on a full channel.
func (d *Driver) Run(ctx context.Context, src io.ReadSeeker, sink Sink) error {
	info, err := stream.ComputeInfo(src)
	if err != nil {
		return fmt.Errorf("encoder: computing stream info: %w", err)
	}

	packetSize := d.class.PacketSize()
	headerLayers, err := header.Build(header.Header{
		FileSize:   info.FileSize,
		PacketSize: uint16(packetSize),
		SHA3_256:   info.SHA3_256,
	})
	if err != nil {
		return fmt.Errorf("encoder: building header packet: %w", err)
	}

	frames := make(chan renderedFrame, queueDepth)
	var wg sync.WaitGroup
	wg.Add(1)
	go d.renderLoop(ctx, src, headerLayers, packetSize, frames, &wg)

	period := time.Duration(float64(time.Second) / d.fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				wg.Wait()
				return nil
			}
			if frame.err != nil {
				d.drain(frames)
				wg.Wait()
				return frame.err
			}
			if err := sink.Show(frame.img); err != nil {
				d.drain(frames)
				wg.Wait()
				return fmt.Errorf("encoder: sink: %w", err)
			}
		case <-ctx.Done():
			d.drain(frames)
			wg.Wait()
			return ctx.Err()
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			d.drain(frames)
			wg.Wait()
			return ctx.Err()
		}
	}
}

// renderLoop is the renderer thread: it owns src and pushes the header
// frame followed by every payload frame onto out, checking ctx before
// every push (§5: "An abort flag is checked before every push").
func (d *Driver) renderLoop(ctx context.Context, src io.ReadSeeker, headerLayers packet.Layers, packetSize int, out chan<- renderedFrame, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(out)

	if !d.push(ctx, out, headerLayers) {
		return
	}

	st := stream.New(src, packetSize)
	for {
		_, layers, err := st.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			select {
			case out <- renderedFrame{err: fmt.Errorf("encoder: reading next packet: %w", err)}:
			case <-ctx.Done():
			}
			return
		}
		if !d.push(ctx, out, layers) {
			return
		}
	}
}

// push renders one packet's layers and sends it on out, honoring
// cancellation both before rendering (no point doing CPU work for a
// frame nobody will display) and while blocked on the bounded channel.
func (d *Driver) push(ctx context.Context, out chan<- renderedFrame, layers packet.Layers) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	img, err := ddm.Render(d.rasterizer, layers, d.class)
	if err == nil {
		img = ddm.Upscale(img, d.targetSize)
	}

	select {
	case out <- renderedFrame{img: img, err: err}:
		return err == nil
	case <-ctx.Done():
		return false
	}
}

// drain empties frames so a renderer goroutine blocked on a full
// channel can observe cancellation and exit, per §5's join sequencing.
func (d *Driver) drain(frames <-chan renderedFrame) {
	for range frames {
	}
}
