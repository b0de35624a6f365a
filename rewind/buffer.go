// Package rewind implements C4: a bounded backlog of the most recently
// decoded frames, replayable under an escalating sequence of decoder
// modes when the driver fails to make progress.
package rewind

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned by NextFrame when the underlying Source is
// exhausted.
var ErrEndOfStream = errors.New("rewind: end of stream")

// ErrDecodeFailure is returned by Rewind when every decoder mode has
// already been tried at the current read position, and by NextFrame
// when the backlog would grow past MaxBacklog.
var ErrDecodeFailure = errors.New("rewind: exhausted all decode strategies")

// Source yields successive frames, e.g. a video frame reader (C3).
type Source[F any] interface {
	Next() (F, error)
}

// DefaultMaxBacklog is the sanity cap on how many frames Buffer will
// retain before giving up, per §4.7 and the spec's open question:
// "this spec recommends 256 frames as a sanity cap."
const DefaultMaxBacklog = 256

// Buffer is the rewindable frame buffer. MaxMode must equal the number
// of available decode strategies minus one (currently 1: fast=0,
// precise=1).
type Buffer[F any] struct {
	src Source[F]

	backup []F
	head   uint64
	pos    uint64

	mode        int
	defaultMode int
	maxMode     int
	maxBacklog  int

	release func(F)
}

// New returns a Buffer reading from src, with the given maxMode (number
// of decode strategies minus one) and a backlog cap of
// DefaultMaxBacklog. release, if non-nil, is called on every frame
// evicted from the backlog (e.g. to Close a gocv.Mat); frames still
// reachable through the backlog are never passed to it.
func New[F any](src Source[F], maxMode int, release func(F)) *Buffer[F] {
	return &Buffer[F]{
		src:        src,
		maxMode:    maxMode,
		maxBacklog: DefaultMaxBacklog,
		release:    release,
	}
}

// SetMaxBacklog overrides the backlog cap (default DefaultMaxBacklog).
func (b *Buffer[F]) SetMaxBacklog(n int) {
	b.maxBacklog = n
}

// Mode returns the decoder mode the caller should currently use to
// attempt a decode: 0 = fast, 1 = precise, etc.
func (b *Buffer[F]) Mode() int {
	return b.mode
}

// Head returns how many frames have been pulled from the source so
// far, usable as a frame ordinal for progress reporting.
func (b *Buffer[F]) Head() uint64 {
	return b.head
}

// NextFrame returns the next frame the caller should attempt to
// decode. While pos==head, it pulls a fresh frame from the source;
// otherwise it re-serves a frame already held in the backlog.
func (b *Buffer[F]) NextFrame() (F, error) {
	var zero F

	if b.pos == b.head {
		if len(b.backup) >= b.maxBacklog {
			return zero, fmt.Errorf("rewind: backlog reached cap of %d frames: %w", b.maxBacklog, ErrDecodeFailure)
		}

		frame, err := b.src.Next()
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrEndOfStream, err)
		}

		b.backup = append(b.backup, frame)
		b.head++
		b.pos++
		return frame, nil
	}

	offset := b.pos - (b.head - uint64(len(b.backup)))
	frame := b.backup[offset]
	b.pos++
	return frame, nil
}

// Rewind escalates the decoder mode and jumps pos back to the oldest
// frame still held in the backlog, so the next NextFrame calls replay
// frames the caller has already seen, this time under a stricter
// decoder. Returns ErrDecodeFailure once MaxMode has already been
// reached (every strategy has been tried at this point in the stream).
func (b *Buffer[F]) Rewind() error {
	if b.mode == b.maxMode {
		return ErrDecodeFailure
	}
	b.mode++
	b.pos = b.head - uint64(len(b.backup))
	return nil
}

// ConfirmOK is called after a successful packet decode. If the read
// pointer has caught up to head, the backlog is dropped and the mode
// resets to defaultMode; otherwise only the still-unread tail of the
// backlog is kept.
func (b *Buffer[F]) ConfirmOK() {
	if b.pos == b.head {
		b.releaseAll(b.backup)
		b.backup = b.backup[:0]
		b.mode = b.defaultMode
		return
	}

	keep := b.head - b.pos
	cut := uint64(len(b.backup)) - keep
	b.releaseAll(b.backup[:cut])
	b.backup = b.backup[cut:]
}

func (b *Buffer[F]) releaseAll(frames []F) {
	if b.release == nil {
		return
	}
	for _, f := range frames {
		b.release(f)
	}
}

// SetDefaultMode sets the mode ConfirmOK resets to, and raises the
// current mode to at least m (§4.9 phase transitions set a stricter
// default before searching for the header, then relax it for payload).
func (b *Buffer[F]) SetDefaultMode(m int) {
	b.defaultMode = m
	if b.mode < m {
		b.mode = m
	}
}

// ResetMode hard-resets both the default mode and the current mode to
// m, unlike SetDefaultMode, which only ever raises the current mode.
// The decoder driver uses this at the phase 1 -> phase 2 transition,
// where escalation history from the header search must not carry over
// into payload assembly (§4.9: "mode <- 0").
func (b *Buffer[F]) ResetMode(m int) {
	b.defaultMode = m
	b.mode = m
}
