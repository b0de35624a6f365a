// Package stream implements L4: a lazy sequence of packets read from a
// seekable byte source, plus the pre-pass that computes file size and
// digest before streaming begins.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/bindreams/vis-transfer/packet"
	"golang.org/x/crypto/sha3"
)

// prePassChunk is the read size used while hashing the source during
// the pre-pass (§4.3: "read in chunks (e.g. 64 KiB)").
const prePassChunk = 64 * 1024

// ErrNotSeekable is returned by ComputeInfo when the source's position can't
// be read back and restored.
var ErrNotSeekable = errors.New("stream: source is not seekable")

// ErrStreamTooLarge is returned by Next when the next index would
// collide with the header sentinel.
var ErrStreamTooLarge = errors.New("stream: file requires more packets than the index space allows")

// Info is the result of the pre-pass: the information needed to build
// the header packet before any payload packet has been produced.
type Info struct {
	FileSize uint64
	SHA3_256 [32]byte
}

// ComputeInfo seeks src to the end to learn its size, then to the start
// to hash its contents with SHA3-256, then restores the original
// position. src must support io.Seeker; ErrNotSeekable wraps any seek
// failure.
func ComputeInfo(src io.ReadSeeker) (Info, error) {
	origPos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotSeekable, err)
	}

	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotSeekable, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotSeekable, err)
	}

	h := sha3.New256()
	buf := make([]byte, prePassChunk)
	if _, err := io.CopyBuffer(h, src, buf); err != nil {
		return Info{}, fmt.Errorf("stream: hashing source: %w", err)
	}

	if _, err := src.Seek(origPos, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotSeekable, err)
	}

	info := Info{FileSize: uint64(size)}
	copy(info.SHA3_256[:], h.Sum(nil))
	return info, nil
}

// Stream lazily yields packets from src in index order, starting at 0.
// It does not itself seek src; callers that also need Info should call
// ComputeInfo first (src's position is restored by ComputeInfo before
// the Stream reads from it).
type Stream struct {
	src        io.Reader
	packetSize int
	blockSize  int
	next       uint64
	done       bool
}

// New returns a Stream reading block_size-sized chunks of src and
// packaging them at packetSize.
func New(src io.Reader, packetSize int) *Stream {
	return &Stream{
		src:        src,
		packetSize: packetSize,
		blockSize:  packetSize - 6,
	}
}

// Next reads the next block_size bytes from src (a short read is
// permitted on the final block) and returns it wrapped as a packet.
// It returns io.EOF once src is exhausted, and ErrStreamTooLarge if the
// next index would reach the header sentinel.
func (s *Stream) Next() (uint64, packet.Layers, error) {
	if s.done {
		return 0, packet.Layers{}, io.EOF
	}

	if s.next >= packet.HeaderIndex {
		return 0, packet.Layers{}, ErrStreamTooLarge
	}

	block := make([]byte, s.blockSize)
	n, err := io.ReadFull(s.src, block)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, packet.Layers{}, fmt.Errorf("stream: reading block %d: %w", s.next, err)
	}
	block = block[:n]

	if n == 0 {
		s.done = true
		return 0, packet.Layers{}, io.EOF
	}

	index := s.next
	layers, mkErr := packet.Make(index, block, s.packetSize)
	if mkErr != nil {
		return 0, packet.Layers{}, mkErr
	}

	s.next++
	if n < s.blockSize {
		// Short read: this was necessarily the last block.
		s.done = true
	}
	return index, layers, nil
}

// BlockCount returns ceil(info.FileSize / blockSize), the number of
// payload packets a stream built from this Info will yield.
func BlockCount(info Info, blockSize int) uint64 {
	if blockSize <= 0 {
		return 0
	}
	count := info.FileSize / uint64(blockSize)
	if info.FileSize%uint64(blockSize) != 0 {
		count++
	}
	return count
}
