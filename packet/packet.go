// Package packet implements the L2 packet codec: splitting a
// (index, block) pair into the three byte strings that become the
// three color layers of a dense datamatrix, and its inverse.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderIndex is the sentinel index reserved for the header packet:
// the maximum representable 48-bit value.
const HeaderIndex uint64 = 0xFFFFFFFFFFFF

// ErrIndexOverflow is returned by Make when index doesn't fit in 48 bits.
var ErrIndexOverflow = errors.New("packet: index overflows 48 bits")

// ErrBlockTooLarge is returned by Make when the block exceeds the
// size class's block capacity.
var ErrBlockTooLarge = errors.New("packet: block too large for packet size")

// ErrShortLayer is returned by Unpack when a layer is too short to
// contain even its 2-byte slice of the striped index.
var ErrShortLayer = errors.New("packet: layer shorter than 2 bytes")

// Layers is a packet split across the three color channels that will
// each carry one Data Matrix symbol.
type Layers [3][]byte

// Make splits index and block into three layers, striping the 6-byte
// big-endian index across them two bytes at a time so that no layer
// is ever empty and so the index itself carries redundancy across the
// three color planes.
//
// packetSize is the target packet size for the active size class;
// block must be no longer than packetSize-6.
func Make(index uint64, block []byte, packetSize int) (Layers, error) {
	if index > HeaderIndex {
		return Layers{}, fmt.Errorf("%w: %d", ErrIndexOverflow, index)
	}

	blockSize := packetSize - 6
	if len(block) > blockSize {
		return Layers{}, fmt.Errorf("%w: %d > %d", ErrBlockTooLarge, len(block), blockSize)
	}

	idx := encodeIndex(index)
	t := blockSize / 3

	// Last layer may run short if block doesn't fill a full packet
	// (the short read on the final block of the file); slice bounds
	// are clamped so Make never panics on a shorter-than-expected block.
	return Layers{
		append(append([]byte(nil), idx[0:2]...), slice(block, 0*t, 1*t)...),
		append(append([]byte(nil), idx[2:4]...), slice(block, 1*t, 2*t)...),
		append(append([]byte(nil), idx[4:6]...), slice(block, 2*t, 3*t)...),
	}, nil
}

// slice returns block[lo:hi], clamped to block's actual length instead
// of panicking when block is shorter than a full block_size (the last,
// possibly-short, block of the file).
func slice(block []byte, lo, hi int) []byte {
	if lo > len(block) {
		lo = len(block)
	}
	if hi > len(block) {
		hi = len(block)
	}
	return block[lo:hi]
}

// Unpack reconstructs the (index, block) pair from three layers.
// It rejects any layer shorter than 2 bytes, since that can't even
// hold its slice of the striped index.
func Unpack(l Layers) (uint64, []byte, error) {
	for i, layer := range l {
		if len(layer) < 2 {
			return 0, nil, fmt.Errorf("%w: layer %d has length %d", ErrShortLayer, i, len(layer))
		}
	}

	var idx [8]byte
	idx[2] = l[0][0]
	idx[3] = l[0][1]
	idx[4] = l[1][0]
	idx[5] = l[1][1]
	idx[6] = l[2][0]
	idx[7] = l[2][1]
	index := binary.BigEndian.Uint64(idx[:])

	block := make([]byte, 0, len(l[0])-2+len(l[1])-2+len(l[2])-2)
	block = append(block, l[0][2:]...)
	block = append(block, l[1][2:]...)
	block = append(block, l[2][2:]...)

	return index, block, nil
}

func encodeIndex(index uint64) [6]byte {
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], index)

	var idx [6]byte
	copy(idx[:], full[2:])
	return idx
}
