// Package header builds and parses the single header packet that
// carries file metadata (L3 of the protocol).
package header

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bindreams/vis-transfer/packet"
)

// ProtocolVersion is the only version this implementation produces or
// accepts. Earlier, historical versions hashed with SHA-256 instead of
// SHA3-256; this implementation only speaks v2.
const ProtocolVersion uint16 = 2

// Size is the fixed length of a header block in bytes:
// 2 (version) + 8 (file size) + 2 (packet size) + 32 (digest).
const Size = 2 + 8 + 2 + 32

// DigestSize is the length of the SHA3-256 digest carried in the header.
const DigestSize = 32

// ErrBadHeader is returned when a candidate block fails to parse as a
// valid v2 header: wrong protocol version, mismatched packet size, or
// a block shorter than Size.
var ErrBadHeader = errors.New("header: not a valid header block")

// Header is the parsed content of the header packet.
type Header struct {
	FileSize   uint64
	PacketSize uint16
	SHA3_256   [DigestSize]byte
}

// Build packs a Header into its 44-byte big-endian block and wraps it
// in the three-layer packet with the header sentinel index.
func Build(h Header) (packet.Layers, error) {
	block := make([]byte, Size)
	binary.BigEndian.PutUint16(block[0:2], ProtocolVersion)
	binary.BigEndian.PutUint64(block[2:10], h.FileSize)
	binary.BigEndian.PutUint16(block[10:12], h.PacketSize)
	copy(block[12:44], h.SHA3_256[:])

	return packet.Make(packet.HeaderIndex, block, int(h.PacketSize))
}

// Parse validates and decodes a block as a v2 header. wantPacketSize is
// the receiver's configured size class's packet size; a header quoting
// any other packet size is rejected, since the two sides must agree on
// symbol geometry to decode subsequent payload packets.
func Parse(block []byte, wantPacketSize int) (Header, error) {
	if len(block) < Size {
		return Header{}, fmt.Errorf("%w: block length %d < %d", ErrBadHeader, len(block), Size)
	}

	version := binary.BigEndian.Uint16(block[0:2])
	if version != ProtocolVersion {
		return Header{}, fmt.Errorf("%w: protocol version %d, want %d", ErrBadHeader, version, ProtocolVersion)
	}

	packetSize := binary.BigEndian.Uint16(block[10:12])
	if int(packetSize) != wantPacketSize {
		return Header{}, fmt.Errorf("%w: packet size %d, want %d", ErrBadHeader, packetSize, wantPacketSize)
	}

	h := Header{
		FileSize:   binary.BigEndian.Uint64(block[2:10]),
		PacketSize: packetSize,
	}
	copy(h.SHA3_256[:], block[12:44])
	return h, nil
}
