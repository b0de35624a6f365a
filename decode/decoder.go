package decode

import (
	"encoding/binary"

	"github.com/bindreams/vis-transfer/packet"
	"gocv.io/x/gocv"
)

// Mode indexes the ordered list of decode strategies: 0 = fast,
// 1 = precise. MaxMode (for rewind.Buffer) is len(modes)-1 = 1.
const (
	ModeFast    = 0
	ModePrecise = 1
	MaxMode     = ModePrecise
)

// Decoder extracts one packet from an RGB video frame, choosing the
// fast or precise strategy per mode. It implements the polymorphic
// "decode(frame) -> Option<packet>" capability described in §9.
type Decoder struct {
	reader Reader
}

// New returns a Decoder built on reader.
func New(reader Reader) *Decoder {
	return &Decoder{reader: reader}
}

// Decode attempts to extract a packet from frame (a BGR Mat, the gocv
// convention) under the given mode. On success it returns the
// destriped packet as 6 big-endian index bytes followed by the block,
// exactly what assembler.Driver expects to parse (§4.9 phase 2 step 3).
func (d *Decoder) Decode(frame gocv.Mat, mode int) ([]byte, bool) {
	var layers [3][]byte
	var ok bool

	switch mode {
	case ModeFast:
		layers, ok = decodeFast(d.reader, frame)
	default:
		layers, ok = decodePrecise(d.reader, frame)
	}
	if !ok {
		return nil, false
	}

	index, block, err := packet.Unpack(packet.Layers(layers))
	if err != nil {
		return nil, false
	}

	out := make([]byte, 6+len(block))
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], index)
	copy(out[0:6], full[2:])
	copy(out[6:], block)
	return out, true
}

// splitChannels returns the three layer channels of a BGR frame in
// L0,L1,L2 order. Per §3, R holds L0, G holds L1, B holds L2; gocv's
// Split on a BGR Mat returns [B, G, R], hence the reordering.
func splitChannels(frame gocv.Mat) (l0, l1, l2 gocv.Mat) {
	chans := gocv.Split(frame)
	// chans[0]=B=L2, chans[1]=G=L1, chans[2]=R=L0
	return chans[2], chans[1], chans[0]
}

func closeAll(mats ...gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}
