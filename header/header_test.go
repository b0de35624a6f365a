package header

import (
	"testing"

	"github.com/bindreams/vis-transfer/packet"
	"github.com/stretchr/testify/require"
)

func TestBuildParseRoundTrip(t *testing.T) {
	var digest [DigestSize]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	h := Header{FileSize: 11, PacketSize: 2070, SHA3_256: digest}
	layers, err := Build(h)
	require.NoError(t, err)

	_, block, err := packet.Unpack(layers)
	require.NoError(t, err)

	got, err := Parse(block, 2070)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestParseRejectsWrongVersion(t *testing.T) {
	block := make([]byte, Size)
	block[1] = 1 // version = 1
	_, err := Parse(block, 2070)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestParseRejectsWrongPacketSize(t *testing.T) {
	h := Header{FileSize: 0, PacketSize: 2070}
	layers, err := Build(h)
	require.NoError(t, err)
	_, block, err := packet.Unpack(layers)
	require.NoError(t, err)

	_, err = Parse(block, 999)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestParseRejectsShortBlock(t *testing.T) {
	_, err := Parse(make([]byte, Size-1), 2070)
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestHeaderIndexIsSentinel(t *testing.T) {
	layers, err := Build(Header{PacketSize: 2070})
	require.NoError(t, err)
	index, _, err := packet.Unpack(layers)
	require.NoError(t, err)
	require.Equal(t, packet.HeaderIndex, index)
}
