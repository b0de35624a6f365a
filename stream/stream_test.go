package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/bindreams/vis-transfer/packet"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

const testPacketSize = 2070 // default size class
const testBlockSize = testPacketSize - 6

func TestComputeInfoEmptyFile(t *testing.T) {
	src := bytes.NewReader(nil)
	info, err := ComputeInfo(src)
	require.NoError(t, err)
	require.EqualValues(t, 0, info.FileSize)

	want := sha3.Sum256(nil)
	require.Equal(t, want[:], info.SHA3_256[:])
}

func TestComputeInfoRestoresPosition(t *testing.T) {
	src := bytes.NewReader([]byte("hello world"))
	_, err := src.Seek(3, io.SeekStart)
	require.NoError(t, err)

	_, err = ComputeInfo(src)
	require.NoError(t, err)

	pos, err := src.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.EqualValues(t, 3, pos)
}

func TestStreamEmptyFile(t *testing.T) {
	s := New(bytes.NewReader(nil), testPacketSize)
	_, _, err := s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamOneFullBlock(t *testing.T) {
	data := bytes.Repeat([]byte{0}, testBlockSize)
	s := New(bytes.NewReader(data), testPacketSize)

	index, layers, err := s.Next()
	require.NoError(t, err)
	require.EqualValues(t, 0, index)

	_, block, err := packet.Unpack(layers)
	require.NoError(t, err)
	require.Equal(t, data, block)

	_, _, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamShortFinalBlock(t *testing.T) {
	data := bytes.Repeat([]byte{0}, testBlockSize+1)
	s := New(bytes.NewReader(data), testPacketSize)

	idx0, layers0, err := s.Next()
	require.NoError(t, err)
	require.EqualValues(t, 0, idx0)
	_, block0, err := packet.Unpack(layers0)
	require.NoError(t, err)
	require.Len(t, block0, testBlockSize)

	idx1, layers1, err := s.Next()
	require.NoError(t, err)
	require.EqualValues(t, 1, idx1)
	_, block1, err := packet.Unpack(layers1)
	require.NoError(t, err)
	require.Len(t, block1, 1)

	_, _, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 1000)

	collect := func() [][]byte {
		s := New(bytes.NewReader(data), testPacketSize)
		var blocks [][]byte
		for {
			_, layers, err := s.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			_, block, err := packet.Unpack(layers)
			require.NoError(t, err)
			blocks = append(blocks, block)
		}
		return blocks
	}

	require.Equal(t, collect(), collect())
}

func TestBlockCount(t *testing.T) {
	require.EqualValues(t, 0, BlockCount(Info{FileSize: 0}, testBlockSize))
	require.EqualValues(t, 1, BlockCount(Info{FileSize: uint64(testBlockSize)}, testBlockSize))
	require.EqualValues(t, 2, BlockCount(Info{FileSize: uint64(testBlockSize) + 1}, testBlockSize))
}
