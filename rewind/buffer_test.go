package rewind

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// sliceSource serves ints from a fixed slice, one at a time.
type sliceSource struct {
	items []int
	pos   int
}

func (s *sliceSource) Next() (int, error) {
	if s.pos >= len(s.items) {
		return 0, io.EOF
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

func TestNextFrameAdvancesSourceWhenCaughtUp(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{1, 2, 3}}, 1, nil)

	v, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestEndOfStream(t *testing.T) {
	buf := New[int](&sliceSource{items: nil}, 1, nil)
	_, err := buf.NextFrame()
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestRewindReplaysBacklog(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{10, 20, 30}}, 1, nil)

	v1, _ := buf.NextFrame()
	v2, _ := buf.NextFrame()
	require.Equal(t, 10, v1)
	require.Equal(t, 20, v2)

	require.NoError(t, buf.Rewind())
	require.Equal(t, 1, buf.Mode())

	// Replays frames already pulled, oldest first.
	rv1, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 10, rv1)

	rv2, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 20, rv2)

	// Caught back up to head: next call pulls a fresh frame.
	v3, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 30, v3)
}

func TestRewindExhaustion(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{1}}, 1, nil)
	buf.NextFrame()

	require.NoError(t, buf.Rewind()) // mode 0 -> 1
	err := buf.Rewind()              // already at maxMode
	require.ErrorIs(t, err, ErrDecodeFailure)
}

func TestConfirmOkAtHeadClearsBacklogAndResetsMode(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{1, 2}}, 1, nil)
	buf.NextFrame()
	buf.Rewind()
	buf.NextFrame() // replay, catches back up to head

	buf.ConfirmOK()
	require.Equal(t, 0, buf.Mode())

	// Backlog is empty: next NextFrame must pull fresh, not replay.
	v, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestConfirmOkIdempotentWhenEmpty(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{1}}, 1, nil)
	buf.ConfirmOK()
	buf.ConfirmOK()
	require.Equal(t, 0, buf.Mode())

	v, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestConfirmOkMidBacklogKeepsUnreadTail(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{1, 2, 3}}, 1, nil)
	buf.NextFrame() // 1
	buf.NextFrame() // 2
	buf.NextFrame() // 3
	require.NoError(t, buf.Rewind())

	// pos now at oldest (1). Read one (1), then confirm: should keep [2,3]
	// unread and not re-serve 1.
	v, _ := buf.NextFrame()
	require.Equal(t, 1, v)
	buf.ConfirmOK()

	v, err := buf.NextFrame()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestSetDefaultModeRaisesCurrentMode(t *testing.T) {
	buf := New[int](&sliceSource{items: []int{1}}, 1, nil)
	buf.SetDefaultMode(1)
	require.Equal(t, 1, buf.Mode())
}

func TestBacklogCapReturnsDecodeFailure(t *testing.T) {
	items := make([]int, 10)
	buf := New[int](&sliceSource{items: items}, 1, nil)
	buf.SetMaxBacklog(3)

	for i := 0; i < 3; i++ {
		_, err := buf.NextFrame()
		require.NoError(t, err)
	}

	_, err := buf.NextFrame()
	require.True(t, errors.Is(err, ErrDecodeFailure))
}
