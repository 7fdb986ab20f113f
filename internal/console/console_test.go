package console

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutcAdvances(t *testing.T) {
	var s Screen
	s.Clear()
	s.Putc('A')
	require.Equal(t, byte('A'), s.CellAt(0, 0).Char())
	require.Equal(t, 1, s.X)
	require.Equal(t, 0, s.Y)
}

func TestPutcNewline(t *testing.T) {
	var s Screen
	s.Clear()
	s.Putc('A')
	s.Putc('\n')
	require.Equal(t, 0, s.X)
	require.Equal(t, 1, s.Y)
}

func TestPutcWrapsAtColumn80(t *testing.T) {
	var s Screen
	s.Clear()
	for i := 0; i < Cols; i++ {
		s.Putc('x')
	}
	require.Equal(t, 0, s.X)
	require.Equal(t, 1, s.Y)
}

func TestScrollOnOverflow(t *testing.T) {
	var s Screen
	s.Clear()
	for row := 0; row < Rows; row++ {
		s.Putc(byte('0' + row%10))
		s.Putc('\n')
	}
	// after Rows newlines we should have scrolled exactly once and the
	// first row we wrote ('0') should have scrolled off.
	require.Equal(t, Rows-1, s.Y)
	require.NotEqual(t, byte('0'), s.CellAt(0, 0).Char())
}

func TestBackspaceRefusesBarrierCrossing(t *testing.T) {
	var s Screen
	s.Clear()
	s.Putc('A')
	// barrier at the very position we're at: (lineFlag=0, writeFlag=1)
	s.Backspace(0, 1)
	require.Equal(t, byte('A'), s.CellAt(0, 0).Char(), "must not erase past barrier")
	require.Equal(t, 1, s.X)
}

func TestBackspaceErasesAndRewinds(t *testing.T) {
	var s Screen
	s.Clear()
	s.Putc('A')
	s.Putc('B')
	s.Backspace(0, 0)
	require.Equal(t, byte(' '), s.CellAt(1, 0).Char())
	require.Equal(t, 1, s.X)
}

func TestBackspaceWrapsToPreviousLine(t *testing.T) {
	var s Screen
	s.Clear()
	s.X, s.Y = 0, 2
	s.Backspace(0, 0)
	require.Equal(t, Cols-1, s.X)
	require.Equal(t, 1, s.Y)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	var s Screen
	s.Clear()
	s.Putc('Z')
	snap := s.Snapshot()

	var s2 Screen
	s2.Clear()
	s2.Restore(snap)
	require.Equal(t, byte('Z'), s2.CellAt(0, 0).Char())
}
