// Package console models the per-terminal 80x25 VGA text backing store:
// cell layout, cursor, scrolling, clearing, and backspace, grounded on
// original_source/terminal.c's putc/scroll_up/backspace/clear_screen.
//
// Per spec.md's out-of-scope note, the literal VGA character-cell layout
// and CRTC port programming are external collaborators; this package
// models only the backing store a driver like that would write through,
// which is what the rest of the kernel actually touches.
package console

const (
	Cols  = 80
	Rows  = 25
	Attrib = 0x07 // light grey on black, matches original's ATTRIB
)

// Cell is one VGA text cell: low byte character, high byte attribute.
type Cell uint16

func MakeCell(ch byte, attr uint8) Cell {
	return Cell(ch) | Cell(attr)<<8
}

func (c Cell) Char() byte { return byte(c) }

// Screen is one terminal's 80x25 backing store plus cursor position. It
// does not know about file descriptors, PIDs, or the keyboard -- only
// cell layout and scrolling, mirroring the original's terminal_t fields
// screen_x/screen_y plus the vidmem_addr it writes through.
type Screen struct {
	cells [Cols * Rows]Cell
	X, Y  int
}

// Clear blanks every cell and homes the cursor, per clear_screen/clear.
func (s *Screen) Clear() {
	blank := MakeCell(' ', Attrib)
	for i := range s.cells {
		s.cells[i] = blank
	}
	s.X, s.Y = 0, 0
}

// CellAt returns the cell at (x, y); used by tests to inspect the
// backing store.
func (s *Screen) CellAt(x, y int) Cell {
	return s.cells[y*Cols+x]
}

// Row returns the Cols cells of row y, in order.
func (s *Screen) Row(y int) []Cell {
	return s.cells[y*Cols : y*Cols+Cols]
}

// Snapshot copies the whole backing store out, for mirroring a terminal's
// contents into the VGA frame when it becomes visible.
func (s *Screen) Snapshot() [Cols * Rows]Cell {
	return s.cells
}

// Restore replaces the whole backing store, the inverse of Snapshot.
func (s *Screen) Restore(c [Cols * Rows]Cell) {
	s.cells = c
}

// Putc writes ch at the cursor, advances it, wrapping on newline or the
// right edge, and scrolls when the cursor runs off the bottom. Mirrors
// the combination of putc+scroll_up the original's terminal_write and
// keyboard driver share.
func (s *Screen) Putc(ch byte) {
	if ch == '\n' {
		s.X = 0
		s.Y++
	} else {
		s.cells[s.Y*Cols+s.X] = MakeCell(ch, Attrib)
		s.X++
		if s.X == Cols {
			s.X = 0
			s.Y++
		}
	}
	if s.Y == Rows {
		s.scrollUp()
	}
}

// scrollUp moves rows 1..Rows-1 into 0..Rows-2 and blanks the last row,
// per scroll_up.
func (s *Screen) scrollUp() {
	copy(s.cells[0:(Rows-1)*Cols], s.cells[Cols:Rows*Cols])
	blank := MakeCell(' ', Attrib)
	for i := (Rows - 1) * Cols; i < Rows*Cols; i++ {
		s.cells[i] = blank
	}
	s.X = 0
	s.Y = Rows - 1
}

// Backspace erases the cell before the cursor and rewinds it, refusing to
// cross the (lineFlag, writeFlag) barrier marking where the last
// committed line of output stopped -- per original's backspace(), which
// takes the barrier as (line_flag, term_write_flag).
func (s *Screen) Backspace(lineFlag, writeFlag int) {
	if s.Y == lineFlag && s.X == writeFlag {
		return
	}
	if s.X == 0 {
		if s.Y == 0 || s.Y == lineFlag {
			return
		}
		s.X = Cols - 1
		s.Y--
	} else {
		s.X--
	}
	s.cells[s.Y*Cols+s.X] = MakeCell(' ', Attrib)
}
