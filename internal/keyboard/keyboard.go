// Package keyboard implements the PS/2 scan-to-ASCII line editor: two
// 128-entry scan tables covering the key-press codes (release codes at
// 0x80 and above never index them), shift/ctrl/alt/caps state, and the Ctrl+L /
// Alt+Fn chords, grounded on original_source/keyboard.{c,h}.
//
// Per spec.md's out-of-scope note, the literal keyboard-controller port
// programming is an external collaborator; this package starts from a
// scan code already read off that port.
package keyboard

const (
	NumScanCodes = 128

	keyPressMax = 0x80 // codes above this are key-release events

	CapsLock = 0x3A

	LeftShiftPress    = 0x2A
	RightShiftPress   = 0x36
	LeftShiftRelease  = 0xAA
	RightShiftRelease = 0xB6

	CtrlPress   = 0x1D
	CtrlRelease = 0x9D

	AltPress   = 0x38
	AltRelease = 0xB8

	BackspacePress = 0x0E

	F1 = 0x3B
	F2 = 0x3C
	F3 = 0x3D

	letterCaseChange = 'a' - 'A'

	// Backspace is the sentinel ASCII value scan_to_ASCII returns for a
	// backspace keypress; 0 means "no character produced".
	Backspace byte = 0x08
	Enter     byte = '\n'
)

// Host is the set of side effects a chord keystroke drives, implemented
// by whatever owns the terminal table (kept out of this package to avoid
// an import cycle and to keep the scan-code state machine testable in
// isolation).
type Host interface {
	// ClearVisibleScreen handles Ctrl+L.
	ClearVisibleScreen()
	// Backspace erases one cell/char from the visible terminal.
	Backspace()
	// SwitchTerminal handles Alt+F1/F2/F3, switching to terminal idx
	// (0, 1 or 2).
	SwitchTerminal(idx int)
}

var scanNoShift = buildScanTable(false)
var scanShift = buildScanTable(true)

// row0 lists the unshifted characters for scan codes 2..13 (the top
// number row), row1 for 16..28 (qwerty row through Enter), row2 for
// 30..41 (home row), row3 for 43..53 (bottom row through '/'), each
// paired with its shifted counterpart -- transcribed index-for-index
// from original_source/keyboard.c's scan_codes_no_shift/scan_codes_shift.
var row0 = [...][2]byte{{'1', '!'}, {'2', '@'}, {'3', '#'}, {'4', '$'}, {'5', '%'},
	{'6', '^'}, {'7', '&'}, {'8', '*'}, {'9', '('}, {'0', ')'}, {'-', '_'}, {'=', '+'}}
var row1 = [...][2]byte{{'q', 'Q'}, {'w', 'W'}, {'e', 'E'}, {'r', 'R'}, {'t', 'T'},
	{'y', 'Y'}, {'u', 'U'}, {'i', 'I'}, {'o', 'O'}, {'p', 'P'}, {'[', '{'}, {']', '}'}, {Enter, Enter}}
var row2 = [...][2]byte{{'a', 'A'}, {'s', 'S'}, {'d', 'D'}, {'f', 'F'}, {'g', 'G'},
	{'h', 'H'}, {'j', 'J'}, {'k', 'K'}, {'l', 'L'}, {';', ':'}, {'\'', '"'}, {'`', '~'}}
var row3 = [...][2]byte{{'\\', '|'}, {'z', 'Z'}, {'x', 'X'}, {'c', 'C'}, {'v', 'V'},
	{'b', 'B'}, {'n', 'N'}, {'m', 'M'}, {',', '<'}, {'.', '>'}, {'/', '?'}}

func buildScanTable(shift bool) [NumScanCodes]byte {
	var t [NumScanCodes]byte
	pick := func(base int, rows [][2]byte) {
		for i, pair := range rows {
			if shift {
				t[base+i] = pair[1]
			} else {
				t[base+i] = pair[0]
			}
		}
	}
	pick(2, row0[:])
	pick(16, row1[:])
	pick(30, row2[:])
	pick(43, row3[:])
	t[0x39] = ' ' // space bar
	t[0x37] = '*' // keypad '*'
	// keypad digits, matching original's tail entries for codes 0x47-0x53
	kp := map[int]byte{
		0x47: '7', 0x48: '8', 0x49: '9', 0x4A: '-',
		0x4B: '4', 0x4C: '5', 0x4D: '6', 0x4E: '+',
		0x4F: '1', 0x50: '2', 0x51: '3', 0x52: '0', 0x53: '.',
	}
	for k, v := range kp {
		t[k] = v
	}
	return t
}

// State holds the live shift/ctrl/alt/caps flags, guarded by whatever
// lock the keyboard driver already holds around interrupt delivery
// (per spec.md §9, these used to be module-level mutables; here they are
// fields of an explicit value instead).
type State struct {
	shift bool
	ctrl  bool
	alt   bool
	caps  bool
}

// Translate is scan_to_ASCII: it updates modifier flags, handles the
// Ctrl+L and Alt+Fn chords via host, and returns the ASCII value to hand
// to the line editor (0 if the code produced no visible character).
func (s *State) Translate(code byte, host Host) byte {
	switch code {
	case CapsLock:
		s.caps = !s.caps
	case LeftShiftPress, RightShiftPress:
		s.shift = true
	case LeftShiftRelease, RightShiftRelease:
		s.shift = false
	case CtrlPress:
		s.ctrl = true
	case CtrlRelease:
		s.ctrl = false
	case AltPress:
		s.alt = true
	case AltRelease:
		s.alt = false
	case BackspacePress:
		host.Backspace()
		return Backspace
	}

	if code >= keyPressMax {
		// key release, already handled above if it mattered.
		return 0
	}

	var val byte
	if s.shift {
		val = scanShift[code]
	} else {
		val = scanNoShift[code]
	}

	if s.ctrl && (val == 'L' || val == 'l') {
		host.ClearVisibleScreen()
		return 0
	}

	if s.alt {
		switch code {
		case F1:
			host.SwitchTerminal(0)
			return 0
		case F2:
			host.SwitchTerminal(1)
			return 0
		case F3:
			host.SwitchTerminal(2)
			return 0
		}
	}

	if s.caps {
		switch {
		case val >= 'A' && val <= 'Z':
			val += letterCaseChange
		case val >= 'a' && val <= 'z':
			val -= letterCaseChange
		}
	}

	return val
}

// scanCodeForASCII inverts scanNoShift: every unshifted ASCII value a
// scan code can produce, mapped back to that code.
var scanCodeForASCII = func() map[byte]byte {
	m := make(map[byte]byte, NumScanCodes)
	for code, ch := range scanNoShift {
		if ch != 0 {
			m[ch] = byte(code)
		}
	}
	return m
}()

// scanCodeForShiftedASCII inverts scanShift, for the ASCII values (caps
// letters, shifted punctuation) that only exist on the shifted table.
var scanCodeForShiftedASCII = func() map[byte]byte {
	m := make(map[byte]byte, NumScanCodes)
	for code, ch := range scanShift {
		if ch == 0 {
			continue
		}
		if _, onUnshifted := scanCodeForASCII[ch]; !onUnshifted {
			m[ch] = byte(code)
		}
	}
	return m
}()

// ScanCodeForASCII reverses scan_to_ASCII: given an ASCII byte a host
// terminal delivered directly (rather than a PS/2 scan code), it reports
// the scan code Translate would need to reproduce it and whether that
// scan code must be sent under a shift chord. Used by a host front end
// that only has ASCII bytes to synthesize scan codes for Translate, so
// Translate's modifier/chord logic is exercised by production code
// instead of only by tests driving scan codes directly.
func ScanCodeForASCII(ch byte) (code byte, shifted bool, ok bool) {
	if ch == Backspace {
		return BackspacePress, false, true
	}
	if code, found := scanCodeForASCII[ch]; found {
		return code, false, true
	}
	if code, found := scanCodeForShiftedASCII[ch]; found {
		return code, true, true
	}
	return 0, false, false
}
