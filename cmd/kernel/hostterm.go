package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/vinwin12/linux-kernel/internal/keyboard"
)

// hostTerminal is the optional interactive front-end: it puts the
// *host* terminal into raw mode so keystrokes arrive unbuffered and
// unechoed -- exactly how a PS/2 controller delivers raw scancodes --
// then feeds each byte to the visible virtual terminal's line editor.
// It does not render any terminal's backing store to the host screen.
// Grounded on IntuitionAmiga-IntuitionEngine/terminal_host.go's
// term.MakeRaw/term.Restore pairing; start/stop are only called from
// main when stdin is attached to a real TTY, while tests drive feed
// directly.
type hostTerminal struct {
	fd       int
	oldState *term.State
	k        *kernel
}

func newHostTerminal(k *kernel) *hostTerminal {
	return &hostTerminal{fd: int(os.Stdin.Fd()), k: k}
}

func (h *hostTerminal) start() error {
	if !term.IsTerminal(h.fd) {
		return fmt.Errorf("stdin is not a terminal")
	}
	old, err := term.MakeRaw(h.fd)
	if err != nil {
		return err
	}
	h.oldState = old
	return nil
}

func (h *hostTerminal) stop() {
	if h.oldState != nil {
		term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}

// feed turns one host keystroke byte into the scan code(s) a PS/2
// controller would have produced, runs them through keyboard.State's
// real Translate (so Ctrl+L, Alt+Fn and the shift/caps chords are all
// exercised by the live keyboard driver, not bypassed), and hands the
// resulting ASCII to the currently-visible terminal's line editor.
//
// A raw-mode TTY has no native Alt+F1/F2/F3 single-byte encoding, so
// Ctrl+A/B/C double as the terminal-switch hotkeys here, synthesizing
// the Alt+Fn chord Translate expects.
func (h *hostTerminal) feed(b byte) {
	switch b {
	case '\r':
		b = '\n'
	case 0x7F:
		b = 0x08
	}

	k := h.k

	switch b {
	case 0x0C: // Ctrl+L
		k.KBD.Translate(keyboard.CtrlPress, k)
		if code, _, ok := keyboard.ScanCodeForASCII('l'); ok {
			k.KBD.Translate(code, k)
		}
		k.KBD.Translate(keyboard.CtrlRelease, k)
		return
	case 0x01, 0x02, 0x03: // Ctrl+A/B/C -> switch to terminal 0/1/2
		fns := [...]byte{keyboard.F1, keyboard.F2, keyboard.F3}
		k.KBD.Translate(keyboard.AltPress, k)
		k.KBD.Translate(fns[b-1], k)
		k.KBD.Translate(keyboard.AltRelease, k)
		return
	}

	code, shifted, ok := keyboard.ScanCodeForASCII(b)
	if !ok {
		return
	}
	if shifted {
		k.KBD.Translate(keyboard.LeftShiftPress, k)
	}
	ascii := k.KBD.Translate(code, k)
	if shifted {
		k.KBD.Translate(keyboard.LeftShiftRelease, k)
	}
	if ascii == 0 {
		return
	}

	vis := &k.Terms.Terms[k.Terms.Visible]
	vis.HandleKey(ascii)
}
