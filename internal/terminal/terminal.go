// Package terminal implements the three virtual terminal records (C9) and
// the keyboard-buffer/line-editor half of the console (handle_buffer,
// terminal_read, terminal_write), grounded on
// original_source/terminal.{c,h} and original_source/terminal.h's
// terminal_t.
package terminal

import (
	"sync"

	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/console"
	"github.com/vinwin12/linux-kernel/internal/paging"
)

const (
	BufferLength = 128
	printLength  = 127 // PRINT_LENGTH: most characters one input line may hold
	Enter        = '\n'
	Backspace    = '\b'
)

// Terminal is one of the three fixed virtual consoles: its line-input
// buffer, its VGA backing store, and the bookkeeping the scheduler and
// keyboard driver need (current process, launch state, visibility).
type Terminal struct {
	mu sync.Mutex
	cv *sync.Cond

	Screen console.Screen

	ioBuffer    [BufferLength]byte
	length      int
	commitFlag  bool
	lineFlag    int // row barrier for backspace
	writeFlag   int // column barrier for backspace

	CurrentProcess common.Pid
	HasBeenLaunched bool
	IsVisible       bool
	RTCFlag         bool

	VidmemAddr     uint
	UserVidmemAddr uint
}

// Init resets a Terminal to its boot state, per terminal_init's per-slot
// loop.
func (t *Terminal) Init() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cv == nil {
		t.cv = sync.NewCond(&t.mu)
	}
	t.clearBufferLocked()
	t.Screen.Clear()
	t.lineFlag = 0
	t.writeFlag = 0
	t.CurrentProcess = common.NoPid
	t.HasBeenLaunched = false
	t.IsVisible = false
	t.RTCFlag = false
}

func (t *Terminal) clearBufferLocked() {
	t.length = 0
	t.commitFlag = false
	for i := range t.ioBuffer {
		t.ioBuffer[i] = 0
	}
}

// ClearBuffer wipes the line buffer, per clear_buffer.
func (t *Terminal) ClearBuffer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearBufferLocked()
}

// HandleKey is handle_buffer: folds one keystroke into the line buffer
// (or discards/erases), per original_source/terminal.c. ch == 0 is the
// original's EMPTY sentinel for "no character produced" and is ignored.
func (t *Terminal) HandleKey(ch byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.commitFlag {
		return
	}
	if ch == Backspace {
		if t.length == 0 {
			return
		}
		t.ioBuffer[t.length] = 0
		t.ioBuffer[t.length-1] = Enter
		t.length--
		return
	}
	if ch == 0 {
		return
	}
	if ch == Enter {
		t.ioBuffer[t.length] = Enter
		t.commitFlag = true
		t.cv.Signal()
		return
	}
	if t.length < printLength {
		t.ioBuffer[t.length] = ch
		t.ioBuffer[t.length+1] = Enter
		t.length++
	}
}

// Read is terminal_read: blocks until a line is committed (Enter
// pressed), then copies up to len(dst) bytes into dst, always ending the
// delivered bytes with a newline, and clears the buffer. The "spin with
// interrupts periodically enabled" of the original becomes a condition
// variable wait here -- see DESIGN.md's redesign note: a goroutine
// parked on a Cond already yields to the Go scheduler exactly as the
// original's sti()-then-recheck loop intended, without busy-polling.
func (t *Terminal) Read(dst []byte) (int, common.Err_t) {
	t.mu.Lock()
	for !t.commitFlag {
		t.cv.Wait()
	}
	defer t.mu.Unlock()

	if dst == nil || len(dst) <= 0 {
		return 0, common.EINVAL
	}

	n := 0
	for n < len(dst) && t.ioBuffer[n] != Enter {
		dst[n] = t.ioBuffer[n]
		n++
	}
	if n == len(dst) {
		dst[n-1] = Enter
	} else {
		dst[n] = Enter
		n++
	}

	t.clearBufferLocked()
	return n, common.Success
}

// Write is terminal_write: emits n bytes via Screen.Putc, then moves the
// backspace barrier to the final column so a later Read's line-editing
// cannot erase what write() just printed.
func (t *Terminal) Write(buf []byte) (int, common.Err_t) {
	if buf == nil {
		return 0, common.EFAULT
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range buf {
		t.Screen.Putc(b)
	}
	t.lineFlag = t.Screen.Y
	t.writeFlag = t.Screen.X
	return 0, common.Success
}

// Backspace erases the previous input character from the screen,
// respecting the write barrier, per backspace().
func (t *Terminal) Backspace() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Screen.Backspace(t.lineFlag, t.writeFlag)
}

// ClearScreen clears the backing store and resets the barriers, per
// clear_screen.
func (t *Terminal) ClearScreen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Screen.Clear()
	t.lineFlag = 0
	t.writeFlag = 0
}

// CommitFlag reports whether a line is ready for Read, without consuming
// it -- used by tests that only want to observe.
func (t *Terminal) CommitFlag() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitFlag
}

// Table holds the three fixed terminal instances and the currently
// visible one.
type Table struct {
	Terms   [common.NumTerms]Terminal
	Visible common.TermIdx

	// Frame is the kernel's single VGA-frame backing store at 0xB8000:
	// whichever terminal is visible has its Screen mirrored here by
	// SwitchTerminal, per spec.md §4.3.
	Frame console.Screen
}

// Init wires the fixed video addresses and makes terminal 0 the visible
// one, per terminal_init. No terminal is marked launched.
func (tb *Table) Init(vidmem, uservid [common.NumTerms]uint) {
	for i := range tb.Terms {
		tb.Terms[i].Init()
		tb.Terms[i].VidmemAddr = vidmem[i]
		tb.Terms[i].UserVidmemAddr = uservid[i]
	}
	tb.Visible = 0
	tb.Terms[0].IsVisible = true
	tb.Frame.Clear()
}

// ClearVisible handles Ctrl+L (keyboard.Host.ClearVisibleScreen): it
// clears whichever terminal is currently visible.
func (tb *Table) ClearVisible() {
	tb.Terms[tb.Visible].ClearScreen()
}

// BackspaceVisible handles keyboard.Host.Backspace: it erases one
// character from whichever terminal is currently visible.
func (tb *Table) BackspaceVisible() {
	tb.Terms[tb.Visible].Backspace()
}

// SwitchTerminal implements spec.md §4.3's terminal-switch algorithm,
// steps 1-4 (the fifth step, conditionally relaunching "shell", needs
// package exec and so is composed by the caller -- see cmd/kernel):
//
//  1. no-op if target is already the visible terminal.
//  2. the outgoing terminal's displayed content is already current in
//     its own backing page: every Write/HandleKey/ClearScreen call
//     writes straight through to a terminal's own Screen regardless of
//     visibility, so there is nothing left to save.
//  3. copy the target terminal's backing page into the frame.
//  4. retarget the kernel's VGA frame mapping and flush the TLB, and
//     carry the cursor position across.
//
// It reports whether the newly-visible terminal still needs its initial
// shell launched (has_been_launched == 0).
func (tb *Table) SwitchTerminal(target common.TermIdx, pd *paging.Directory) bool {
	if target == tb.Visible {
		return false
	}

	outgoing := &tb.Terms[tb.Visible]
	outgoing.mu.Lock()
	outgoing.IsVisible = false
	outgoing.mu.Unlock()

	incoming := &tb.Terms[target]
	incoming.mu.Lock()
	tb.Frame.Restore(incoming.Screen.Snapshot())
	tb.Frame.X, tb.Frame.Y = incoming.Screen.X, incoming.Screen.Y
	incoming.IsVisible = true
	needsLaunch := !incoming.HasBeenLaunched
	incoming.mu.Unlock()

	tb.Visible = target

	if pd != nil {
		pd.RetargetFrame(paging.VidmemAddr)
	}

	return needsLaunch
}
