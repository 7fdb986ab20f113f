// Package uart models the COM1 debug serial line the teacher's
// trap_cons/INT_COM1 handler drives, using goserial's Termios-style
// line-discipline configuration, grounded on
// Daedaluz-goserial/port_linux.go's Termios/CFlag/MakeRaw/SetSpeed API.
//
// There is no real UART here: spec.md places port-mapped I/O out of
// scope, and we never open a literal host /dev/tty* device (see
// DESIGN.md for the stub boundary). What's grounded is the
// configuration surface -- the same Termios value a real goserial.Open
// call would hand to SetAttr is built and held here, and writes are
// appended to an in-memory buffer standing in for the 16550's transmit
// FIFO, so the rest of the kernel can exercise a COM1-shaped
// component without a real serial port existing on the test machine.
package uart

import (
	serial "github.com/daedaluz/goserial"
)

// DefaultBaud is the rate the teacher's debug console configures COM1
// to, per the conventional 9600 8N1 serial debug-console convention.
const DefaultBaud = serial.B9600

// Line is one simulated serial line: its negotiated Termios settings
// and the bytes written to it so far.
type Line struct {
	Termios serial.Termios
	tx      []byte
}

// NewLine builds a Line configured 8N1 raw, matching what
// Termios.MakeRaw + SetSpeed(B9600) produce for a real port.
func NewLine() *Line {
	l := &Line{}
	l.Termios.MakeRaw()
	l.Termios.SetSpeed(DefaultBaud)
	return l
}

// Write appends to the simulated transmit FIFO and always succeeds --
// there is no real hardware backpressure to model.
func (l *Line) Write(p []byte) (int, error) {
	l.tx = append(l.tx, p...)
	return len(p), nil
}

// Transmitted returns everything written so far, for tests and for a
// host-side harness that wants to mirror COM1 output somewhere.
func (l *Line) Transmitted() []byte {
	return l.tx
}

// Reset clears the simulated transmit FIFO.
func (l *Line) Reset() {
	l.tx = l.tx[:0]
}
