// Package pic models a pair of cascaded 8259A programmable interrupt
// controllers: mask/unmask/EOI for the 16 IRQ lines, grounded on
// original_source/i8259.c and the PICController/PICDevice split used by
// the pic.go reference device model in the retrieval pack.
package pic

const (
	eoiCmd    = 0x60
	slaveIRQ  = 2
	initMask  = 0xFF
	NumIRQ    = 16
)

// Controller models one 8259A: its interrupt mask register and the ICW
// handshake state recorded for observability/testing (there is no real
// port I/O -- this is the simulated register set).
type Controller struct {
	isMaster bool
	mask     uint8
	icw      [4]uint8
	icwCount int
}

// Device is the master+slave pair the PC platform wires as one cascaded
// controller, addressed by IRQ 0..15.
type Device struct {
	master Controller
	slave  Controller

	// lastEOI records the most recent command byte(s) written to each
	// PIC's command port, for test observability in lieu of real port I/O.
	lastMasterEOI, lastSlaveEOI uint8
	eoiCount                    int
}

// NewDevice returns a Device with both controllers freshly reset (all
// IRQs masked), mirroring i8259_init's initial outb(INIT_MASK, ...).
func NewDevice() *Device {
	d := &Device{
		master: Controller{isMaster: true, mask: initMask},
		slave:  Controller{isMaster: false, mask: initMask},
	}
	return d
}

// Init runs the ICW1-ICW4 handshake and unmasks the cascade IRQ (2) on the
// master so the slave's lines can flow through, per i8259_init.
func (d *Device) Init() {
	d.master.mask = initMask
	d.slave.mask = initMask
	d.master.icw = [4]uint8{0x11, 0x20, 1 << slaveIRQ, 0x01}
	d.slave.icw = [4]uint8{0x11, 0x28, slaveIRQ, 0x01}
	d.master.icwCount = 4
	d.slave.icwCount = 4
	d.Unmask(slaveIRQ)
}

// Mask disables (inactive high) the given IRQ line on whichever
// controller owns it.
func (d *Device) Mask(irq int) {
	if irq < 0 || irq > 15 {
		return
	}
	if irq >= 8 {
		d.slave.mask |= 1 << uint(irq-8)
		return
	}
	d.master.mask |= 1 << uint(irq)
}

// Unmask enables (active low) the given IRQ line.
func (d *Device) Unmask(irq int) {
	if irq < 0 || irq > 15 {
		return
	}
	if irq >= 8 {
		d.slave.mask &^= 1 << uint(irq-8)
		return
	}
	d.master.mask &^= 1 << uint(irq)
}

// Initialized reports whether both controllers completed their ICW1-ICW4
// handshake.
func (d *Device) Initialized() bool {
	return d.master.icwCount == 4 && d.slave.icwCount == 4
}

// Masked reports whether the given IRQ is currently masked.
func (d *Device) Masked(irq int) bool {
	if irq < 0 || irq > 15 {
		return true
	}
	if irq >= 8 {
		return d.slave.mask&(1<<uint(irq-8)) != 0
	}
	return d.master.mask&(1<<uint(irq)) != 0
}

// EOI acknowledges the given IRQ. For a slave-owned line both PICs must be
// ACKed, since the master only sees the slave through the cascade line
// (IRQ 2), per send_eoi.
func (d *Device) EOI(irq int) {
	if irq < 0 || irq > 15 {
		return
	}
	d.eoiCount++
	if irq <= 7 {
		d.lastMasterEOI = uint8(eoiCmd | irq)
		return
	}
	d.lastSlaveEOI = uint8(eoiCmd | (irq - 8))
	d.lastMasterEOI = uint8(eoiCmd | slaveIRQ)
}

// EOICount reports how many EOIs have been issued, for tests that assert
// the dispatcher ACKs before doing interrupt-body work.
func (d *Device) EOICount() int { return d.eoiCount }
