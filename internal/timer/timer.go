// Package timer models the two periodic interrupt sources the kernel
// relies on: the CMOS real-time clock (RTC), used for rate-limited
// rtc_read gating, and the PIT, which drives the scheduler. Grounded on
// original_source/rtc.c for the register handshake and the teacher's
// channel-based interrupt delivery pattern for the tick signal itself.
package timer

import "github.com/vinwin12/linux-kernel/internal/common"

const (
	registerA = 0x8A
	registerB = 0x8B
	registerC = 0x8C

	enablePeriodicInt = 0x40
	clearFreqBits     = 0x0F

	minFreqHz = 2
	maxFreqHz = 1024
)

// rateToRegisterA maps a power-of-two Hz rate to the low nibble written
// into CMOS register A, per rtc_write's switch table (2 Hz -> 0xF down to
// 1024 Hz -> 0x6, halving the rate doubles the divider value).
var rateToRegisterA = map[int]byte{
	2: 0xF, 4: 0xE, 8: 0xD, 16: 0xC, 32: 0xB,
	64: 0xA, 128: 0x9, 256: 0x8, 512: 0x7, 1024: 0x6,
}

// RTC models the CMOS real-time clock: its register state and the
// per-terminal tick flags it sets for rtc_read to gate on.
type RTC struct {
	regA byte
	regB byte

	freqHz int

	// Ticked is set for every terminal on each simulated tick and
	// cleared individually by ConsumeTick, mirroring terminals[i].rtc_flag.
	Ticked [common.NumTerms]bool
}

// Init runs the register-A/register-B handshake that enables periodic
// interrupts at the default rate, per RTC_init.
func (r *RTC) Init() {
	r.regA = (r.regA &^ clearFreqBits) | rateToRegisterA[2]
	r.regB |= enablePeriodicInt
	r.freqHz = 2
}

// SetRate is rtc_write: nbytes must be exactly 4 and the rate a power of
// two in [2, 1024].
func (r *RTC) SetRate(nbytes int, rateHz int) common.Err_t {
	if nbytes != 4 {
		return common.EINVAL
	}
	if rateHz < minFreqHz || rateHz > maxFreqHz {
		return common.EINVAL
	}
	bits, ok := rateToRegisterA[rateHz]
	if !ok {
		return common.EINVAL
	}
	r.regA = bits | (r.regA &^ clearFreqBits)
	r.freqHz = rateHz
	return common.Success
}

// RateHz reports the currently configured interrupt rate.
func (r *RTC) RateHz() int { return r.freqHz }

// Tick is RTC_handler's body: set every terminal's flag, then read
// register C to re-arm the next interrupt (its value is unused, per the
// original's "don't care about what's in Reg C" comment).
func (r *RTC) Tick() {
	for i := range r.Ticked {
		r.Ticked[i] = true
	}
	_ = registerC
}

// ConsumeTick is rtc_read's flag check-and-clear for one terminal. The
// original busy-spins on the flag with interrupts enabled; we expose the
// check directly and let the caller decide how to wait; internal/fileops
// polls it with a short sleep between checks.
func (r *RTC) ConsumeTick(term common.TermIdx) bool {
	if !r.Ticked[term] {
		return false
	}
	r.Ticked[term] = false
	return true
}

// PIT drives the scheduler at a fixed rate (~40 Hz per spec.md); it
// carries no registers worth modeling beyond a tick count.
type PIT struct {
	Ticks uint64
}

// Tick increments the PIT's tick counter; the boot routine's PIT hook
// calls it once per timer interrupt, before running the scheduler.
func (p *PIT) Tick() { p.Ticks++ }
