// Package cpu is the minimal, audited, typed surface spec.md §9 asks for
// in place of inline assembly: constructing the IRET frame that drops a
// process into user mode, and the saved-register pair a context switch
// swaps. Real GDT/TSS loading and the literal IRET trampoline are out of
// scope per spec.md §1 (external collaborators); what's modeled here is
// their externally observable effect -- a UserFrame's fields and a
// Context's fields are exactly what execute()/halt()/the scheduler need
// to reason about, with nothing underneath asserting on raw memory.
package cpu

const (
	UserCS = 0x23
	UserSS = 0x2B
	// EFlagsIF is the Interrupt Flag bit set in the pushed EFLAGS so the
	// user process runs with interrupts enabled, per spec.md §4.6 step 13.
	EFlagsIF = 1 << 9

	// KernelDS is the flat kernel data segment selector loaded into
	// tss.ss0 at execute() and at every context switch, per spec.md
	// §4.6 step 12.
	KernelDS = 0x10
)

// UserFrame is the IRET frame execute() builds to drop a freshly loaded
// program into user mode: entry point, top of the 132MiB-4 user stack,
// and the segment/flags values that go with it.
type UserFrame struct {
	EntryPoint   uint32
	UserStackTop uint32
	EFlags       uint32
	CS           uint16
	SS           uint16
}

// NewUserFrame builds the frame per spec.md §4.6 step 13: user stack at
// the fixed top-of-stack VA, EFLAGS with IF set, fixed user code/stack
// segment selectors.
func NewUserFrame(entry, stackTop uint32) UserFrame {
	return UserFrame{
		EntryPoint:   entry,
		UserStackTop: stackTop,
		EFlags:       EFlagsIF,
		CS:           UserCS,
		SS:           UserSS,
	}
}

// Context is the pair of kernel stack pointers (esp/ebp) the scheduler
// saves on preemption and restores to resume a process, per spec.md §3's
// PCB.esp/ebp fields. There is no real stack behind these values -- it
// is the opaque token a real context switch would restore, kept here so
// tests can assert the scheduler swaps the right one in and out.
type Context struct {
	Esp uint32
	Ebp uint32
}

// TSS models the one-entry Task State Segment field set the kernel
// actually uses: ss0/esp0, reloaded at every context switch and at
// execute() time so a ring-3 exception/interrupt lands on the right
// kernel stack.
type TSS struct {
	SS0   uint16
	ESP0  uint32
}

// Load updates the TSS's ring-0 stack pointer, per spec.md §4.6 step 12
// and §4.8's scheduler restore step.
func (t *TSS) Load(ss0 uint16, esp0 uint32) {
	t.SS0 = ss0
	t.ESP0 = esp0
}
