// Package trap models the IDT (C7): the 256-vector table's static
// shape -- which vectors are CPU exceptions, which are hardware
// interrupts, and which carry a DPL of 3 -- and the dispatcher that
// routes a fired vector to its handler, grounded on
// original_source/idt.c's IDT-entry-filling loop and the teacher's
// trapstub/trap() dispatch switch.
package trap

import "fmt"

// VectorKind distinguishes a CPU-exception trap gate from a hardware
// interrupt gate, per spec.md §4.10's "0..31 flagged as traps, else
// interrupts".
type VectorKind int

const (
	KindInterrupt VectorKind = iota
	KindTrap
)

// NumVectors is the size of a real x86 IDT.
const NumVectors = 256

// Hardware/software vector assignments overridden from the default
// handler, per spec.md §4.10 and §6's IRQ table.
const (
	VectorPIT      = 0x20
	VectorKeyboard = 0x21
	VectorRTC      = 0x28
	VectorMouse    = 0x2C
	VectorSyscall  = 0x80
)

// exceptionNames are the CPU exceptions bound at vectors 0..19,
// skipping the reserved vector 15, per spec.md §4.10.
var exceptionNames = map[int]string{
	0:  "Divide Error",
	1:  "Debug",
	2:  "NMI Interrupt",
	3:  "Breakpoint",
	4:  "Overflow",
	5:  "BOUND Range Exceeded",
	6:  "Invalid Opcode",
	7:  "Device Not Available",
	8:  "Double Fault",
	9:  "Coprocessor Segment Overrun",
	10: "Invalid TSS",
	11: "Segment Not Present",
	12: "Stack-Segment Fault",
	13: "General Protection Fault",
	14: "Page Fault",
	16: "x87 FPU Floating-Point Error",
	17: "Alignment Check",
	18: "Machine Check",
	19: "SIMD Floating-Point Exception",
}

// Vector is one IDT entry's descriptive metadata: what to print if it
// fires unhandled, whether it's a trap or interrupt gate, and its DPL
// (only vector 0x80 is DPL=3 -- user code may invoke it directly).
type Vector struct {
	Name string
	Kind VectorKind
	DPL  int
}

// Table is the static IDT shape built once at boot.
type Table struct {
	Vectors [NumVectors]Vector
}

// NewTable builds the table per spec.md §4.10: vectors 0..19 (skipping
// 15) are CPU exceptions; 20..255 default to a generic "unhandled
// interrupt" entry; 0..31 are traps, the rest are interrupts; the five
// overridden vectors get their real names and 0x80 gets DPL 3.
func NewTable() *Table {
	var t Table
	for i := 0; i < NumVectors; i++ {
		name, isException := exceptionNames[i]
		if i < 20 && i != 15 && isException {
			t.Vectors[i] = Vector{Name: name}
		} else {
			t.Vectors[i] = Vector{Name: fmt.Sprintf("Unhandled vector %d", i)}
		}
		if i < 32 {
			t.Vectors[i].Kind = KindTrap
		} else {
			t.Vectors[i].Kind = KindInterrupt
		}
	}
	t.Vectors[VectorPIT] = Vector{Name: "PIT", Kind: KindInterrupt}
	t.Vectors[VectorKeyboard] = Vector{Name: "Keyboard", Kind: KindInterrupt}
	t.Vectors[VectorRTC] = Vector{Name: "RTC", Kind: KindInterrupt}
	t.Vectors[VectorMouse] = Vector{Name: "Mouse", Kind: KindInterrupt}
	t.Vectors[VectorSyscall] = Vector{Name: "Syscall", Kind: KindInterrupt, DPL: 3}
	return &t
}

// Dispatcher routes a fired vector to its handler. The four hardware
// hooks and the syscall hook are wired by the boot routine once every
// subsystem exists; OnException is invoked for every vector with no
// dedicated hook -- both the named CPU exceptions and the 20..255
// default range -- with the vector number and its table name. Dispatch
// itself halts no process; the boot routine's OnException hook prints
// the name and does not halt the current process either.
type Dispatcher struct {
	Table *Table

	PIT       func()
	Keyboard  func()
	RTC       func()
	Mouse     func()
	Syscall   func()
	OnException func(vector int, name string)
}

// Dispatch fires vector v.
func (d *Dispatcher) Dispatch(v int) {
	switch v {
	case VectorPIT:
		if d.PIT != nil {
			d.PIT()
		}
	case VectorKeyboard:
		if d.Keyboard != nil {
			d.Keyboard()
		}
	case VectorRTC:
		if d.RTC != nil {
			d.RTC()
		}
	case VectorMouse:
		if d.Mouse != nil {
			d.Mouse()
		}
	case VectorSyscall:
		if d.Syscall != nil {
			d.Syscall()
		}
	default:
		if d.OnException != nil {
			name := fmt.Sprintf("vector %d", v)
			if v >= 0 && v < NumVectors {
				name = d.Table.Vectors[v].Name
			}
			d.OnException(v, name)
		}
	}
}
