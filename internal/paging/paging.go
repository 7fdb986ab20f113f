// Package paging models one page directory and two page tables: the
// kernel's static identity/large-page mapping, and the per-process user
// image and per-terminal video mappings it installs at runtime, grounded
// on original_source/paging.{c,h} and the flag-constant style of the
// refactored fork's vm.Vm_t/Pmap_t (see other_examples' ...biscuit-src-vm-as.go.go).
//
// There is no real CR3/PTE hardware here (spec.md places GDT/paging
// mechanics' literal bit layout out of scope); flags and addresses are
// tracked as plain Go state so the rest of the kernel can assert on it.
package paging

import "github.com/vinwin12/linux-kernel/internal/common"

const (
	PageSize   = 4096
	FourMB     = 0x400000
	Entries    = 1024

	PTE_P   = 1 << 0 // present
	PTE_RW  = 1 << 1 // read/write
	PTE_U   = 1 << 2 // user-accessible
	PTE_4MB = 1 << 7 // 4 MiB page

	VidmemAddr = 0xB8000

	UserImageVA = 0x08048000
	UserTaskVA  = 128 * 0x100000 // 128 MiB, PD index 32
	UserVidVA   = 128*0x100000 + PageSize
	UserStackTop = 132*0x100000 - 4

	taskBase    = 8 * 0x100000 // 8 MiB: where process images and kernel stacks live
	pcbSlotSize = common.KernStackSz
)

// KernelStackTop returns tss.esp0 for pid, per spec.md §4.6 step 12:
// "8 MiB - 8 KiB*pid - 4".
func KernelStackTop(pid int) uint {
	return uint(taskBase - pcbSlotSize*pid - 4)
}

// PCBBase returns the address a process's PCB lives at, per spec.md §4.6
// step 11 and invariant 1: "8 MiB - 8 KiB*(pid+1)".
func PCBBase(pid int) uint {
	return uint(taskBase - pcbSlotSize*(pid+1))
}

// UserImagePhys returns the physical base address map_task installs for
// pid's program image, per spec.md §4.6 step 9: "8 MiB + pid*4 MiB".
func UserImagePhys(pid int) uint {
	return uint(taskBase + pid*FourMB)
}

// PDE is one page directory entry: a physical base address plus flag
// bits, matching the original's "(physical_address | flags)" encoding
// without the bit-packing (we keep the two separate for clarity, same
// information).
type PDE struct {
	Phys  uint
	Flags uint
	// Present reports whether this PDE was ever installed; the zero
	// value is "not present", matching the original's page_directory[i]
	// = 0x2 (R/W, not present) initial fill.
	Present bool
}

// Directory is the 1024-entry page directory plus the kernel's low-4MiB
// page table and the vidmap page table, per paging.h's three static
// arrays.
type Directory struct {
	PD [Entries]PDE

	// lowTable models the low-4MiB page table: PD[0] points here. Only
	// the entries the kernel cares about (video pages) are tracked
	// explicitly; everything else is an implicit identity map.
	lowTable map[int]PDE

	// vidmapPTE models vidmap_page_table's PTE[0], the only entry ever
	// written, by MapVidmem.
	vidmapPTE PDE

	// tlbGen counts FlushTLB calls; tests use it to assert a mapping
	// change was actually flushed, standing in for a real TLB shootdown.
	tlbGen uint64
}

// Init installs the static boot-time layout: PD[0] -> low 4 MiB
// identity-mapped page table (video frame and the three terminal backing
// pages marked present+R/W), PD[1] -> kernel image as a supervisor-only
// 4 MiB large page, per paging_init.
func (d *Directory) Init(termVidmem [3]uint) {
	d.lowTable = make(map[int]PDE)
	d.PD[0] = PDE{Phys: 0, Flags: PTE_P | PTE_RW, Present: true}
	d.PD[1] = PDE{Phys: FourMB, Flags: PTE_P | PTE_RW | PTE_4MB, Present: true}

	d.lowTable[VidmemAddr/PageSize] = PDE{Phys: VidmemAddr, Flags: PTE_P | PTE_RW, Present: true}
	for _, addr := range termVidmem {
		d.lowTable[int(addr)/PageSize] = PDE{Phys: addr, Flags: PTE_P | PTE_RW, Present: true}
	}
	d.FlushTLB()
}

// MapTask installs the per-process user image mapping at PD[virt/4MiB],
// per map_task: present, user, R/W, 4 MiB page.
func (d *Directory) MapTask(virt, phys uint) {
	idx := int(virt / FourMB)
	d.PD[idx] = PDE{Phys: phys, Flags: PTE_P | PTE_RW | PTE_U | PTE_4MB, Present: true}
	d.FlushTLB()
}

// MapVidmem installs the vidmap-page-table indirection at PD[virt/4MiB]
// and points its single PTE at phys, per map_vidmem. Used both by the
// vidmap syscall and by the scheduler every tick to retarget the current
// process's user video page.
func (d *Directory) MapVidmem(virt, phys uint) {
	idx := int(virt / FourMB)
	d.PD[idx] = PDE{Flags: PTE_P | PTE_RW | PTE_U, Present: true}
	d.vidmapPTE = PDE{Phys: phys, Flags: PTE_P | PTE_RW | PTE_U, Present: true}
	d.FlushTLB()
}

// VidmapTarget reports the physical address the vidmap page table's one
// entry currently points at, for tests and for the terminal-switch logic
// that needs to know whether a process's video is currently aliased to
// the real VGA frame or to its terminal's backing page.
func (d *Directory) VidmapTarget() uint {
	return d.vidmapPTE.Phys
}

// RetargetFrame repoints the kernel's low-table entry for the fixed VGA
// frame address at phys and flushes the TLB, per spec.md §4.3's
// terminal-switch steps "point that terminal's PTE at its backing again"
// / "retarget [the target terminal]'s PTE at the frame".
func (d *Directory) RetargetFrame(phys uint) {
	d.lowTable[VidmemAddr/PageSize] = PDE{Phys: phys, Flags: PTE_P | PTE_RW, Present: true}
	d.FlushTLB()
}

// FrameTarget reports the physical address the VGA frame entry currently
// points at, for tests.
func (d *Directory) FrameTarget() uint {
	return d.lowTable[VidmemAddr/PageSize].Phys
}

// FlushTLB bumps the generation counter that stands in for a real TLB
// shootdown.
func (d *Directory) FlushTLB() {
	d.tlbGen++
}

// TLBGeneration exposes the flush counter for tests.
func (d *Directory) TLBGeneration() uint64 {
	return d.tlbGen
}

// TaskPhys returns the physical base address currently mapped at the
// fixed 128 MiB user task VA, or false if nothing is mapped there.
func (d *Directory) TaskPhys() (uint, bool) {
	pde := d.PD[UserTaskVA/FourMB]
	return pde.Phys, pde.Present
}
