// Package proc implements the Process Control Block, its 8-entry file
// descriptor table, and the fixed 6-slot process table, grounded on
// original_source/system_calls.h's pcb_t/fd_t and the teacher's
// proc_new/common.Proc_t (PID allocation under a lock, FD table
// seeding, parent linkage).
//
// Per spec.md §9's redesign note, the parent link is a PID (resolved
// through the table on demand), not a raw pointer, and "the PCB
// reachable via the current kernel stack pointer" becomes a PID the
// caller passes explicitly and looks up with Table.Get, instead of a
// stack-pointer mask.
package proc

import (
	"sync"

	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/cpu"
	"github.com/vinwin12/linux-kernel/internal/fileops"
)

// PCB is one process's kernel-visible state: its FD table, parent
// linkage, saved context, and the argument buffer execute() populated it
// with. Per spec.md §3, slot 0/1 of Fds are stdin/stdout and are BUSY
// from creation; slots 2..7 are allocated by open().
type PCB struct {
	Fds [common.FdCount]fileops.Entry

	Parent      common.Pid // common.NoPid for a terminal's base shell
	HasParent   bool
	Pid         common.Pid
	ParentCtx   cpu.Context
	Ctx         cpu.Context
	ArgBuf      [common.ArgBufSz]byte
	ArgLen      int
	TerminalIdx common.TermIdx
	InUse       bool

	// Image is the program image execute() copied out of the filesystem,
	// standing in for "physical memory at 8 MiB + pid*4 MiB" -- there is
	// no simulated physical address space here, so the copy target is
	// the PCB itself, inspectable the same way a debugger would peek
	// physical memory.
	Image []byte
	Frame cpu.UserFrame
}

// initFds seeds slots 0/1 as the BUSY stdin/stdout pair and clears the
// rest, per spec.md §3.
func (p *PCB) initFds() {
	for i := range p.Fds {
		p.Fds[i] = fileops.Entry{}
	}
	p.Fds[common.FdStdin] = fileops.Entry{Kind: fileops.KindStdin, Busy: true}
	p.Fds[common.FdStdout] = fileops.Entry{Kind: fileops.KindStdout, Busy: true}
}

// AllocFd finds the lowest free slot at index >= 2, per spec.md §4.9's
// open() call: "allocate lowest FREE slot >= 2".
func (p *PCB) AllocFd() (common.Fd, bool) {
	for i := 2; i < common.FdCount; i++ {
		if !p.Fds[i].Busy {
			return common.Fd(i), true
		}
	}
	return 0, false
}

// Table is the fixed 6-slot process table: find_free_process's bitmap
// plus the backing PCB storage itself (the teacher keeps PCBs in a map
// keyed by PID; we use a fixed array since spec.md caps concurrent
// processes at MaxProcs).
type Table struct {
	mu   sync.Mutex
	pcbs [common.MaxProcs]PCB
}

// FindFree scans in order for the lowest free slot and marks it BUSY
// atomically, per find_free_process. Returns false if every slot is
// BUSY (spec.md §4.6 step 7's "allocate a free PID; if none...").
func (t *Table) FindFree() (common.Pid, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < common.MaxProcs; i++ {
		if !t.pcbs[i].InUse {
			t.pcbs[i] = PCB{}
			t.pcbs[i].InUse = true
			t.pcbs[i].Pid = common.Pid(i)
			t.pcbs[i].initFds()
			return common.Pid(i), true
		}
	}
	return common.NoPid, false
}

// Free releases a PID back to the pool.
func (t *Table) Free(pid common.Pid) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pid >= 0 && int(pid) < common.MaxProcs {
		t.pcbs[pid].InUse = false
	}
}

// Get returns the PCB for pid, or nil if that slot isn't in use.
func (t *Table) Get(pid common.Pid) *PCB {
	if pid < 0 || int(pid) >= common.MaxProcs {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pcbs[pid].InUse {
		return nil
	}
	return &t.pcbs[pid]
}

// Count reports how many process slots are currently BUSY, for tests
// and for diagnostics.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.pcbs {
		if t.pcbs[i].InUse {
			n++
		}
	}
	return n
}
