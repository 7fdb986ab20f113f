// Package sched implements the round-robin scheduler (C12): which
// terminal is currently scheduled, the PIT-tick handler that preempts
// it, and find_next_process's wrap-scan, grounded on
// original_source/scheduler.c and the teacher's per-CPU run-queue
// bookkeeping style.
//
// There is no real concurrent execution underneath a Tick -- per
// spec.md §9's redesign note on inline-assembly context switching, a
// process's "kernel stack pointer pair" is the opaque cpu.Context token
// defined in package cpu, and Tick's job is exactly the bookkeeping a
// real switch_task would do around it: save the outgoing context,
// choose the next runnable terminal, reload the TSS and page tables for
// it, and hand back the context a caller should resume with.
package sched

import (
	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/cpu"
	"github.com/vinwin12/linux-kernel/internal/paging"
	"github.com/vinwin12/linux-kernel/internal/proc"
	"github.com/vinwin12/linux-kernel/internal/terminal"
)

// Scheduler bundles the state and collaborators pit_handler touches:
// which terminal is scheduled, the page/TSS/process tables it mutates,
// and the three terminals it round-robins across.
type Scheduler struct {
	Procs *proc.Table
	Terms *terminal.Table
	PD    *paging.Directory
	TSS   *cpu.TSS

	CurrIdx        common.TermIdx
	RestoreCurrIdx common.TermIdx
}

// FindNext is find_next_process: starting at (CurrIdx+1) mod NumTerms,
// wrap-scans for the next terminal with HasBeenLaunched set. Returns
// (CurrIdx, false) unchanged if none is found, per invariant 3.
func (s *Scheduler) FindNext() (common.TermIdx, bool) {
	for i := 1; i <= common.NumTerms; i++ {
		idx := common.TermIdx((int(s.CurrIdx) + i) % common.NumTerms)
		if s.Terms.Terms[idx].HasBeenLaunched {
			return idx, true
		}
	}
	return s.CurrIdx, false
}

// Tick is pit_handler's body (EOI is the caller's responsibility, done
// before this runs, per spec.md §5's ordering rule). savedCtx is the
// context of whatever was just preempted; Tick returns the context the
// caller should resume with -- either savedCtx unchanged (nothing to
// preempt, or no other terminal is launched) or the newly-scheduled
// terminal's saved PCB context.
func (s *Scheduler) Tick(savedCtx cpu.Context) cpu.Context {
	cur := &s.Terms.Terms[s.CurrIdx]
	if cur.CurrentProcess == common.NoPid {
		return savedCtx
	}

	if pcb := s.Procs.Get(cur.CurrentProcess); pcb != nil {
		pcb.Ctx = savedCtx
	}

	if next, ok := s.FindNext(); ok {
		s.CurrIdx = next
	}

	next := &s.Terms.Terms[s.CurrIdx]
	pcb := s.Procs.Get(next.CurrentProcess)
	if pcb == nil {
		return savedCtx
	}

	s.TSS.Load(cpu.KernelDS, uint32(paging.KernelStackTop(int(pcb.Pid))))
	s.PD.MapTask(paging.UserTaskVA, uint(paging.UserImagePhys(int(pcb.Pid))))
	if next.IsVisible {
		s.PD.MapVidmem(paging.UserVidVA, paging.VidmemAddr)
	} else {
		s.PD.MapVidmem(paging.UserVidVA, next.VidmemAddr)
	}

	return pcb.Ctx
}
