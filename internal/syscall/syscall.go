// Package syscall implements the nine-call dispatch surface (C13),
// grounded on original_source/system_calls.c's syscall_handler jump
// table and the teacher's sys_*/SYS_* convention (one exported method
// per call number, bounds-checked before touching the FD table).
//
// Per spec.md §6, the real ABI (EAX = call number, EBX/ECX/EDX = args,
// return in EAX) is out of scope -- vector 0x80 is modeled by
// internal/trap and the register convention is not modeled at all;
// this package is the part
// that is actually testable: one Go method per call number, taking the
// calling process's PID explicitly in place of "obtain current PCB via
// kernel SP mask" (spec.md §9's redesign note).
package syscall

import (
	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/exec"
	"github.com/vinwin12/linux-kernel/internal/fileops"
	"github.com/vinwin12/linux-kernel/internal/fs"
	"github.com/vinwin12/linux-kernel/internal/paging"
	"github.com/vinwin12/linux-kernel/internal/proc"
	"github.com/vinwin12/linux-kernel/internal/terminal"
	"github.com/vinwin12/linux-kernel/internal/timer"
)

// Deps bundles the collaborators the nine calls dispatch into.
type Deps struct {
	Procs *proc.Table
	Terms *terminal.Table
	FS    *fs.FS
	RTC   *timer.RTC
	Exec  *exec.Deps
}

func (d *Deps) devicesFor(pcb *proc.PCB) fileops.Devices {
	return fileops.Devices{
		FS:   d.FS,
		Term: &d.Terms.Terms[pcb.TerminalIdx],
		RTC:  d.RTC,
		Idx:  pcb.TerminalIdx,
	}
}

// Halt is call 1, §4.7 -- see package exec for the actual bookkeeping;
// this just forwards the caller's PID and status.
func (d *Deps) Halt(pid common.Pid, status int) exec.HaltResult {
	return d.Exec.Halt(pid, status)
}

// Execute is call 2, §4.6.
func (d *Deps) Execute(cmd string) exec.Result {
	return d.Exec.Execute(cmd)
}

// Read is call 3: bounds-check fd, require BUSY, delegate to the FD's
// ops.read.
func (d *Deps) Read(pid common.Pid, fd common.Fd, dst []byte) (int, common.Err_t) {
	pcb := d.Procs.Get(pid)
	if pcb == nil {
		return 0, common.ESRCH
	}
	if fd < 0 || int(fd) >= common.FdCount || !pcb.Fds[fd].Busy {
		return 0, common.EINVAL
	}
	return fileops.Read(&pcb.Fds[fd], d.devicesFor(pcb), dst)
}

// Write is call 4: as Read.
func (d *Deps) Write(pid common.Pid, fd common.Fd, src []byte) (int, common.Err_t) {
	pcb := d.Procs.Get(pid)
	if pcb == nil {
		return 0, common.ESRCH
	}
	if fd < 0 || int(fd) >= common.FdCount || !pcb.Fds[fd].Busy {
		return 0, common.EINVAL
	}
	return fileops.Write(&pcb.Fds[fd], d.devicesFor(pcb), src)
}

// Open is call 5: find the dentry, allocate the lowest free slot >= 2,
// bind ops by filetype, inode (0 for rtc/dir), position 0, BUSY.
func (d *Deps) Open(pid common.Pid, name string) (common.Fd, common.Err_t) {
	pcb := d.Procs.Get(pid)
	if pcb == nil {
		return 0, common.ESRCH
	}
	dentry, err := d.FS.FindDentryByName(name)
	if err != common.Success {
		return 0, common.EINVAL
	}
	fd, ok := pcb.AllocFd()
	if !ok {
		return 0, common.EMFILE
	}
	kind := fileops.KindForFileType(dentry.Type)
	if err := fileops.Open(kind, name); err != common.Success {
		return 0, err
	}
	entry := fileops.Entry{Kind: kind, Busy: true}
	if kind == fileops.KindFile {
		entry.Inode = dentry.Inode
	}
	pcb.Fds[fd] = entry
	return fd, common.Success
}

// Close is call 6: reject fd in {0,1}, out-of-range, or already FREE;
// call ops.close, mark FREE.
func (d *Deps) Close(pid common.Pid, fd common.Fd) common.Err_t {
	pcb := d.Procs.Get(pid)
	if pcb == nil {
		return common.ESRCH
	}
	if fd == common.FdStdin || fd == common.FdStdout {
		return common.EINVAL
	}
	if fd < 0 || int(fd) >= common.FdCount || !pcb.Fds[fd].Busy {
		return common.EINVAL
	}
	if err := fileops.Close(pcb.Fds[fd].Kind); err != common.Success {
		return err
	}
	pcb.Fds[fd] = fileops.Entry{}
	return common.Success
}

// GetArgs is call 7: -1 if buf is nil, n<0, arg_buf is empty, or the
// argument buffer's last byte is non-zero (it overflowed without a
// terminator); otherwise copy min(n, ArgBufSz-1) bytes.
func (d *Deps) GetArgs(pid common.Pid, buf []byte, n int) (int, common.Err_t) {
	pcb := d.Procs.Get(pid)
	if pcb == nil {
		return 0, common.ESRCH
	}
	if buf == nil || n < 0 || pcb.ArgLen == 0 || pcb.ArgBuf[common.ArgBufSz-1] != 0 {
		return 0, common.EINVAL
	}
	want := n
	if want > common.ArgBufSz-1 {
		want = common.ArgBufSz - 1
	}
	return copy(buf, pcb.ArgBuf[:want]), common.Success
}

// Vidmap is call 8: reject out_ptr outside [128 MiB, 132 MiB); map the
// caller's terminal's video page and return the user VA it was mapped
// at. Per spec.md §6, out_ptr is the address of a user-space pointer
// variable vidmap would write the VA into -- there being no
// simulated user address space to write through, the VA is returned
// directly and it is the caller's responsibility to deliver it.
func (d *Deps) Vidmap(pid common.Pid, outPtr uint32) (uint32, common.Err_t) {
	pcb := d.Procs.Get(pid)
	if pcb == nil {
		return 0, common.ESRCH
	}
	if outPtr < paging.UserTaskVA || outPtr >= paging.UserTaskVA+paging.FourMB {
		return 0, common.EINVAL
	}
	term := &d.Terms.Terms[pcb.TerminalIdx]
	var phys uint
	if term.IsVisible {
		phys = paging.VidmemAddr
	} else {
		phys = term.VidmemAddr
	}
	d.Exec.PD.MapVidmem(paging.UserVidVA, phys)
	return paging.UserVidVA, common.Success
}

// SetHandler is call 9 (set_handler/sigreturn): unimplemented, per
// spec.md §4.9.
func (d *Deps) SetHandler(pid common.Pid) common.Err_t {
	return common.EINVAL
}
