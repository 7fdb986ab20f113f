package syscall

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/cpu"
	"github.com/vinwin12/linux-kernel/internal/exec"
	"github.com/vinwin12/linux-kernel/internal/fs"
	"github.com/vinwin12/linux-kernel/internal/paging"
	"github.com/vinwin12/linux-kernel/internal/proc"
	"github.com/vinwin12/linux-kernel/internal/sched"
	"github.com/vinwin12/linux-kernel/internal/terminal"
	"github.com/vinwin12/linux-kernel/internal/timer"
)

func put32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func buildFS(t *testing.T) *fs.FS {
	t.Helper()
	contents := []byte("hello world")
	img := make([]byte, fs.BlockSize*3)
	put32(img[0:4], 1)
	put32(img[4:8], 1)
	put32(img[8:12], 1)
	copy(img[fs.HeaderSize:fs.HeaderSize+4], []byte("f.txt"))
	put32(img[fs.HeaderSize+32:fs.HeaderSize+36], uint32(fs.TypeRegular))
	put32(img[fs.HeaderSize+36:fs.HeaderSize+40], 0)
	put32(img[fs.BlockSize:fs.BlockSize+4], uint32(len(contents)))
	copy(img[fs.BlockSize*2:], contents)

	var f fs.FS
	require.Equal(t, common.Success, f.Init(img))
	return &f
}

func newDeps(t *testing.T) (*Deps, common.Pid) {
	t.Helper()
	f := buildFS(t)
	procs := &proc.Table{}
	terms := &terminal.Table{}
	terms.Init([3]uint{0x100000, 0x101000, 0x102000}, [3]uint{0x108000, 0x108000, 0x108000})
	var pd paging.Directory
	pd.Init([3]uint{0x100000, 0x101000, 0x102000})
	var tss cpu.TSS
	var rtc timer.RTC
	rtc.Init()

	s := &sched.Scheduler{Procs: procs, Terms: terms, PD: &pd, TSS: &tss}
	ed := &exec.Deps{FS: f, Procs: procs, Terms: terms, PD: &pd, TSS: &tss, Sched: s}
	d := &Deps{Procs: procs, Terms: terms, FS: f, RTC: &rtc, Exec: ed}

	pid, ok := procs.FindFree()
	require.True(t, ok)
	procs.Get(pid).TerminalIdx = 0
	return d, pid
}

func TestOpenCloseFdAllocation(t *testing.T) {
	d, pid := newDeps(t)

	fd, err := d.Open(pid, "f.txt")
	require.Equal(t, common.Success, err)
	require.Equal(t, common.Fd(2), fd, "lowest free slot is 2 since 0/1 are stdin/stdout")

	require.Equal(t, common.Success, d.Close(pid, fd))

	fd2, err := d.Open(pid, "f.txt")
	require.Equal(t, common.Success, err)
	require.Equal(t, fd, fd2, "re-open must reuse the just-freed lowest slot")
}

func TestCloseRejectsStdinStdoutAndOutOfRange(t *testing.T) {
	d, pid := newDeps(t)

	require.Equal(t, common.EINVAL, d.Close(pid, common.FdStdin))
	require.Equal(t, common.EINVAL, d.Close(pid, common.FdStdout))
	require.Equal(t, common.EINVAL, d.Close(pid, common.Fd(99)))
	require.Equal(t, common.EINVAL, d.Close(pid, common.Fd(3)), "slot 3 was never opened")
}

func TestReadWriteRejectUnboundOrOutOfRangeFd(t *testing.T) {
	d, pid := newDeps(t)

	_, err := d.Read(pid, common.Fd(5), make([]byte, 4))
	require.Equal(t, common.EINVAL, err)

	_, err = d.Write(pid, common.Fd(-1), []byte("x"))
	require.Equal(t, common.EINVAL, err)
}

func TestReadFileAfterOpen(t *testing.T) {
	d, pid := newDeps(t)
	fd, err := d.Open(pid, "f.txt")
	require.Equal(t, common.Success, err)

	buf := make([]byte, 5)
	n, err := d.Read(pid, fd, buf)
	require.Equal(t, common.Success, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestGetArgsRejectsEmptyOrOverflowedBuffer(t *testing.T) {
	d, pid := newDeps(t)
	buf := make([]byte, 16)

	_, err := d.GetArgs(pid, buf, 16)
	require.Equal(t, common.EINVAL, err, "arg_buf is empty for a process with no args")

	pcb := d.Procs.Get(pid)
	pcb.ArgLen = common.ArgBufSz
	for i := range pcb.ArgBuf {
		pcb.ArgBuf[i] = 'x'
	}
	_, err = d.GetArgs(pid, buf, 16)
	require.Equal(t, common.EINVAL, err, "unterminated arg buffer must be rejected")
}

func TestGetArgsCopiesUpToN(t *testing.T) {
	d, pid := newDeps(t)
	pcb := d.Procs.Get(pid)
	copy(pcb.ArgBuf[:], "hello")
	pcb.ArgLen = 5

	buf := make([]byte, 3)
	n, err := d.GetArgs(pid, buf, 3)
	require.Equal(t, common.Success, err)
	require.Equal(t, 3, n)
	require.Equal(t, "hel", string(buf))
}

func TestVidmapRejectsOutOfRangePointer(t *testing.T) {
	d, pid := newDeps(t)

	_, err := d.Vidmap(pid, 0)
	require.Equal(t, common.EINVAL, err)

	va, err := d.Vidmap(pid, paging.UserTaskVA)
	require.Equal(t, common.Success, err)
	require.Equal(t, uint32(paging.UserVidVA), va)
}

func TestSetHandlerIsUnimplemented(t *testing.T) {
	d, pid := newDeps(t)
	require.Equal(t, common.EINVAL, d.SetHandler(pid))
}
