package exec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/cpu"
	"github.com/vinwin12/linux-kernel/internal/fs"
	"github.com/vinwin12/linux-kernel/internal/paging"
	"github.com/vinwin12/linux-kernel/internal/proc"
	"github.com/vinwin12/linux-kernel/internal/sched"
	"github.com/vinwin12/linux-kernel/internal/terminal"
)

func put32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

// buildImageWithELF constructs a disk image with one dentry "prog"
// pointing at an inode whose data is a minimal 28-byte ELF-ish blob:
// magic at 0, entry point at offset 24.
func buildImageWithELF(t *testing.T, entry uint32) *fs.FS {
	t.Helper()
	return buildNamedImageWithELF(t, "prog", entry)
}

// buildNamedImageWithELF is buildImageWithELF with the dentry called name.
func buildNamedImageWithELF(t *testing.T, name string, entry uint32) *fs.FS {
	t.Helper()
	contents := make([]byte, 28)
	copy(contents[0:4], []byte{0x7F, 'E', 'L', 'F'})
	put32(contents[24:28], entry)

	img := make([]byte, fs.BlockSize*3)
	put32(img[0:4], 1)
	put32(img[4:8], 1)
	put32(img[8:12], 1)
	copy(img[fs.HeaderSize:fs.HeaderSize+fs.FilenameSize], []byte(name))
	put32(img[fs.HeaderSize+32:fs.HeaderSize+36], uint32(fs.TypeRegular))
	put32(img[fs.HeaderSize+36:fs.HeaderSize+40], 0)
	put32(img[fs.BlockSize:fs.BlockSize+4], uint32(len(contents)))
	copy(img[fs.BlockSize*2:], contents)

	var f fs.FS
	require.Equal(t, common.Success, f.Init(img))
	return &f
}

func newDeps(t *testing.T, image *fs.FS) *Deps {
	t.Helper()
	procs := &proc.Table{}
	terms := &terminal.Table{}
	terms.Init([3]uint{0x100000, 0x101000, 0x102000}, [3]uint{0x108000, 0x108000, 0x108000})
	var pd paging.Directory
	pd.Init([3]uint{0x100000, 0x101000, 0x102000})
	var tss cpu.TSS
	s := &sched.Scheduler{Procs: procs, Terms: terms, PD: &pd, TSS: &tss}

	return &Deps{FS: image, Procs: procs, Terms: terms, PD: &pd, TSS: &tss, Sched: s}
}

func TestExecuteTermLiteralPrintsNumberAndLaunchesNothing(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))
	d.Terms.Visible = 1

	res := d.Execute("term")
	require.Equal(t, common.Success, res.Status)
	require.Equal(t, "2", res.Message)
	require.False(t, res.Started)
}

func TestExecuteRejectsArgsForNonAllowlistedProgram(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))

	res := d.Execute("prog somearg")
	require.Equal(t, common.EINVAL, res.Status)
	require.False(t, res.Started)
}

func TestExecuteAllowsArgsForAllowlistedProgram(t *testing.T) {
	d := newDeps(t, buildNamedImageWithELF(t, "cat", 0x08048000))

	res := d.Execute("cat a b c")
	// "cat" is on the allow-list, so its (collapsed) arguments do not
	// block the launch and end up in the new PCB's argument buffer.
	require.Equal(t, common.Success, res.Status)
	require.True(t, res.Started)
	pcb := d.Procs.Get(res.Pid)
	require.Equal(t, "abc", string(pcb.ArgBuf[:pcb.ArgLen]))
}

func TestExecuteLaunchesELFAndBuildsFrame(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))
	d.Terms.Terms[0].IsVisible = true

	res := d.Execute("prog")
	require.Equal(t, common.Success, res.Status)
	require.True(t, res.Started)
	require.Equal(t, common.Pid(0), res.Pid)

	pcb := d.Procs.Get(res.Pid)
	require.NotNil(t, pcb)
	require.Equal(t, uint32(0x08048000), pcb.Frame.EntryPoint)
	require.False(t, pcb.HasParent)
	require.Equal(t, common.Pid(0), d.Terms.Terms[0].CurrentProcess)

	phys, ok := d.PD.TaskPhys()
	require.True(t, ok)
	require.Equal(t, paging.UserImagePhys(0), phys)

	require.True(t, d.Terms.Terms[0].HasBeenLaunched)
	require.Equal(t, common.TermIdx(0), d.Sched.CurrIdx)
}

func TestExecuteOutOfProcessLimit(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))
	for i := 0; i < common.MaxProcs; i++ {
		_, ok := d.Procs.FindFree()
		require.True(t, ok)
	}

	res := d.Execute("prog")
	require.Equal(t, common.Success, res.Status)
	require.Equal(t, maxProcsMessage, res.Message)
	require.False(t, res.Started)
}

func TestHaltChildDeliversStatusMaskedTo8Bits(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))
	d.Terms.Terms[0].IsVisible = true

	parentPid, ok := d.Procs.FindFree()
	require.True(t, ok)
	d.Terms.Terms[0].CurrentProcess = parentPid

	res := d.Execute("prog")
	require.True(t, res.Started)
	childPCB := d.Procs.Get(res.Pid)
	require.True(t, childPCB.HasParent)
	require.Equal(t, parentPid, childPCB.Parent)

	hr := d.Halt(res.Pid, 0x1FF) // 511 -> masked to 0xFF
	require.False(t, hr.RelaunchShell)
	require.Equal(t, 0x1FF&0xFF, hr.Delivered)
	require.Equal(t, parentPid, hr.ParentPid)
	require.Equal(t, parentPid, d.Terms.Terms[0].CurrentProcess)
	require.Nil(t, d.Procs.Get(res.Pid), "halted pid must be freed")
}

func TestHaltExceptionSquashDelivers256(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))
	d.Terms.Terms[0].IsVisible = true
	parentPid, _ := d.Procs.FindFree()
	d.Terms.Terms[0].CurrentProcess = parentPid

	res := d.Execute("prog")
	hr := d.Halt(res.Pid, common.StatusExceptionSquash)
	require.Equal(t, common.HaltedByException, hr.Delivered)
}

func TestHaltBaseShellRelaunches(t *testing.T) {
	d := newDeps(t, buildImageWithELF(t, 0x08048000))
	d.Terms.Terms[0].IsVisible = true

	res := d.Execute("prog")
	require.True(t, res.Started)
	require.False(t, d.Procs.Get(res.Pid).HasParent)

	hr := d.Halt(res.Pid, 0)
	require.True(t, hr.RelaunchShell)
	require.Equal(t, common.TermIdx(0), hr.TerminalIdx)
	require.Equal(t, common.NoPid, d.Terms.Terms[0].CurrentProcess)
	require.Nil(t, d.Procs.Get(res.Pid))
}
