package fileops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vinwin12/linux-kernel/internal/common"
	"github.com/vinwin12/linux-kernel/internal/fs"
	"github.com/vinwin12/linux-kernel/internal/terminal"
	"github.com/vinwin12/linux-kernel/internal/timer"
)

func buildFS(t *testing.T) *fs.FS {
	t.Helper()
	contents := []byte("hello world")
	img := make([]byte, fs.BlockSize*3)
	put32 := func(b []byte, v uint32) {
		b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	put32(img[0:4], 1)
	put32(img[4:8], 1)
	put32(img[8:12], 1)
	copy(img[fs.HeaderSize:fs.HeaderSize+4], []byte("f.txt"))
	put32(img[fs.HeaderSize+32:fs.HeaderSize+36], uint32(fs.TypeRegular))
	put32(img[fs.HeaderSize+36:fs.HeaderSize+40], 0)
	put32(img[fs.BlockSize:fs.BlockSize+4], uint32(len(contents)))
	put32(img[fs.BlockSize+4:fs.BlockSize+8], 0)
	copy(img[fs.BlockSize*2:], contents)

	var f fs.FS
	require.Equal(t, common.Success, f.Init(img))
	return &f
}

func TestStdoutWriteAndStdinReadOnlyFail(t *testing.T) {
	var term terminal.Terminal
	term.Init()
	dev := Devices{Term: &term}

	e := &Entry{Kind: KindStdout}
	n, err := Write(e, dev, []byte("hi"))
	require.Equal(t, common.Success, err)
	require.Equal(t, 0, n)

	_, err = Read(e, dev, make([]byte, 4))
	require.Equal(t, common.EINVAL, err)

	stdin := &Entry{Kind: KindStdin}
	_, err = Write(stdin, dev, []byte("x"))
	require.Equal(t, common.EINVAL, err)
}

func TestFileReadAdvancesPosition(t *testing.T) {
	f := buildFS(t)
	dev := Devices{FS: f}
	e := &Entry{Kind: KindFile, Inode: 0}

	buf := make([]byte, 5)
	n, err := Read(e, dev, buf)
	require.Equal(t, common.Success, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
	require.Equal(t, uint32(5), e.Position)

	n, err = Read(e, dev, buf)
	require.Equal(t, common.Success, err)
	require.Equal(t, 5, n)
	require.Equal(t, " worl", string(buf))
}

func TestFileWriteAlwaysFails(t *testing.T) {
	e := &Entry{Kind: KindFile}
	_, err := Write(e, Devices{}, []byte("x"))
	require.Equal(t, common.EINVAL, err)
}

func TestDirReadCyclesAndResets(t *testing.T) {
	f := buildFS(t)
	dev := Devices{FS: f}
	e := &Entry{Kind: KindDir}

	buf := make([]byte, 32)
	n, err := Read(e, dev, buf)
	require.Equal(t, common.Success, err)
	require.Equal(t, "f.txt", string(buf[:n]))

	n, err = Read(e, dev, buf)
	require.Equal(t, common.Success, err)
	require.Equal(t, 0, n, "cursor must wrap after listing every dentry once")
}

func TestDirReadCursorIsPerFD(t *testing.T) {
	f := buildFS(t)
	dev := Devices{FS: f}
	e1 := &Entry{Kind: KindDir}
	e2 := &Entry{Kind: KindDir}

	buf := make([]byte, 32)
	Read(e1, dev, buf)
	require.Equal(t, 1, e1.lsCursor)
	require.Equal(t, 0, e2.lsCursor, "a second FD's listing must not be perturbed by the first")
}

func TestRTCReadBlocksUntilTick(t *testing.T) {
	var r timer.RTC
	r.Init()
	dev := Devices{RTC: &r, Idx: 0}
	e := &Entry{Kind: KindRTC}

	done := make(chan struct{})
	go func() {
		Read(e, dev, nil)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("rtc read returned before a tick")
	case <-time.After(10 * time.Millisecond):
	}

	r.Tick()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rtc read did not unblock after a tick")
	}
}

func TestRTCWriteValidatesSize(t *testing.T) {
	var r timer.RTC
	r.Init()
	dev := Devices{RTC: &r, Idx: 0}
	e := &Entry{Kind: KindRTC}

	_, err := Write(e, dev, []byte{1, 2, 3})
	require.Equal(t, common.EINVAL, err)

	buf := make([]byte, 4)
	buf[0] = 32 // little-endian 32
	n, err := Write(e, dev, buf)
	require.Equal(t, common.Success, err)
	require.Equal(t, 4, n)
	require.Equal(t, 32, r.RateHz())
}

func TestKindForFileType(t *testing.T) {
	require.Equal(t, KindRTC, KindForFileType(fs.TypeRTC))
	require.Equal(t, KindDir, KindForFileType(fs.TypeDirectory))
	require.Equal(t, KindFile, KindForFileType(fs.TypeRegular))
}
