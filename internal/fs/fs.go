// Package fs implements the read-only on-disk filesystem reader: boot
// block, inode, and data block layout, exposed as FindDentryByName,
// FindDentryByIndex and ReadData, grounded on the teacher's "fs" package
// import and original_source/file_system.c.
package fs

import (
	"bytes"

	"github.com/vinwin12/linux-kernel/internal/common"
)

const (
	BlockSize      = 4096
	HeaderSize     = 64
	FilenameSize   = 32
	MaxDentries    = 63
	dentrySize     = 64
	maxDataBlocks  = (BlockSize - 4) / 4 // 1023 block indices per inode block
)

// FileType identifies what a Dentry points at.
type FileType uint32

const (
	TypeRTC FileType = iota
	TypeDirectory
	TypeRegular
)

// Dentry is a 64-byte directory entry: name, type, and inode index.
type Dentry struct {
	Name     [FilenameSize]byte
	Type     FileType
	Inode    common.Inum
}

// NameLen returns the "visible" length of the stored filename: up to the
// first NUL, or the full 32 bytes if there is none (filenames are not
// guaranteed to be NUL-terminated when exactly 32 bytes long).
func (d *Dentry) NameLen() int {
	if i := bytes.IndexByte(d.Name[:], 0); i >= 0 {
		return i
	}
	return FilenameSize
}

// String returns the visible portion of the filename.
func (d *Dentry) String() string {
	return string(d.Name[:d.NameLen()])
}

type stats struct {
	numDentries   uint32
	numInodes     uint32
	numDataBlocks uint32
}

type inode struct {
	length uint32
	blocks [maxDataBlocks]uint32
}

// FS is a single mounted, read-only filesystem image. The zero value is
// unopened; call Init once before use.
type FS struct {
	open    bool
	stats   stats
	dents   []Dentry
	inodes  []inode
	data    []byte // raw data-block region, BlockSize-aligned
}

// Init parses a raw disk image per spec.md's boot-block/inode/data-block
// layout. Idempotent-guarded: a second Init on an already-open FS fails,
// matching file_system_init's fs_open_flag check.
func (f *FS) Init(image []byte) common.Err_t {
	if f.open {
		return common.EINVAL
	}
	if len(image) < HeaderSize {
		return common.EINVAL
	}

	f.stats.numDentries = le32(image[0:4])
	f.stats.numInodes = le32(image[4:8])
	f.stats.numDataBlocks = le32(image[8:12])

	dentBase := HeaderSize
	nd := int(f.stats.numDentries)
	if nd > MaxDentries {
		nd = MaxDentries
	}
	f.dents = make([]Dentry, nd)
	for i := 0; i < nd; i++ {
		off := dentBase + i*dentrySize
		if off+dentrySize > len(image) {
			break
		}
		var d Dentry
		copy(d.Name[:], image[off:off+FilenameSize])
		d.Type = FileType(le32(image[off+32 : off+36]))
		d.Inode = common.Inum(le32(image[off+36 : off+40]))
		f.dents[i] = d
	}

	inodesBase := BlockSize
	ni := int(f.stats.numInodes)
	f.inodes = make([]inode, ni)
	for i := 0; i < ni; i++ {
		off := inodesBase + i*BlockSize
		if off+4 > len(image) {
			break
		}
		var in inode
		in.length = le32(image[off : off+4])
		for k := 0; k < maxDataBlocks; k++ {
			bo := off + 4 + k*4
			if bo+4 > len(image) {
				break
			}
			in.blocks[k] = le32(image[bo : bo+4])
		}
		f.inodes[i] = in
	}

	dataBase := (ni + 1) * BlockSize
	if dataBase < len(image) {
		f.data = image[dataBase:]
	} else {
		f.data = nil
	}

	f.open = true
	return common.Success
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// FindDentryByName performs the linear scan spec.md §4.1 describes: a match
// requires either the requested name's length equal the stored visible
// length, or the requested name be exactly 32 bytes with a stored visible
// length >= 32; AND the first min(32, requested_len) bytes compare equal.
func (f *FS) FindDentryByName(name string) (Dentry, common.Err_t) {
	if !f.open {
		return Dentry{}, common.EINVAL
	}
	reqLen := len(name)
	if reqLen == 0 || reqLen > FilenameSize {
		return Dentry{}, common.ENOENT
	}
	var nb [FilenameSize]byte
	n := copy(nb[:], name)

	for i := range f.dents {
		d := &f.dents[i]
		sl := d.NameLen()
		lenMatches := reqLen == sl || (reqLen == FilenameSize && sl >= FilenameSize)
		if !lenMatches {
			continue
		}
		cmpLen := n
		if cmpLen > FilenameSize {
			cmpLen = FilenameSize
		}
		if bytes.Equal(nb[:cmpLen], d.Name[:cmpLen]) {
			return *d, common.Success
		}
	}
	return Dentry{}, common.ENOENT
}

// FindDentryByIndex is a bounds-checked constant-time lookup.
func (f *FS) FindDentryByIndex(i int) (Dentry, common.Err_t) {
	if !f.open || i < 0 || i >= len(f.dents) {
		return Dentry{}, common.ENOENT
	}
	return f.dents[i], common.Success
}

// NumDentries reports how many directory entries this image carries.
func (f *FS) NumDentries() int {
	return int(f.stats.numDentries)
}

// ReadResult distinguishes "read some bytes", "hit EOF with nothing read",
// and "error" -- EndOfFile is not an Err_t, per spec.md §7.
type ReadResult struct {
	N   int
	EOF bool
}

// ReadData copies up to len(dst) bytes of inode data starting at offset,
// per spec.md §4.1.
func (f *FS) ReadData(idx common.Inum, offset uint32, dst []byte) (ReadResult, common.Err_t) {
	if !f.open || dst == nil {
		return ReadResult{}, common.EFAULT
	}
	if int(idx) < 0 || int(idx) >= len(f.inodes) {
		return ReadResult{}, common.EINVAL
	}
	in := &f.inodes[idx]
	if offset > in.length {
		return ReadResult{}, common.EINVAL
	}
	if offset == in.length {
		return ReadResult{EOF: true}, common.Success
	}

	curBlock := int(offset / BlockSize)
	blockOff := int(offset % BlockSize)

	n := 0
	maxLen := len(dst)
	for n < maxLen {
		if curBlock >= len(in.blocks) {
			return ReadResult{}, common.EINVAL
		}
		blk := in.blocks[curBlock]
		if blk >= f.stats.numDataBlocks {
			return ReadResult{}, common.EINVAL
		}
		if offset+uint32(n) >= in.length {
			break
		}
		srcOff := int(blk)*BlockSize + blockOff
		if srcOff >= len(f.data) {
			return ReadResult{}, common.EINVAL
		}
		dst[n] = f.data[srcOff]
		n++
		blockOff++
		if blockOff >= BlockSize {
			blockOff = 0
			curBlock++
		}
	}
	return ReadResult{N: n}, common.Success
}
