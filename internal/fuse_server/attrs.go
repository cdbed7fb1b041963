package fuse_server

import (
	"errors"
	"syscall"

	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	"github.com/hanwen/go-fuse/v2/fuse"
)

func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pms.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, pms.ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, pms.ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, pms.ErrIsDir):
		return syscall.EISDIR
	case errors.Is(err, pms.ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, pms.ErrPermission):
		return syscall.EPERM
	case errors.Is(err, pms.ErrNoAttribute):
		return syscall.ENODATA
	case errors.Is(err, pms.ErrInvalid), errors.Is(err, pms.ErrInvalidAttributeValue):
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

func modeType(t pms.InodeType) uint32 {
	if t == pms.TypeDirectory {
		return syscall.S_IFDIR
	}
	return syscall.S_IFREG
}

// blocks rounds size up to whole units without overflowing near the uint64
// maximum.
func blocks(size, unit uint64) uint64 {
	n := size / unit
	if size%unit != 0 {
		n++
	}
	return n
}

func fillAttr(out *fuse.Attr, a *pms.Attributes, owner fuse.Owner) {
	out.Ino = a.Ino
	out.Mode = modeType(a.Type) | a.Mode
	out.Size = a.Size
	out.Nlink = a.NLink
	out.Blksize = pms.BlockSize
	out.Blocks = blocks(a.Size, 512)
	out.Owner = owner
	out.SetTimes(&a.AccessTime, &a.ModifyTime, &a.ChangeTime)
}

func fillStatfs(out *fuse.StatfsOut, stats *pms.FileSystemStats) {
	out.Bsize = stats.BlockSize
	out.Frsize = stats.BlockSize
	out.Blocks = blocks(stats.TotalBytes, uint64(stats.BlockSize))
	out.Bfree = 0
	out.Bavail = 0
	out.Files = stats.Files + stats.Directories
	out.Ffree = 0
	out.NameLen = stats.MaxFilenameSize
}

// encodeXattrNames produces the NUL-terminated list listxattr(2) returns.
func encodeXattrNames(names []string) []byte {
	size := 0
	for _, name := range names {
		size += len(name) + 1
	}
	buf := make([]byte, 0, size)
	for _, name := range names {
		buf = append(buf, name...)
		buf = append(buf, 0)
	}
	return buf
}

// copyOut follows getxattr(2): an empty dest asks for the size, a short
// one fails with ERANGE.
func copyOut(dest, data []byte) (uint32, syscall.Errno) {
	if len(dest) == 0 {
		return uint32(len(data)), 0
	}
	if len(dest) < len(data) {
		return uint32(len(data)), syscall.ERANGE
	}
	return uint32(copy(dest, data)), 0
}
