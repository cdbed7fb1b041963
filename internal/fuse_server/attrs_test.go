package fuse_server

import (
	"fmt"
	"math"
	"syscall"
	"testing"
	"time"

	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
)

func TestToErrno(t *testing.T) {
	tests := []struct {
		err  error
		want syscall.Errno
	}{
		{nil, 0},
		{pms.ErrNotFound, syscall.ENOENT},
		{fmt.Errorf("lookup x: %w", pms.ErrNotFound), syscall.ENOENT},
		{pms.ErrAlreadyExists, syscall.EEXIST},
		{pms.ErrNotDir, syscall.ENOTDIR},
		{pms.ErrIsDir, syscall.EISDIR},
		{pms.ErrNotEmpty, syscall.ENOTEMPTY},
		{fmt.Errorf("%w: files cannot be renamed", pms.ErrPermission), syscall.EPERM},
		{pms.ErrNoAttribute, syscall.ENODATA},
		{pms.ErrInvalid, syscall.EINVAL},
		{fmt.Errorf("%w: user.filler", pms.ErrInvalidAttributeValue), syscall.EINVAL},
		{fmt.Errorf("unexpected"), syscall.EIO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toErrno(tt.err), "%v", tt.err)
	}
}

func TestBlocks(t *testing.T) {
	assert.Equal(t, uint64(0), blocks(0, 512))
	assert.Equal(t, uint64(1), blocks(1, 512))
	assert.Equal(t, uint64(1), blocks(512, 512))
	assert.Equal(t, uint64(2), blocks(513, 512))
	assert.Equal(t, uint64(math.MaxUint64/512+1), blocks(math.MaxUint64, 512))
}

func TestFillAttr(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	owner := fuse.Owner{Uid: 1000, Gid: 1000}

	var out fuse.Attr
	fillAttr(&out, &pms.Attributes{
		Ino:        7,
		Type:       pms.TypeFile,
		Mode:       pms.FileMode,
		Size:       4<<20 + 1,
		NLink:      1,
		AccessTime: now,
		ModifyTime: now,
		ChangeTime: now,
	}, owner)

	assert.Equal(t, uint64(7), out.Ino)
	assert.Equal(t, uint32(syscall.S_IFREG|0o444), out.Mode)
	assert.Equal(t, uint64(4<<20+1), out.Size)
	assert.Equal(t, uint64(8193), out.Blocks)
	assert.Equal(t, uint32(pms.BlockSize), out.Blksize)
	assert.Equal(t, owner, out.Owner)
	assert.Equal(t, uint64(now.Unix()), out.Mtime)

	fillAttr(&out, &pms.Attributes{Type: pms.TypeDirectory, Mode: pms.DirMode, NLink: 2}, owner)
	assert.Equal(t, uint32(syscall.S_IFDIR|0o755), out.Mode)
	assert.Equal(t, uint32(2), out.Nlink)
}

func TestFillStatfs(t *testing.T) {
	var out fuse.StatfsOut
	fillStatfs(&out, &pms.FileSystemStats{
		Directories:     4,
		Files:           12,
		TotalBytes:      4097,
		BlockSize:       4096,
		MaxFilenameSize: 255,
	})
	assert.Equal(t, uint64(2), out.Blocks)
	assert.Equal(t, uint64(0), out.Bfree)
	assert.Equal(t, uint64(16), out.Files)
	assert.Equal(t, uint32(4096), out.Bsize)
	assert.Equal(t, uint32(255), out.NameLen)
}

func TestEncodeXattrNames(t *testing.T) {
	assert.Equal(t, []byte("user.filler\x00user.padder\x00"), encodeXattrNames([]string{"user.filler", "user.padder"}))
	assert.Empty(t, encodeXattrNames(nil))
}

func TestCopyOut(t *testing.T) {
	data := []byte("abc")

	n, errno := copyOut(nil, data)
	assert.Equal(t, uint32(3), n)
	assert.Equal(t, syscall.Errno(0), errno)

	n, errno = copyOut(make([]byte, 2), data)
	assert.Equal(t, uint32(3), n)
	assert.Equal(t, syscall.ERANGE, errno)

	dest := make([]byte, 8)
	n, errno = copyOut(dest, data)
	assert.Equal(t, uint32(3), n)
	assert.Equal(t, syscall.Errno(0), errno)
	assert.Equal(t, "abc", string(dest[:n]))
}
