package sizelib

import (
	"context"
	"io"

	pfs "github.com/AnishMulay/sizefs/internal/file_service"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
)

// FileSystem is what the commands need from SizeFS, whether it runs in
// process or behind a server.
type FileSystem interface {
	Stat(ctx context.Context, path string) (*pms.Attributes, error)
	ReadDir(ctx context.Context, path string) ([]pms.DirEntry, error)
	ReadAt(ctx context.Context, path string, dest []byte, offset uint64) (int, error)
	SetXattr(ctx context.Context, path, name, value string) error
	GetXattr(ctx context.Context, path, name string) (string, error)
	ListXattr(ctx context.Context, path string) ([]string, error)
}

var (
	_ FileSystem = (*SizeFSClient)(nil)
	_ FileSystem = (*LocalClient)(nil)
)

// LocalClient serves FileSystem from an in-process file service.
type LocalClient struct {
	fs pfs.FileService
}

func NewLocalClient(fs pfs.FileService) *LocalClient {
	return &LocalClient{fs: fs}
}

func (c *LocalClient) Stat(ctx context.Context, path string) (*pms.Attributes, error) {
	return c.fs.Stat(ctx, path)
}

func (c *LocalClient) ReadDir(ctx context.Context, path string) ([]pms.DirEntry, error) {
	return c.fs.ReadDir(ctx, path)
}

func (c *LocalClient) ReadAt(ctx context.Context, path string, dest []byte, offset uint64) (int, error) {
	h, err := c.fs.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	n := c.fs.ReadHandle(h, dest, offset)
	if n < len(dest) {
		return n, io.EOF
	}
	return n, nil
}

func (c *LocalClient) SetXattr(ctx context.Context, path, name, value string) error {
	return c.fs.SetXattr(ctx, path, name, value)
}

func (c *LocalClient) GetXattr(ctx context.Context, path, name string) (string, error) {
	return c.fs.GetXattr(ctx, path, name)
}

func (c *LocalClient) ListXattr(ctx context.Context, path string) ([]string, error) {
	return c.fs.ListXattr(ctx, path)
}

// Reader streams length bytes of path starting at offset, reading size
// bytes at a time. A zero length reads to the end of the file.
type Reader struct {
	ctx    context.Context
	fsys   FileSystem
	path   string
	offset uint64
	remain uint64
	size   int
}

func NewReader(ctx context.Context, fsys FileSystem, path string, offset, length uint64, size int) (*Reader, error) {
	attrs, err := fsys.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if attrs.Type == pms.TypeDirectory {
		return nil, pms.ErrIsDir
	}

	var remain uint64
	if offset < attrs.Size {
		remain = attrs.Size - offset
	}
	if length > 0 && length < remain {
		remain = length
	}
	if size <= 0 {
		size = 64 << 10
	}
	return &Reader{ctx: ctx, fsys: fsys, path: path, offset: offset, remain: remain, size: size}, nil
}

// Remaining is how many bytes are left to read.
func (r *Reader) Remaining() uint64 {
	return r.remain
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.remain == 0 {
		return 0, io.EOF
	}
	if len(p) > r.size {
		p = p[:r.size]
	}
	if uint64(len(p)) > r.remain {
		p = p[:r.remain]
	}

	n, err := r.fsys.ReadAt(r.ctx, r.path, p, r.offset)
	r.offset += uint64(n)
	r.remain -= uint64(n)
	if err == io.EOF {
		// The file shrank under us; report what we got.
		r.remain = 0
		if n > 0 {
			err = nil
		}
	}
	return n, err
}
