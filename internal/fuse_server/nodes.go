package fuse_server

import (
	"context"
	"path"
	"syscall"

	pfs "github.com/AnishMulay/sizefs/internal/file_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// sizeNode is both directories and files; the FileService decides which
// operations are legal on which.
type sizeNode struct {
	gofuse.Inode
	fsys *FuseServer
}

var _ gofuse.InodeEmbedder = (*sizeNode)(nil)
var _ gofuse.NodeLookuper = (*sizeNode)(nil)
var _ gofuse.NodeGetattrer = (*sizeNode)(nil)
var _ gofuse.NodeSetattrer = (*sizeNode)(nil)
var _ gofuse.NodeReaddirer = (*sizeNode)(nil)
var _ gofuse.NodeMkdirer = (*sizeNode)(nil)
var _ gofuse.NodeCreater = (*sizeNode)(nil)
var _ gofuse.NodeUnlinker = (*sizeNode)(nil)
var _ gofuse.NodeRmdirer = (*sizeNode)(nil)
var _ gofuse.NodeRenamer = (*sizeNode)(nil)
var _ gofuse.NodeOpener = (*sizeNode)(nil)
var _ gofuse.NodeReader = (*sizeNode)(nil)
var _ gofuse.NodeWriter = (*sizeNode)(nil)
var _ gofuse.NodeGetxattrer = (*sizeNode)(nil)
var _ gofuse.NodeSetxattrer = (*sizeNode)(nil)
var _ gofuse.NodeListxattrer = (*sizeNode)(nil)
var _ gofuse.NodeRemovexattrer = (*sizeNode)(nil)
var _ gofuse.NodeStatfser = (*sizeNode)(nil)

// fileHandle pins the descriptor seen at open.
type fileHandle struct {
	h *pfs.Handle
}

func nodePath(n *gofuse.Inode) string {
	return "/" + n.Path(nil)
}

func (n *sizeNode) path() string {
	return nodePath(&n.Inode)
}

func (n *sizeNode) childPath(name string) string {
	return path.Join(n.path(), name)
}

func (n *sizeNode) newChild(ctx context.Context, attrs *pms.Attributes) *gofuse.Inode {
	return n.NewInode(ctx, &sizeNode{fsys: n.fsys}, gofuse.StableAttr{
		Mode: modeType(attrs.Type),
		Ino:  attrs.Ino,
	})
}

func (n *sizeNode) fail(op, p string, err error) syscall.Errno {
	errno := toErrno(err)
	if errno == syscall.EIO {
		n.fsys.ls.Error(log_service.LogEvent{
			Message:  "FUSE operation failed",
			Metadata: map[string]any{"op": op, "path": p, "error": err.Error()},
		})
	}
	return errno
}

func (n *sizeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	p := n.childPath(name)
	attrs, err := n.fsys.fs.Stat(ctx, p)
	if err != nil {
		return nil, n.fail("lookup", p, err)
	}
	fillAttr(&out.Attr, attrs, n.fsys.owner)
	return n.newChild(ctx, attrs), 0
}

func (n *sizeNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attrs, err := n.fsys.fs.Stat(ctx, n.path())
	if err != nil {
		return n.fail("getattr", n.path(), err)
	}
	fillAttr(&out.Attr, attrs, n.fsys.owner)
	return 0
}

// Setattr refuses anything that would change content or ownership.
// Timestamp updates are accepted and ignored so touch works.
func (n *sizeNode) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if _, ok := in.GetSize(); ok {
		return syscall.EPERM
	}
	if _, ok := in.GetMode(); ok {
		return syscall.EPERM
	}
	if _, ok := in.GetUID(); ok {
		return syscall.EPERM
	}
	if _, ok := in.GetGID(); ok {
		return syscall.EPERM
	}
	return n.Getattr(ctx, f, out)
}

func (n *sizeNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.fsys.fs.ReadDir(ctx, n.path())
	if err != nil {
		return nil, n.fail("readdir", n.path(), err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fuse.DirEntry{Name: e.Name, Ino: e.Ino, Mode: modeType(e.Type)})
	}
	return gofuse.NewListDirStream(out), 0
}

func (n *sizeNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	p := n.childPath(name)
	attrs, err := n.fsys.fs.Mkdir(ctx, p)
	if err != nil {
		return nil, n.fail("mkdir", p, err)
	}
	fillAttr(&out.Attr, attrs, n.fsys.owner)
	return n.newChild(ctx, attrs), 0
}

func (n *sizeNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	p := n.childPath(name)
	if _, err := n.fsys.fs.Create(ctx, p); err != nil {
		return nil, nil, 0, n.fail("create", p, err)
	}
	h, err := n.fsys.fs.Open(ctx, p)
	if err != nil {
		return nil, nil, 0, n.fail("create", p, err)
	}
	attrs, err := n.fsys.fs.Stat(ctx, p)
	if err != nil {
		return nil, nil, 0, n.fail("create", p, err)
	}
	fillAttr(&out.Attr, attrs, n.fsys.owner)
	return n.newChild(ctx, attrs), &fileHandle{h: h}, 0, 0
}

func (n *sizeNode) Unlink(ctx context.Context, name string) syscall.Errno {
	p := n.childPath(name)
	if err := n.fsys.fs.Remove(ctx, p); err != nil {
		return n.fail("unlink", p, err)
	}
	return 0
}

func (n *sizeNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	p := n.childPath(name)
	if err := n.fsys.fs.Rmdir(ctx, p); err != nil {
		return n.fail("rmdir", p, err)
	}
	return 0
}

func (n *sizeNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	if flags != 0 {
		return syscall.EINVAL
	}
	src := n.childPath(name)
	dst := path.Join(nodePath(newParent.EmbeddedInode()), newName)
	if err := n.fsys.fs.Rename(ctx, src, dst); err != nil {
		return n.fail("rename", src, err)
	}
	return 0
}

func (n *sizeNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EPERM
	}
	h, err := n.fsys.fs.Open(ctx, n.path())
	if err != nil {
		return nil, 0, n.fail("open", n.path(), err)
	}
	return &fileHandle{h: h}, 0, 0
}

func (n *sizeNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	fh, ok := f.(*fileHandle)
	if !ok {
		h, err := n.fsys.fs.Open(ctx, n.path())
		if err != nil {
			return nil, n.fail("read", n.path(), err)
		}
		fh = &fileHandle{h: h}
	}
	if off < 0 {
		return nil, syscall.EINVAL
	}
	read := n.fsys.fs.ReadHandle(fh.h, dest, uint64(off))
	return fuse.ReadResultData(dest[:read]), 0
}

func (n *sizeNode) Write(ctx context.Context, f gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	return 0, syscall.EPERM
}

func (n *sizeNode) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	value, err := n.fsys.fs.GetXattr(ctx, n.path(), attr)
	if err != nil {
		return 0, n.fail("getxattr", n.path(), err)
	}
	return copyOut(dest, []byte(value))
}

func (n *sizeNode) Setxattr(ctx context.Context, attr string, data []byte, flags uint32) syscall.Errno {
	if err := n.fsys.fs.SetXattr(ctx, n.path(), attr, string(data)); err != nil {
		return n.fail("setxattr", n.path(), err)
	}
	return 0
}

func (n *sizeNode) Listxattr(ctx context.Context, dest []byte) (uint32, syscall.Errno) {
	names, err := n.fsys.fs.ListXattr(ctx, n.path())
	if err != nil {
		return 0, n.fail("listxattr", n.path(), err)
	}
	return copyOut(dest, encodeXattrNames(names))
}

func (n *sizeNode) Removexattr(ctx context.Context, attr string) syscall.Errno {
	if err := n.fsys.fs.RemoveXattr(ctx, n.path(), attr); err != nil {
		return n.fail("removexattr", n.path(), err)
	}
	return 0
}

func (n *sizeNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	stats, err := n.fsys.fs.GetFsStat(ctx)
	if err != nil {
		return n.fail("statfs", n.path(), err)
	}
	fillStatfs(out, stats)
	return 0
}
