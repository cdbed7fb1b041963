package simple

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	fs "github.com/AnishMulay/sizefs/internal/file_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	"github.com/AnishMulay/sizefs/internal/metrics"
)

// forgetter is implemented by content services that cache per-descriptor
// state.
type forgetter interface {
	Forget(desc *cs.FileDescriptor)
}

type SimpleFileService struct {
	ms      pms.MetadataService
	cs      cs.ContentService
	ls      log_service.LogService
	metrics *metrics.Metrics
}

func NewSimpleFileService(
	ms pms.MetadataService,
	content cs.ContentService,
	ls log_service.LogService,
	m *metrics.Metrics,
) *SimpleFileService {
	if ls == nil {
		ls = log_service.Nop{}
	}
	return &SimpleFileService{
		ms:      ms,
		cs:      content,
		ls:      ls,
		metrics: m,
	}
}

// --- Lifecycle ---

func (s *SimpleFileService) Start() error {
	s.ls.Info(log_service.LogEvent{Message: "Starting Simple File Service"})
	return s.ms.Start()
}

func (s *SimpleFileService) Stop() error {
	s.ls.Info(log_service.LogEvent{Message: "Stopping Simple File Service"})
	return s.ms.Stop()
}

// --- Helpers ---

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// splitPath returns the parent directory and leaf name of p. The root has no
// leaf.
func splitPath(p string) (string, string, error) {
	p = cleanPath(p)
	if p == "/" {
		return "", "", fmt.Errorf("%w: the root has no name", pms.ErrPermission)
	}
	dir, name := path.Split(p)
	return strings.TrimSuffix(dir, "/"), name, nil
}

func (s *SimpleFileService) parentOf(ctx context.Context, p string) (string, string, error) {
	dir, name, err := splitPath(p)
	if err != nil {
		return "", "", err
	}
	parentID, err := s.ms.LookupPath(ctx, dir)
	if err != nil {
		return "", "", err
	}
	return parentID, name, nil
}

func (s *SimpleFileService) forget(desc *cs.FileDescriptor) {
	if f, ok := s.cs.(forgetter); ok && desc != nil {
		f.Forget(desc)
	}
}

// --- Lookup ---

func (s *SimpleFileService) LookupPath(ctx context.Context, p string) (string, error) {
	return s.ms.LookupPath(ctx, cleanPath(p))
}

func (s *SimpleFileService) Stat(ctx context.Context, p string) (attrs *pms.Attributes, err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("stat", start, err) }(time.Now())

	id, err := s.ms.LookupPath(ctx, cleanPath(p))
	if err != nil {
		return nil, err
	}
	return s.ms.GetAttributes(ctx, id)
}

func (s *SimpleFileService) ReadDir(ctx context.Context, p string) (entries []pms.DirEntry, err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("readdir", start, err) }(time.Now())

	id, err := s.ms.LookupPath(ctx, cleanPath(p))
	if err != nil {
		return nil, err
	}
	return s.ms.ReadDir(ctx, id)
}

func (s *SimpleFileService) ResolvePatterns(ctx context.Context, p string) (cs.PatternSet, error) {
	return s.ms.ResolvePatterns(ctx, cleanPath(p))
}

func (s *SimpleFileService) GetFsStat(ctx context.Context) (*pms.FileSystemStats, error) {
	return s.ms.GetFsStat(ctx)
}

// --- Content ---

func (s *SimpleFileService) Create(ctx context.Context, p string) (desc *cs.FileDescriptor, err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("create", start, err) }(time.Now())

	parentID, name, err := s.parentOf(ctx, p)
	if err != nil {
		return nil, err
	}
	inode, err := s.ms.Create(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	s.metrics.IncFilesCreated()
	return inode.Descriptor, nil
}

func (s *SimpleFileService) Open(ctx context.Context, p string) (h *fs.Handle, err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("open", start, err) }(time.Now())

	p = cleanPath(p)
	id, err := s.ms.LookupPath(ctx, p)
	if err != nil {
		return nil, err
	}
	inode, err := s.ms.GetInode(ctx, id)
	if err != nil {
		return nil, err
	}
	if inode.IsDir() {
		return nil, pms.ErrIsDir
	}
	return &fs.Handle{InodeID: id, Path: p, Descriptor: inode.Descriptor}, nil
}

func (s *SimpleFileService) Read(ctx context.Context, p string, offset uint64, length int) (data []byte, err error) {
	s.ls.Debug(log_service.LogEvent{
		Message:  "Read Request",
		Metadata: map[string]any{"path": p, "offset": offset, "length": length},
	})
	defer func(start time.Time) { s.metrics.ObserveOp("read", start, err) }(time.Now())

	h, err := s.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	data = s.cs.Read(h.Descriptor, offset, length)
	s.metrics.AddBytesRead(len(data))
	return data, nil
}

func (s *SimpleFileService) ReadHandle(h *fs.Handle, dest []byte, offset uint64) int {
	n := s.cs.ReadInto(h.Descriptor, dest, offset)
	s.metrics.AddBytesRead(n)
	return n
}

// --- Tree ---

func (s *SimpleFileService) Mkdir(ctx context.Context, p string) (attrs *pms.Attributes, err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("mkdir", start, err) }(time.Now())

	parentID, name, err := s.parentOf(ctx, p)
	if err != nil {
		return nil, err
	}
	inode, err := s.ms.Mkdir(ctx, parentID, name)
	if err != nil {
		return nil, err
	}
	return s.ms.GetAttributes(ctx, inode.InodeID)
}

func (s *SimpleFileService) Remove(ctx context.Context, p string) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("remove", start, err) }(time.Now())

	parentID, name, err := s.parentOf(ctx, p)
	if err != nil {
		return err
	}

	// Lookup would create a missing size name, so go through the parent
	var desc *cs.FileDescriptor
	if parent, getErr := s.ms.GetInode(ctx, parentID); getErr == nil {
		if child, getErr := s.ms.GetInode(ctx, parent.Children[name]); getErr == nil {
			desc = child.Descriptor
		}
	}
	if err := s.ms.Remove(ctx, parentID, name); err != nil {
		return err
	}
	s.forget(desc)
	return nil
}

func (s *SimpleFileService) Rmdir(ctx context.Context, p string) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("rmdir", start, err) }(time.Now())

	parentID, name, err := s.parentOf(ctx, p)
	if err != nil {
		return err
	}
	return s.ms.Rmdir(ctx, parentID, name)
}

func (s *SimpleFileService) Rename(ctx context.Context, srcPath, dstPath string) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("rename", start, err) }(time.Now())

	srcParentID, srcName, err := s.parentOf(ctx, srcPath)
	if err != nil {
		return err
	}
	dstParentID, dstName, err := s.parentOf(ctx, dstPath)
	if err != nil {
		return err
	}
	return s.ms.Rename(ctx, srcParentID, srcName, dstParentID, dstName)
}

// --- Extended attributes ---

func (s *SimpleFileService) SetXattr(ctx context.Context, p string, name, value string) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("setxattr", start, err) }(time.Now())

	id, err := s.ms.LookupPath(ctx, cleanPath(p))
	if err != nil {
		return err
	}
	before, err := s.ms.GetInode(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ms.SetXattr(ctx, id, name, value); err != nil {
		return err
	}
	s.forget(before.Descriptor)
	return nil
}

func (s *SimpleFileService) GetXattr(ctx context.Context, p string, name string) (string, error) {
	id, err := s.ms.LookupPath(ctx, cleanPath(p))
	if err != nil {
		return "", err
	}
	return s.ms.GetXattr(ctx, id, name)
}

func (s *SimpleFileService) ListXattr(ctx context.Context, p string) ([]string, error) {
	id, err := s.ms.LookupPath(ctx, cleanPath(p))
	if err != nil {
		return nil, err
	}
	return s.ms.ListXattr(ctx, id)
}

func (s *SimpleFileService) RemoveXattr(ctx context.Context, p string, name string) (err error) {
	defer func(start time.Time) { s.metrics.ObserveOp("removexattr", start, err) }(time.Now())

	id, err := s.ms.LookupPath(ctx, cleanPath(p))
	if err != nil {
		return err
	}
	before, err := s.ms.GetInode(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ms.RemoveXattr(ctx, id, name); err != nil {
		return err
	}
	s.forget(before.Descriptor)
	return nil
}

var _ fs.FileService = (*SimpleFileService)(nil)
