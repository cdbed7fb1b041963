package fuse_server

import (
	"errors"
	"fmt"
	"os"
	"time"

	pfs "github.com/AnishMulay/sizefs/internal/file_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	ps "github.com/AnishMulay/sizefs/internal/server"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

var ErrMountpointRequired = errors.New("mountpoint is required")

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is created if it does not exist.
	Mountpoint string

	// AllowOther requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug logs every FUSE request from go-fuse itself.
	Debug bool

	// AttrTimeout is how long the kernel caches entries and attributes.
	// Zero disables caching so xattr changes show up at once.
	AttrTimeout time.Duration
}

// FuseServer mounts a FileService as a filesystem.
type FuseServer struct {
	opts   Options
	fs     pfs.FileService
	ls     log_service.LogService
	owner  fuse.Owner
	server *fuse.Server
}

var _ ps.Server = (*FuseServer)(nil)

func NewFuseServer(opts Options, fs pfs.FileService, ls log_service.LogService) *FuseServer {
	if ls == nil {
		ls = log_service.Nop{}
	}
	return &FuseServer{
		opts:  opts,
		fs:    fs,
		ls:    ls,
		owner: fuse.Owner{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())},
	}
}

func (s *FuseServer) Start() error {
	if s.opts.Mountpoint == "" {
		return ErrMountpointRequired
	}
	if err := os.MkdirAll(s.opts.Mountpoint, 0o755); err != nil {
		return fmt.Errorf("creating mountpoint %s: %w", s.opts.Mountpoint, err)
	}

	if err := s.fs.Start(); err != nil {
		return err
	}

	timeout := s.opts.AttrTimeout
	negative := time.Duration(0)
	root := &sizeNode{fsys: s}

	server, err := gofuse.Mount(s.opts.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &timeout,
		AttrTimeout:     &timeout,
		NegativeTimeout: &negative,
		MountOptions: fuse.MountOptions{
			FsName:     "sizefs",
			Name:       "sizefs",
			AllowOther: s.opts.AllowOther,
			Debug:      s.opts.Debug,
		},
	})
	if err != nil {
		_ = s.fs.Stop()
		s.ls.Error(log_service.LogEvent{
			Message:  "Failed to mount FUSE filesystem",
			Metadata: map[string]any{"mountpoint": s.opts.Mountpoint, "error": err.Error()},
		})
		return fmt.Errorf("mounting FUSE filesystem at %s: %w", s.opts.Mountpoint, err)
	}
	s.server = server

	s.ls.Info(log_service.LogEvent{
		Message:  "SizeFS mounted",
		Metadata: map[string]any{"mountpoint": s.opts.Mountpoint},
	})
	return nil
}

func (s *FuseServer) Stop() error {
	if s.server != nil {
		if err := s.server.Unmount(); err != nil {
			s.ls.Error(log_service.LogEvent{
				Message:  "Failed to unmount",
				Metadata: map[string]any{"mountpoint": s.opts.Mountpoint, "error": err.Error()},
			})
			return err
		}
		s.server = nil
		s.ls.Info(log_service.LogEvent{
			Message:  "SizeFS unmounted",
			Metadata: map[string]any{"mountpoint": s.opts.Mountpoint},
		})
	}
	return s.fs.Stop()
}

// Wait blocks until the filesystem is unmounted, for example by fusermount -u.
func (s *FuseServer) Wait() {
	if s.server != nil {
		s.server.Wait()
	}
}
