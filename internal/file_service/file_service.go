package file_service

import (
	"context"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
)

// Handle pins the descriptor a file had when it was opened.
type Handle struct {
	InodeID    string
	Path       string
	Descriptor *cs.FileDescriptor
}

func (h *Handle) Size() uint64 {
	return h.Descriptor.SizeOf()
}

// FileService is the path-based surface used by the servers and commands.
type FileService interface {
	// --- Lifecycle ---
	Start() error
	Stop() error

	// --- Lookup ---
	LookupPath(ctx context.Context, path string) (string, error)
	Stat(ctx context.Context, path string) (*pms.Attributes, error)
	ReadDir(ctx context.Context, path string) ([]pms.DirEntry, error)
	ResolvePatterns(ctx context.Context, path string) (cs.PatternSet, error)
	GetFsStat(ctx context.Context) (*pms.FileSystemStats, error)

	// --- Content ---

	// Create makes the file at path; its leaf name is the size.
	Create(ctx context.Context, path string) (*cs.FileDescriptor, error)
	Open(ctx context.Context, path string) (*Handle, error)
	// Read returns at most length bytes; reads past the end are clamped.
	Read(ctx context.Context, path string, offset uint64, length int) ([]byte, error)
	ReadHandle(h *Handle, dest []byte, offset uint64) int

	// --- Tree ---
	Mkdir(ctx context.Context, path string) (*pms.Attributes, error)
	Remove(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error
	Rename(ctx context.Context, srcPath, dstPath string) error

	// --- Extended attributes ---
	SetXattr(ctx context.Context, path string, name, value string) error
	GetXattr(ctx context.Context, path string, name string) (string, error)
	ListXattr(ctx context.Context, path string) ([]string, error)
	RemoveXattr(ctx context.Context, path string, name string) error
}
