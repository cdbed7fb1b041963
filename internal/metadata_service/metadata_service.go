package metadata_service

import (
	"context"

	"github.com/AnishMulay/sizefs/internal/content_service"
)

// MetadataService owns the directory tree and the attributes that describe
// how each file's content is generated. Directories live directly under the
// root; generated files live inside those directories and are named by their
// size.
type MetadataService interface {
	// --- Lifecycle ---
	Start() error
	Stop() error

	// --- Lookup ---

	// Lookup resolves a child name within a directory to an InodeID. A
	// missing child whose name is a valid size is created on the spot.
	Lookup(ctx context.Context, parentInodeID string, name string) (string, error)
	LookupPath(ctx context.Context, path string) (string, error)

	GetAttributes(ctx context.Context, inodeID string) (*Attributes, error)

	// GetInode returns a copy of the inode, including a file's descriptor.
	GetInode(ctx context.Context, inodeID string) (*Inode, error)

	ReadDir(ctx context.Context, inodeID string) ([]DirEntry, error)

	// --- Tree changes ---

	// Create adds a file to a directory. The name is parsed as a size and
	// the directory's attributes are copied into the file.
	Create(ctx context.Context, parentInodeID string, name string) (*Inode, error)
	Mkdir(ctx context.Context, parentInodeID string, name string) (*Inode, error)
	Remove(ctx context.Context, parentInodeID string, name string) error
	Rmdir(ctx context.Context, parentInodeID string, name string) error
	Rename(ctx context.Context, srcParentID, srcName, dstParentID, dstName string) error

	// --- Extended attributes ---

	SetXattr(ctx context.Context, inodeID string, name, value string) error
	GetXattr(ctx context.Context, inodeID string, name string) (string, error)
	ListXattr(ctx context.Context, inodeID string) ([]string, error)
	RemoveXattr(ctx context.Context, inodeID string, name string) error

	// ResolvePatterns returns the effective pattern set of path.
	ResolvePatterns(ctx context.Context, path string) (content_service.PatternSet, error)

	GetFsStat(ctx context.Context) (*FileSystemStats, error)
}
