package metadata_service

import (
	"time"

	"github.com/AnishMulay/sizefs/internal/content_service"
)

type InodeType int

const (
	TypeFile InodeType = iota
	TypeDirectory
)

func (t InodeType) String() string {
	if t == TypeDirectory {
		return "directory"
	}
	return "file"
}

const (
	RootInodeID = "00000000-0000-0000-0000-000000000001"
	RootIno     = 1

	DirMode  = 0755
	FileMode = 0444

	MaxFilenameSize = 255
	BlockSize       = 4096
)

// Inode is one directory or generated file.
type Inode struct {
	InodeID  string
	Ino      uint64
	Type     InodeType
	Name     string
	ParentID string
	Mode     uint32

	AccessTime time.Time
	ModifyTime time.Time
	ChangeTime time.Time

	Size   uint64
	Xattrs map[string]string

	// For directories: name -> InodeID
	Children map[string]string `json:"children,omitempty"`

	// For files: the content snapshot taken at creation
	Descriptor *content_service.FileDescriptor `json:"-"`
}

func (i *Inode) IsDir() bool {
	return i.Type == TypeDirectory
}

type Attributes struct {
	InodeID    string
	Ino        uint64
	Type       InodeType
	Mode       uint32
	Size       uint64
	NLink      uint32
	AccessTime time.Time
	ModifyTime time.Time
	ChangeTime time.Time
}

type DirEntry struct {
	Name    string
	InodeID string
	Ino     uint64
	Type    InodeType
}

type FileSystemStats struct {
	Directories uint64
	Files       uint64
	// Sum of file sizes, saturating at the uint64 maximum.
	TotalBytes      uint64
	BlockSize       uint32
	MaxFilenameSize uint32
}

// DirectoryConfig describes a directory created at startup.
type DirectoryConfig struct {
	Name       string
	Attributes map[string]string
	Files      []string
}
