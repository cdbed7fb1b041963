package metadata_service

// OpType identifies the intent of a tree mutation.
type OpType int

const (
	OpCreate OpType = iota // Covers both File and Dir creation
	OpRemove               // Covers Unlink and Rmdir
	OpRename
	OpSetXattr
	OpRemoveXattr
)

func (t OpType) String() string {
	switch t {
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpSetXattr:
		return "setxattr"
	case OpRemoveXattr:
		return "removexattr"
	default:
		return "unknown"
	}
}

// MetadataOperation describes one mutation of the tree. Every mutation goes
// through a single apply step so checks and changes happen under one lock.
type MetadataOperation struct {
	Type OpType `json:"type"`

	// --- Target Identity ---
	InodeID  string `json:"inodeId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name,omitempty"`

	// --- For Create/Mkdir ---
	FileType InodeType         `json:"fileType,omitempty"`
	Size     uint64            `json:"size,omitempty"`
	Xattrs   map[string]string `json:"xattrs,omitempty"`

	// --- For Rename ---
	DstParentID string `json:"dstParentId,omitempty"`
	DstName     string `json:"dstName,omitempty"`

	// --- For SetXattr/RemoveXattr ---
	XattrName  string `json:"xattrName,omitempty"`
	XattrValue string `json:"xattrValue,omitempty"`

	// --- Common ---
	OpID      string `json:"opId"`
	Timestamp int64  `json:"timestamp"`
}
