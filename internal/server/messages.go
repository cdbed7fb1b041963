package server

// Message Type Constants
const (
	// Lookup
	MsgLookupPath = "lookup_path"
	MsgGetAttr    = "getattr"
	MsgReadDir    = "readdir"
	MsgFsStat     = "fsstat"

	// Content
	MsgCreate = "create"
	MsgRead   = "read"

	// Tree
	MsgMkdir  = "mkdir"
	MsgRemove = "remove"
	MsgRmdir  = "rmdir"
	MsgRename = "rename"

	// Extended attributes
	MsgSetXattr    = "setxattr"
	MsgGetXattr    = "getxattr"
	MsgListXattr   = "listxattr"
	MsgRemoveXattr = "removexattr"
)

// MaxReadLength bounds a single read message; clients split larger reads.
const MaxReadLength = 4 << 20

// --- Payload Structs ---

type LookupPathRequest struct {
	Path string `json:"path"`
}

type LookupPathResponse struct {
	InodeID string `json:"inodeId"`
}

type GetAttrRequest struct {
	Path string `json:"path"`
}

type ReadDirRequest struct {
	Path string `json:"path"`
}

type FsStatRequest struct{}

type CreateRequest struct {
	Path string `json:"path"`
}

type CreateResponse struct {
	Path string `json:"path"`
	Size uint64 `json:"size"`
}

// ReadRequest answers with the raw bytes as the response body.
type ReadRequest struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
	Length int    `json:"length"`
}

type MkdirRequest struct {
	Path string `json:"path"`
}

type RemoveRequest struct {
	Path string `json:"path"`
}

type RmdirRequest struct {
	Path string `json:"path"`
}

type RenameRequest struct {
	SrcPath string `json:"srcPath"`
	DstPath string `json:"dstPath"`
}

type SetXattrRequest struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GetXattrRequest answers with the raw value as the response body.
type GetXattrRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type ListXattrRequest struct {
	Path string `json:"path"`
}

type RemoveXattrRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}
