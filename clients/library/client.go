package sizelib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	pathpkg "path"
	"strings"

	"github.com/AnishMulay/sizefs/internal/communication"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	ps "github.com/AnishMulay/sizefs/internal/server"
)

var (
	ErrNoClient      = errors.New("sizefs client is not configured")
	ErrInvalidPath   = errors.New("invalid path")
	ErrShortResponse = errors.New("unexpected response body")
)

func NewSizeFSClient(serverAddr string, comm communication.Communicator) *SizeFSClient {
	return &SizeFSClient{
		ServerAddr: serverAddr,
		Comm:       comm,
		From:       "sizelib",
	}
}

func (c *SizeFSClient) LookupPath(ctx context.Context, path string) (string, error) {
	var out ps.LookupPathResponse
	if err := c.call(ctx, ps.MsgLookupPath, path, ps.LookupPathRequest{Path: path}, &out); err != nil {
		return "", err
	}
	return out.InodeID, nil
}

// Stat of a missing but valid size name inside a directory creates it.
func (c *SizeFSClient) Stat(ctx context.Context, path string) (*pms.Attributes, error) {
	var out pms.Attributes
	if err := c.call(ctx, ps.MsgGetAttr, path, ps.GetAttrRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create returns the size the new file was given by its name.
func (c *SizeFSClient) Create(ctx context.Context, path string) (uint64, error) {
	var out ps.CreateResponse
	if err := c.call(ctx, ps.MsgCreate, path, ps.CreateRequest{Path: path}, &out); err != nil {
		return 0, err
	}
	return out.Size, nil
}

func (c *SizeFSClient) Mkdir(ctx context.Context, path string) (*pms.Attributes, error) {
	var out pms.Attributes
	if err := c.call(ctx, ps.MsgMkdir, path, ps.MkdirRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SizeFSClient) ReadDir(ctx context.Context, path string) ([]pms.DirEntry, error) {
	var out []pms.DirEntry
	if err := c.call(ctx, ps.MsgReadDir, path, ps.ReadDirRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAt fills dest from offset, splitting the read into messages of at
// most ps.MaxReadLength bytes. Like io.ReaderAt it returns io.EOF when
// fewer than len(dest) bytes remain in the file.
func (c *SizeFSClient) ReadAt(ctx context.Context, path string, dest []byte, offset uint64) (int, error) {
	read := 0
	for read < len(dest) {
		chunk := min(len(dest)-read, ps.MaxReadLength)
		body, err := c.raw(ctx, ps.MsgRead, path, ps.ReadRequest{
			Path:   path,
			Offset: offset + uint64(read),
			Length: chunk,
		})
		if err != nil {
			return read, err
		}
		if len(body) > chunk {
			return read, fmt.Errorf("read %q: %w: %d bytes for %d", path, ErrShortResponse, len(body), chunk)
		}
		read += copy(dest[read:], body)
		if len(body) < chunk {
			return read, io.EOF
		}
	}
	return read, nil
}

func (c *SizeFSClient) Remove(ctx context.Context, path string) error {
	return c.call(ctx, ps.MsgRemove, path, ps.RemoveRequest{Path: path}, nil)
}

func (c *SizeFSClient) Rmdir(ctx context.Context, path string) error {
	return c.call(ctx, ps.MsgRmdir, path, ps.RmdirRequest{Path: path}, nil)
}

func (c *SizeFSClient) Rename(ctx context.Context, srcPath, dstPath string) error {
	return c.call(ctx, ps.MsgRename, srcPath, ps.RenameRequest{SrcPath: srcPath, DstPath: dstPath}, nil)
}

func (c *SizeFSClient) SetXattr(ctx context.Context, path, name, value string) error {
	return c.call(ctx, ps.MsgSetXattr, path, ps.SetXattrRequest{Path: path, Name: name, Value: value}, nil)
}

func (c *SizeFSClient) GetXattr(ctx context.Context, path, name string) (string, error) {
	body, err := c.raw(ctx, ps.MsgGetXattr, path, ps.GetXattrRequest{Path: path, Name: name})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *SizeFSClient) ListXattr(ctx context.Context, path string) ([]string, error) {
	var out []string
	if err := c.call(ctx, ps.MsgListXattr, path, ps.ListXattrRequest{Path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SizeFSClient) RemoveXattr(ctx context.Context, path, name string) error {
	return c.call(ctx, ps.MsgRemoveXattr, path, ps.RemoveXattrRequest{Path: path, Name: name}, nil)
}

func (c *SizeFSClient) FsStat(ctx context.Context) (*pms.FileSystemStats, error) {
	var out pms.FileSystemStats
	if err := c.call(ctx, ps.MsgFsStat, "/", ps.FsStatRequest{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends one message and decodes a JSON body into out when out is
// not nil.
func (c *SizeFSClient) call(ctx context.Context, msgType, path string, payload, out any) error {
	body, err := c.raw(ctx, msgType, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response for %q: %w", msgType, path, err)
	}
	return nil
}

func (c *SizeFSClient) raw(ctx context.Context, msgType, path string, payload any) ([]byte, error) {
	if c == nil || c.Comm == nil || c.ServerAddr == "" {
		return nil, ErrNoClient
	}
	if _, err := normalizePath(path); err != nil {
		return nil, err
	}

	resp, err := c.Comm.Send(ctx, c.ServerAddr, communication.Message{
		From:    c.From,
		Type:    msgType,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("%s %q failed: %w", msgType, path, err)
	}
	if err := ps.ErrorFromResponse(resp); err != nil {
		return nil, fmt.Errorf("%s %q: %w", msgType, path, err)
	}
	return resp.Body, nil
}

func normalizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	cleanPath := pathpkg.Clean(trimmed)
	if !strings.HasPrefix(cleanPath, "/") {
		return "", fmt.Errorf("%w %q: expected absolute path", ErrInvalidPath, path)
	}

	return cleanPath, nil
}
