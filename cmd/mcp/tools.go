package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	sizelib "github.com/AnishMulay/sizefs/clients/library"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxToolRead bounds read_range so a single tool result stays small.
const maxToolRead = 64 << 10

type ToolRegistry struct {
	FS sizelib.FileSystem
}

func addTools(s *server.MCPServer, registry *ToolRegistry) {
	listDirectoryTool := mcp.NewTool("list_directory",
		mcp.WithDescription("List a SizeFS directory"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute directory path, e.g. /zeros"),
		),
	)
	s.AddTool(listDirectoryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListDirectory(ctx, request, registry)
	})

	statFileTool := mcp.NewTool("stat_file",
		mcp.WithDescription("Show the attributes of a file or directory. Stat of a missing size name inside a directory creates it."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path, e.g. /ones/4M"),
		),
	)
	s.AddTool(statFileTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStatFile(ctx, request, registry)
	})

	readRangeTool := mcp.NewTool("read_range",
		mcp.WithDescription("Read generated content from a file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute file path"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Byte offset, default 0"),
		),
		mcp.WithNumber("length",
			mcp.Description(fmt.Sprintf("Bytes to read, default and maximum %d", maxToolRead)),
		),
		mcp.WithString("encoding",
			mcp.Description("text or base64, default text"),
			mcp.Enum("text", "base64"),
		),
	)
	s.AddTool(readRangeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleReadRange(ctx, request, registry)
	})

	setAttributeTool := mcp.NewTool("set_attribute",
		mcp.WithDescription("Set a content attribute (filler, padder, prefix, suffix, max_random) on a directory or file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Attribute name, with or without the user. prefix"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Pattern, or a number for max_random"),
		),
	)
	s.AddTool(setAttributeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSetAttribute(ctx, request, registry)
	})
}

func handleListDirectory(ctx context.Context, request mcp.CallToolRequest, registry *ToolRegistry) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries, err := registry.FS.ReadDir(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list %s: %v", path, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", path)
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.Type)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleStatFile(ctx context.Context, request mcp.CallToolRequest, registry *ToolRegistry) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	attrs, err := registry.FS.Stat(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to stat %s: %v", path, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\ntype: %s\nsize: %d\nmode: %#o\ninode: %d\n", path, attrs.Type, attrs.Size, attrs.Mode, attrs.Ino)
	names, err := registry.FS.ListXattr(ctx, path)
	if err == nil {
		for _, name := range names {
			value, err := registry.FS.GetXattr(ctx, path, name)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleReadRange(ctx context.Context, request mcp.CallToolRequest, registry *ToolRegistry) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset := request.GetFloat("offset", 0)
	length := request.GetFloat("length", maxToolRead)
	encoding := request.GetString("encoding", "text")

	if offset < 0 || length < 0 {
		return mcp.NewToolResultError("offset and length must not be negative"), nil
	}
	if length > maxToolRead {
		return mcp.NewToolResultError(fmt.Sprintf("length must be at most %d", maxToolRead)), nil
	}

	buf := make([]byte, int(length))
	n, err := registry.FS.ReadAt(ctx, path, buf, uint64(offset))
	if err != nil && !errors.Is(err, io.EOF) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read %s: %v", path, err)), nil
	}
	data := buf[:n]

	switch encoding {
	case "base64":
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(data)), nil
	case "text":
		if !utf8.Valid(data) {
			return mcp.NewToolResultError("content is not valid UTF-8; use encoding base64"), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown encoding %q", encoding)), nil
	}
}

func handleSetAttribute(ctx context.Context, request mcp.CallToolRequest, registry *ToolRegistry) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := registry.FS.SetXattr(ctx, path, name, value); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to set %s on %s: %v", name, path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Set %s=%s on %s", name, value, path)), nil
}
