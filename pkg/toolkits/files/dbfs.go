package files

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/databricks/databricks-sdk-go/service/files"

	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

const statusSuccess = "SUCCESS"

type pathInput struct {
	Path string `json:"path" jsonschema:"Absolute DBFS path"`
}

type readInput struct {
	Path   string `json:"path" jsonschema:"Absolute path of the file to read" validate:"required"`
	Offset int64  `json:"offset,omitempty" jsonschema:"Byte offset to start reading from" validate:"gte=0"`
	Length int64  `json:"length,omitempty" jsonschema:"Maximum number of bytes to read (default and maximum 1 MiB)" validate:"gte=0"`
}

type writeInput struct {
	Path          string `json:"path" jsonschema:"Absolute path of the file to write" validate:"required"`
	ContentBase64 string `json:"content_base64" jsonschema:"Base64 encoded content to write"`
	Overwrite     bool   `json:"overwrite,omitempty" jsonschema:"Overwrite the file if it already exists"`
}

type deleteInput struct {
	Path      string `json:"path" jsonschema:"Absolute path of the file or directory to delete" validate:"required"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"Delete a directory and its contents"`
}

func (t *Toolkit) list(ctx context.Context, in pathInput) (any, error) {
	path := in.Path
	if path == "" {
		path = "/"
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.ListFiles(ctx, path)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(entries, func(f files.FileInfo) string { return f.Path }, func(f files.FileInfo) toolkit.Row {
		return toolkit.Row{
			"path":              f.Path,
			"is_dir":            f.IsDir,
			"file_size":         f.FileSize,
			"modification_time": f.ModificationTime,
		}
	}), nil
}

func (t *Toolkit) read(ctx context.Context, in readInput) (any, error) {
	length := in.Length
	if length <= 0 || length > t.config.MaxReadBytes {
		length = t.config.MaxReadBytes
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("reading file", "path", in.Path, "offset", in.Offset, "length", length)
	resp, err := s.ReadFile(ctx, in.Path, in.Offset, length)
	if err != nil {
		return nil, err
	}

	return toolkit.Row{
		"path":           in.Path,
		"content_base64": resp.Data,
		"bytes_read":     resp.BytesRead,
	}, nil
}

func (t *Toolkit) write(ctx context.Context, in writeInput) (any, error) {
	decoded, err := base64.StdEncoding.DecodeString(in.ContentBase64)
	if err != nil {
		return nil, errcode.Invalid("content_base64", "is not valid base64: %v", err)
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("writing file", "path", in.Path, "overwrite", in.Overwrite, "bytes", len(decoded))
	if err := s.PutFile(ctx, in.Path, in.ContentBase64, in.Overwrite); err != nil {
		return nil, err
	}

	return toolkit.Row{
		"path":          in.Path,
		"status":        statusSuccess,
		"bytes_written": len(decoded),
	}, nil
}

func (t *Toolkit) delete(ctx context.Context, in deleteInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("deleting file", "path", in.Path, "recursive", in.Recursive)
	if err := s.DeleteFile(ctx, in.Path, in.Recursive); err != nil {
		return nil, err
	}
	return toolkit.Row{"path": in.Path, "status": statusSuccess}, nil
}

func (t *Toolkit) createDirectory(ctx context.Context, in pathInput) (any, error) {
	if in.Path == "" {
		return nil, errcode.Invalid("path", "is required")
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("creating directory", "path", in.Path)
	if err := s.MakeDirs(ctx, in.Path); err != nil {
		return nil, err
	}
	return toolkit.Row{"path": in.Path, "status": statusSuccess}, nil
}
