package workspace

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/databricks/databricks-sdk-go/service/workspace"

	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type pathInput struct {
	Path string `json:"path"`
}

type repoInput struct {
	RepoID int64 `json:"repo_id" validate:"required"`
}

func (t *Toolkit) listItems(ctx context.Context, in pathInput) (any, error) {
	path := in.Path
	if path == "" {
		path = "/"
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.ListObjects(ctx, path)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(items, func(o workspace.ObjectInfo) string { return o.Path }, func(o workspace.ObjectInfo) toolkit.Row {
		return toolkit.Row{
			"path":        o.Path,
			"object_type": toolkit.EnumString(o.ObjectType),
			"language":    toolkit.EnumString(o.Language),
			"object_id":   o.ObjectId,
		}
	}), nil
}

func (t *Toolkit) getNotebook(ctx context.Context, in pathInput) (any, error) {
	if in.Path == "" {
		return nil, errcode.Invalid("path", "is required")
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	exported, err := s.ExportObject(ctx, in.Path)
	if err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(exported.Content)
	if err != nil {
		return nil, errcode.Failed("notebook %s exported malformed content: %v", in.Path, err)
	}

	language := toolkit.Unknown
	status, err := s.GetObjectStatus(ctx, in.Path)
	if err != nil {
		slog.Warn("could not determine notebook language", "path", in.Path, "error", err)
	} else {
		language = toolkit.EnumString(status.Language)
	}

	return toolkit.Row{
		"path":     in.Path,
		"content":  string(content),
		"language": language,
	}, nil
}

func (t *Toolkit) listRepos(ctx context.Context, _ struct{}) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	repos, err := s.ListRepos(ctx)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(repos, func(r workspace.RepoInfo) string { return toolkit.IDString(r.Id) }, func(r workspace.RepoInfo) toolkit.Row {
		return toolkit.Row{
			"id":             r.Id,
			"path":           r.Path,
			"url":            r.Url,
			"provider":       r.Provider,
			"branch":         r.Branch,
			"head_commit_id": r.HeadCommitId,
		}
	}), nil
}

func (t *Toolkit) getRepo(ctx context.Context, in repoInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.GetRepo(ctx, in.RepoID)
	if err != nil {
		return nil, err
	}
	return toolkit.Row{
		"repo_id":        r.Id,
		"path":           r.Path,
		"url":            r.Url,
		"provider":       r.Provider,
		"branch":         r.Branch,
		"head_commit_id": r.HeadCommitId,
	}, nil
}
