// Package toolkit provides the endpoint table shared by every toolkit: typed
// tool and resource declarations, the dispatcher that registers them with the
// MCP server and wraps each invocation with error classification, and small
// helpers for reshaping SDK responses.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/txn2/mcp-databricks/pkg/errcode"
)

// MIMEType is the content type of every resource payload.
const MIMEType = "application/json"

// Kind distinguishes invokable tools from addressable resources.
type Kind string

// Endpoint kinds.
const (
	KindTool     Kind = "tool"
	KindResource Kind = "resource"
)

// Meta describes one entry of the dispatch table. For resources Name is the
// URI or URI template.
type Meta struct {
	Name        string
	Kind        Kind
	Toolkit     string
	Title       string
	Description string
	ReadOnly    bool
}

// Endpoint is a declaration that the dispatcher can register. It is
// implemented by Tool and Resource.
type Endpoint interface {
	Meta() Meta
	register(s *mcp.Server, d *Dispatcher, meta Meta) error
}

// Handler implements one endpoint. It returns plain data that is rendered as
// JSON, or an error that is classified by the dispatcher.
type Handler[In any] func(ctx context.Context, in In) (any, error)

// Tool declares an invokable action whose arguments decode into In.
type Tool[In any] struct {
	Name        string
	Title       string
	Description string
	ReadOnly    bool
	Destructive bool
	Idempotent  bool
	Handler     Handler[In]
}

// Meta implements Endpoint.
func (t Tool[In]) Meta() Meta {
	return Meta{
		Name:        t.Name,
		Kind:        KindTool,
		Title:       t.Title,
		Description: t.Description,
		ReadOnly:    t.ReadOnly,
	}
}

func (t Tool[In]) register(s *mcp.Server, d *Dispatcher, meta Meta) error {
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", meta.Name)
	}

	tool := &mcp.Tool{
		Name:        meta.Name,
		Title:       meta.Title,
		Description: meta.Description,
		Annotations: t.annotations(),
	}
	mcp.AddTool(s, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		out, err := d.Invoke(ctx, meta, func(ctx context.Context) (any, error) {
			if err := d.Validate(in); err != nil {
				return nil, err
			}
			return t.Handler(ctx, in)
		})
		if err != nil {
			return ErrorResult(err), nil, nil
		}

		result, err := JSONResult(out)
		if err != nil {
			return ErrorResult(d.classify(meta.Name, err)), nil, nil
		}
		return result, nil, nil
	})
	return nil
}

func (t Tool[In]) annotations() *mcp.ToolAnnotations {
	destructive := t.Destructive
	openWorld := true
	return &mcp.ToolAnnotations{
		Title:           t.Title,
		ReadOnlyHint:    t.ReadOnly,
		DestructiveHint: &destructive,
		IdempotentHint:  t.Idempotent,
		OpenWorldHint:   &openWorld,
	}
}

// Resource declares a read-only endpoint addressed by URI. When URI contains
// RFC 6570 expressions it is registered as a template and the matched
// variables decode into In by their json tags.
type Resource[In any] struct {
	URI         string
	Name        string
	Description string
	Handler     Handler[In]
}

// Meta implements Endpoint.
func (r Resource[In]) Meta() Meta {
	return Meta{
		Name:        r.URI,
		Kind:        KindResource,
		Title:       r.Name,
		Description: r.Description,
		ReadOnly:    true,
	}
}

func (r Resource[In]) register(s *mcp.Server, d *Dispatcher, meta Meta) error {
	if r.Handler == nil {
		return fmt.Errorf("resource %s has no handler", meta.Name)
	}

	if !strings.Contains(r.URI, "{") {
		s.AddResource(&mcp.Resource{
			URI:         r.URI,
			Name:        r.Name,
			Description: meta.Description,
			MIMEType:    MIMEType,
		}, r.handler(d, meta, nil))
		return nil
	}

	tmpl, err := uritemplate.New(r.URI)
	if err != nil {
		return fmt.Errorf("parsing resource template %s: %w", r.URI, err)
	}
	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: r.URI,
		Name:        r.Name,
		Description: meta.Description,
		MIMEType:    MIMEType,
	}, r.handler(d, meta, tmpl))
	return nil
}

func (r Resource[In]) handler(d *Dispatcher, meta Meta, tmpl *uritemplate.Template) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI

		var vars map[string]string
		if tmpl != nil {
			vars = MatchURI(tmpl, uri)
			if vars == nil {
				return nil, mcp.ResourceNotFoundError(uri)
			}
		}

		out, err := d.Invoke(ctx, meta, func(ctx context.Context) (any, error) {
			var in In
			if err := DecodeVars(vars, &in); err != nil {
				return nil, err
			}
			if err := d.Validate(in); err != nil {
				return nil, err
			}
			return r.Handler(ctx, in)
		})
		if err != nil {
			return nil, WireError(err)
		}

		text, err := json.Marshal(out)
		if err != nil {
			return nil, WireError(d.classify(meta.Name, err))
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      uri,
				MIMEType: MIMEType,
				Text:     string(text),
			}},
		}, nil
	}
}

// JSONResult renders v as an indented JSON text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}, nil
}

// ErrorResult renders a classified error as a tool error result carrying
// {"error": {category, code, message}}.
func ErrorResult(err error) *mcp.CallToolResult {
	payload := map[string]any{"error": asClassified(err)}
	text, mErr := json.Marshal(payload)
	if mErr != nil {
		text = []byte(err.Error())
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}
}

// WireError converts a classified error into a JSON-RPC error whose code is
// the category code.
func WireError(err error) error {
	e := asClassified(err)
	data, _ := json.Marshal(map[string]string{"category": string(e.Category)})
	return &jsonrpc.Error{
		Code:    int64(e.Code),
		Message: e.Message,
		Data:    data,
	}
}

func asClassified(err error) *errcode.Error {
	if e, ok := err.(*errcode.Error); ok { //nolint:errorlint // dispatcher returns *errcode.Error directly
		return e
	}
	return &errcode.Error{
		Category: errcode.CategoryUnknown,
		Code:     errcode.CodeUnknown,
		Message:  err.Error(),
	}
}
