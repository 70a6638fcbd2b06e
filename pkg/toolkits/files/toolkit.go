// Package files exposes DBFS listing, read, write and delete endpoints.
package files

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "files"

// DefaultReadLength is the number of bytes read when no length is given.
// It is also the DBFS per-call maximum.
const DefaultReadLength = 1 << 20

// Config holds files toolkit configuration.
type Config struct {
	toolkit.Config `yaml:",inline"`

	MaxReadBytes int64 `yaml:"max_read_bytes"`
}

// ParseConfig decodes a raw config section and applies defaults.
func ParseConfig(raw map[string]any) (Config, error) {
	var c Config
	if err := toolkit.DecodeConfig(raw, &c); err != nil {
		return Config{}, err //nolint:wrapcheck // already wrapped
	}
	return applyDefaults(c), nil
}

func applyDefaults(c Config) Config {
	if c.MaxReadBytes <= 0 || c.MaxReadBytes > DefaultReadLength {
		c.MaxReadBytes = DefaultReadLength
	}
	return c
}

// Toolkit serves DBFS endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates a files toolkit.
func New(name string, cfg Config, deps toolkit.Deps) *Toolkit {
	return &Toolkit{name: name, config: applyDefaults(cfg), deps: deps}
}

// Kind returns the toolkit kind.
func (t *Toolkit) Kind() string { return Kind }

// Name returns the instance name.
func (t *Toolkit) Name() string { return t.name }

// Descriptions returns configured description overrides.
func (t *Toolkit) Descriptions() map[string]string { return t.config.Descriptions }

// Close releases resources.
func (t *Toolkit) Close() error { return nil }

// Endpoints returns the files dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[pathInput]{
			URI:         "databricks://files{+path}",
			Name:        "files",
			Description: "Lists files and directories at a DBFS path.",
			Handler:     t.list,
		},
		toolkit.Tool[readInput]{
			Name:        "databricks_files_read",
			Title:       "Read file",
			Description: "Reads a file from DBFS. Content is returned base64 encoded.",
			ReadOnly:    true,
			Handler:     t.read,
		},
		toolkit.Tool[writeInput]{
			Name:        "databricks_files_write",
			Title:       "Write file",
			Description: "Writes base64 encoded content to a DBFS file.",
			Destructive: true,
			Handler:     t.write,
		},
		toolkit.Tool[deleteInput]{
			Name:        "databricks_files_delete",
			Title:       "Delete file",
			Description: "Deletes a DBFS file or directory, optionally recursively.",
			Destructive: true,
			Idempotent:  true,
			Handler:     t.delete,
		},
		toolkit.Tool[pathInput]{
			Name:        "databricks_files_create_directory",
			Title:       "Create directory",
			Description: "Creates a DBFS directory including any missing parents.",
			Idempotent:  true,
			Handler:     t.createDirectory,
		},
	}
}
