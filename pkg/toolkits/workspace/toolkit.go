// Package workspace exposes workspace objects, notebook export, repos,
// notebook runs and ad-hoc code execution on clusters.
package workspace

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "workspace"

// Config holds workspace toolkit configuration.
type Config struct {
	toolkit.Config `yaml:",inline"`

	// RunNamePrefix names one-time notebook runs.
	RunNamePrefix string `yaml:"run_name_prefix"`
}

// DefaultRunNamePrefix is used when no prefix is configured.
const DefaultRunNamePrefix = "MCP Run: "

// ParseConfig decodes a raw config section and applies defaults.
func ParseConfig(raw map[string]any) (Config, error) {
	var c Config
	if err := toolkit.DecodeConfig(raw, &c); err != nil {
		return Config{}, err //nolint:wrapcheck // already wrapped
	}
	return applyDefaults(c), nil
}

func applyDefaults(c Config) Config {
	if c.RunNamePrefix == "" {
		c.RunNamePrefix = DefaultRunNamePrefix
	}
	return c
}

// Toolkit serves workspace endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates a workspace toolkit.
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

// Endpoints returns the workspace dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[pathInput]{
			URI:         "databricks://workspace/items{+path}",
			Name:        "workspace_items",
			Description: "Lists notebooks, folders, files and repos within a workspace path.",
			Handler:     t.listItems,
		},
		toolkit.Resource[pathInput]{
			URI:         "databricks://workspace/notebooks{+path}",
			Name:        "notebook",
			Description: "Retrieves the source of a notebook together with its language.",
			Handler:     t.getNotebook,
		},
		toolkit.Resource[struct{}]{
			URI:         "databricks://repos",
			Name:        "repos",
			Description: "Lists Git folders (repos) in the workspace.",
			Handler:     t.listRepos,
		},
		toolkit.Resource[repoInput]{
			URI:         "databricks://repos/{repo_id}",
			Name:        "repo",
			Description: "Gets the branch and head commit of a repo.",
			Handler:     t.getRepo,
		},
		toolkit.Tool[runNotebookInput]{
			Name:        "databricks_workspace_run_notebook",
			Title:       "Run notebook",
			Description: "Runs a notebook as a one-time job run and waits for it to finish.",
			Handler:     t.runNotebook,
		},
		toolkit.Tool[executeCodeInput]{
			Name:  "databricks_workspace_execute_code",
			Title: "Execute code",
			Description: "Executes a Python, SQL, Scala or R snippet on a running cluster " +
				"and waits for the command to finish.",
			Handler: t.executeCode,
		},
	}
}
