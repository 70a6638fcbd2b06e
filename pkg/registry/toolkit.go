// Package registry provides toolkit registration and management.
package registry

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Toolkit is the interface that all composable toolkits must implement.
type Toolkit interface {
	// Kind returns the toolkit type (e.g., "compute", "data", "secrets").
	Kind() string

	// Name returns the instance name.
	Name() string

	// Endpoints returns the toolkit's dispatch table.
	Endpoints() []toolkit.Endpoint

	// Descriptions returns configured description overrides keyed by
	// endpoint name.
	Descriptions() map[string]string

	// Close releases resources.
	Close() error
}

// ToolkitFactory creates a toolkit from configuration.
type ToolkitFactory func(name string, config map[string]any, deps toolkit.Deps) (Toolkit, error)

// ToolkitConfig holds configuration for a toolkit instance.
type ToolkitConfig struct {
	Kind   string
	Name   string
	Config map[string]any
}
