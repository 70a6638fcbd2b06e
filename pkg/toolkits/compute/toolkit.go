// Package compute exposes cluster listing and lifecycle endpoints.
package compute

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "compute"

// Config holds compute toolkit configuration.
type Config struct {
	toolkit.Config `yaml:",inline"`
}

// ParseConfig decodes a raw config section.
func ParseConfig(raw map[string]any) (Config, error) {
	var c Config
	if err := toolkit.DecodeConfig(raw, &c); err != nil {
		return Config{}, err //nolint:wrapcheck // already wrapped
	}
	return c, nil
}

// Toolkit serves cluster endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates a compute toolkit.
func New(name string, cfg Config, deps toolkit.Deps) *Toolkit {
	return &Toolkit{name: name, config: cfg, deps: deps}
}

// Kind returns the toolkit kind.
func (t *Toolkit) Kind() string { return Kind }

// Name returns the instance name.
func (t *Toolkit) Name() string { return t.name }

// Descriptions returns configured description overrides.
func (t *Toolkit) Descriptions() map[string]string { return t.config.Descriptions }

// Close releases resources.
func (t *Toolkit) Close() error { return nil }

// Endpoints returns the compute dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[struct{}]{
			URI:         "databricks://compute/clusters",
			Name:        "clusters",
			Description: "Lists all available Databricks clusters in the workspace.",
			Handler:     t.listClusters,
		},
		toolkit.Resource[clusterInput]{
			URI:         "databricks://compute/clusters/{cluster_id}",
			Name:        "cluster",
			Description: "Gets detailed information about a specific Databricks cluster.",
			Handler:     t.getCluster,
		},
		toolkit.Tool[clusterInput]{
			Name:        "databricks_compute_start_cluster",
			Title:       "Start cluster",
			Description: "Starts a terminated Databricks cluster and waits until it is RUNNING.",
			Idempotent:  true,
			Handler:     t.startCluster,
		},
		toolkit.Tool[clusterInput]{
			Name:        "databricks_compute_terminate_cluster",
			Title:       "Terminate cluster",
			Description: "Terminates a running Databricks cluster and waits until it is TERMINATED.",
			Destructive: true,
			Idempotent:  true,
			Handler:     t.terminateCluster,
		},
	}
}
