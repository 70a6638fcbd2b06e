package registry

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
	"github.com/txn2/mcp-databricks/pkg/toolkits/compute"
	"github.com/txn2/mcp-databricks/pkg/toolkits/data"
	"github.com/txn2/mcp-databricks/pkg/toolkits/files"
	"github.com/txn2/mcp-databricks/pkg/toolkits/jobs"
	"github.com/txn2/mcp-databricks/pkg/toolkits/ml"
	"github.com/txn2/mcp-databricks/pkg/toolkits/secrets"
	"github.com/txn2/mcp-databricks/pkg/toolkits/workspace"
)

// RegisterBuiltinFactories registers all built-in toolkit factories.
func RegisterBuiltinFactories(r *Registry) {
	r.RegisterFactory(compute.Kind, ComputeFactory)
	r.RegisterFactory(data.Kind, DataFactory)
	r.RegisterFactory(files.Kind, FilesFactory)
	r.RegisterFactory(jobs.Kind, JobsFactory)
	r.RegisterFactory(ml.Kind, MLFactory)
	r.RegisterFactory(secrets.Kind, SecretsFactory)
	r.RegisterFactory(workspace.Kind, WorkspaceFactory)
}

// ComputeFactory creates a compute toolkit from configuration.
func ComputeFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := compute.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return compute.New(name, config, deps), nil
}

// DataFactory creates a data toolkit from configuration.
func DataFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := data.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return data.New(name, config, deps), nil
}

// FilesFactory creates a files toolkit from configuration.
func FilesFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := files.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return files.New(name, config, deps), nil
}

// JobsFactory creates a jobs toolkit from configuration.
func JobsFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := jobs.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return jobs.New(name, config, deps), nil
}

// MLFactory creates an ml toolkit from configuration.
func MLFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := ml.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return ml.New(name, config, deps), nil
}

// SecretsFactory creates a secrets toolkit from configuration.
func SecretsFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := secrets.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return secrets.New(name, config, deps), nil
}

// WorkspaceFactory creates a workspace toolkit from configuration.
func WorkspaceFactory(name string, cfg map[string]any, deps toolkit.Deps) (Toolkit, error) {
	config, err := workspace.ParseConfig(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by CreateAndRegister
	}
	return workspace.New(name, config, deps), nil
}
