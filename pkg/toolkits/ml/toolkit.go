// Package ml exposes MLflow tracking, model registry, model serving and
// vector search endpoints.
package ml

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "ml"

// Defaults for list sizes and vector queries.
const (
	DefaultMaxResults = 100
	MaxResultsLimit   = 1000
	DefaultNumResults = 10
	DefaultQueryType  = "ANN"
)

// Config holds ml toolkit configuration.
type Config struct {
	toolkit.Config `yaml:",inline"`

	MaxResults int `yaml:"max_results"`
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
	c.MaxResults = toolkit.Clamp(c.MaxResults, DefaultMaxResults, MaxResultsLimit)
	return c
}

// Toolkit serves ML endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates an ml toolkit.
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

// Endpoints returns the ml dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[listExperimentsInput]{
			URI:         "databricks://mlflow/experiments{?max_results}",
			Name:        "experiments",
			Description: "Lists MLflow experiments in the workspace.",
			Handler:     t.listExperiments,
		},
		toolkit.Resource[searchRunsInput]{
			URI:         "databricks://mlflow/experiments/{experiment_id}/runs{?filter_string,max_results}",
			Name:        "experiment_runs",
			Description: "Lists runs of an MLflow experiment, optionally filtered with an MLflow search expression.",
			Handler:     t.searchRuns,
		},
		toolkit.Resource[runInput]{
			URI:         "databricks://mlflow/runs/{run_id}",
			Name:        "run",
			Description: "Gets an MLflow run including its params, metrics and tags.",
			Handler:     t.getRun,
		},
		toolkit.Resource[searchModelsInput]{
			URI:         "databricks://mlflow/models{?filter_string,max_results}",
			Name:        "models",
			Description: "Lists registered models in the workspace model registry.",
			Handler:     t.searchModels,
		},
		toolkit.Resource[modelVersionInput]{
			URI:         "databricks://mlflow/models/{model_name}/versions/{version}",
			Name:        "model_version",
			Description: "Gets a specific version of a registered model.",
			Handler:     t.getModelVersion,
		},
		toolkit.Tool[servingInput]{
			Name:  "databricks_ml_query_serving_endpoint",
			Title: "Query serving endpoint",
			Description: "Queries a Model Serving endpoint. input_data is either an object " +
				"(with inputs, instances or dataframe_records, or named inputs) or an array of instances.",
			Handler: t.queryServingEndpoint,
		},
		toolkit.Resource[struct{}]{
			URI:         "databricks://vectorsearch/endpoints",
			Name:        "vector_endpoints",
			Description: "Lists vector search endpoints.",
			Handler:     t.listVectorEndpoints,
		},
		toolkit.Resource[vectorIndexesInput]{
			URI:         "databricks://vectorsearch/endpoints/{endpoint_name}/indexes",
			Name:        "vector_indexes",
			Description: "Lists the indexes served by a vector search endpoint.",
			Handler:     t.listVectorIndexes,
		},
		toolkit.Tool[upsertInput]{
			Name:        "databricks_ml_vector_upsert",
			Title:       "Upsert vector index",
			Description: "Adds or updates documents in a Direct Access vector search index.",
			Idempotent:  true,
			Handler:     t.vectorUpsert,
		},
		toolkit.Tool[vectorQueryInput]{
			Name:  "databricks_ml_vector_query",
			Title: "Query vector index",
			Description: "Finds similar documents in a vector search index. " +
				"Provide exactly one of query_vector or query_text.",
			ReadOnly: true,
			Handler:  t.vectorQuery,
		},
	}
}
