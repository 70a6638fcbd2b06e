// Package jobs exposes job listing, run history and run-now endpoints.
package jobs

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "jobs"

// Listing defaults.
const (
	DefaultJobLimit = 20
	DefaultRunLimit = 25
	MaxListLimit    = 1000
)

// Config holds jobs toolkit configuration.
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

// Toolkit serves job endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates a jobs toolkit.
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

// Endpoints returns the jobs dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[listJobsInput]{
			URI:         "databricks://jobs{?name_filter,limit}",
			Name:        "jobs",
			Description: "Lists configured Databricks jobs, optionally filtered by name.",
			Handler:     t.listJobs,
		},
		toolkit.Resource[jobInput]{
			URI:         "databricks://jobs/{job_id}",
			Name:        "job",
			Description: "Gets the configuration of a specific Databricks job.",
			Handler:     t.getJob,
		},
		toolkit.Resource[listRunsInput]{
			URI:         "databricks://jobs/{job_id}/runs{?limit,status_filter}",
			Name:        "job_runs",
			Description: "Lists recent runs of a Databricks job, optionally filtered by life-cycle state.",
			Handler:     t.listRuns,
		},
		toolkit.Tool[runNowInput]{
			Name:  "databricks_jobs_run_now",
			Title: "Run job now",
			Description: "Triggers a Databricks job immediately and waits for the run to finish. " +
				"Parameters override the job's settings for this run only.",
			Handler: t.runNow,
		},
	}
}
