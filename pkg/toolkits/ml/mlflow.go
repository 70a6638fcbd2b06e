package ml

import (
	"context"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type listExperimentsInput struct {
	MaxResults int `json:"max_results,omitempty" validate:"gte=0"`
}

type searchRunsInput struct {
	ExperimentID string `json:"experiment_id" validate:"required"`
	FilterString string `json:"filter_string,omitempty"`
	MaxResults   int    `json:"max_results,omitempty" validate:"gte=0"`
}

type runInput struct {
	RunID string `json:"run_id" validate:"required"`
}

type searchModelsInput struct {
	FilterString string `json:"filter_string,omitempty"`
	MaxResults   int    `json:"max_results,omitempty" validate:"gte=0"`
}

type modelVersionInput struct {
	ModelName string `json:"model_name" validate:"required"`
	Version   string `json:"version" validate:"required"`
}

func (t *Toolkit) maxResults(v int) int {
	return toolkit.Clamp(v, t.config.MaxResults, MaxResultsLimit)
}

func (t *Toolkit) listExperiments(ctx context.Context, in listExperimentsInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.ListExperiments(ctx, t.maxResults(in.MaxResults))
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(list, func(e ml.Experiment) string { return e.ExperimentId }, func(e ml.Experiment) toolkit.Row {
		return toolkit.Row{
			"experiment_id":     e.ExperimentId,
			"name":              e.Name,
			"artifact_location": e.ArtifactLocation,
			"lifecycle_stage":   e.LifecycleStage,
			"creation_time":     e.CreationTime,
			"last_update_time":  e.LastUpdateTime,
		}
	}), nil
}

func (t *Toolkit) searchRuns(ctx context.Context, in searchRunsInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	runs, err := s.SearchRuns(ctx, in.ExperimentID, in.FilterString, t.maxResults(in.MaxResults))
	if err != nil {
		return nil, err
	}
	return toolkit.Reshape(runs, runID, runInfoRow), nil
}

func (t *Toolkit) getRun(ctx context.Context, in runInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	run, err := s.GetRun(ctx, in.RunID)
	if err != nil {
		return nil, err
	}

	row := runInfoRow(*run)
	params := map[string]string{}
	metrics := map[string]float64{}
	tags := map[string]string{}
	if run.Data != nil {
		for _, p := range run.Data.Params {
			params[p.Key] = p.Value
		}
		for _, m := range run.Data.Metrics {
			metrics[m.Key] = m.Value
		}
		for _, tag := range run.Data.Tags {
			tags[tag.Key] = tag.Value
		}
	}
	row["params"] = params
	row["metrics"] = metrics
	row["tags"] = tags
	return row, nil
}

func runID(r ml.Run) string {
	if r.Info == nil {
		return ""
	}
	return r.Info.RunId
}

func runInfoRow(r ml.Run) toolkit.Row {
	row := toolkit.Row{"status": toolkit.Unknown}
	if info := r.Info; info != nil {
		row["run_id"] = info.RunId
		row["experiment_id"] = info.ExperimentId
		row["user_id"] = info.UserId
		row["status"] = toolkit.EnumString(info.Status)
		row["start_time"] = info.StartTime
		row["end_time"] = info.EndTime
		row["artifact_uri"] = info.ArtifactUri
		row["lifecycle_stage"] = info.LifecycleStage
	}
	return row
}

func (t *Toolkit) searchModels(ctx context.Context, in searchModelsInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	models, err := s.SearchModels(ctx, in.FilterString, t.maxResults(in.MaxResults))
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(models, func(m ml.Model) string { return m.Name }, func(m ml.Model) toolkit.Row {
		latest := make([]toolkit.Row, 0, len(m.LatestVersions))
		for _, v := range m.LatestVersions {
			latest = append(latest, toolkit.Row{
				"name":          v.Name,
				"version":       v.Version,
				"current_stage": v.CurrentStage,
				"status":        toolkit.EnumString(v.Status),
			})
		}
		return toolkit.Row{
			"name":                   m.Name,
			"creation_timestamp":     m.CreationTimestamp,
			"last_updated_timestamp": m.LastUpdatedTimestamp,
			"user_id":                m.UserId,
			"description":            m.Description,
			"latest_versions":        latest,
		}
	}), nil
}

func (t *Toolkit) getModelVersion(ctx context.Context, in modelVersionInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.GetModelVersion(ctx, in.ModelName, in.Version)
	if err != nil {
		return nil, err
	}

	tags := map[string]string{}
	for _, tag := range v.Tags {
		tags[tag.Key] = tag.Value
	}
	return toolkit.Row{
		"name":                   v.Name,
		"version":                v.Version,
		"creation_timestamp":     v.CreationTimestamp,
		"last_updated_timestamp": v.LastUpdatedTimestamp,
		"user_id":                v.UserId,
		"current_stage":          v.CurrentStage,
		"description":            v.Description,
		"source":                 v.Source,
		"run_id":                 v.RunId,
		"status":                 toolkit.EnumString(v.Status),
		"status_message":         v.StatusMessage,
		"tags":                   tags,
	}, nil
}
