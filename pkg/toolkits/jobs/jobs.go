package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/databricks/databricks-sdk-go/service/jobs"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type listJobsInput struct {
	NameFilter string `json:"name_filter,omitempty"`
	Limit      int    `json:"limit,omitempty" validate:"gte=0"`
}

type jobInput struct {
	JobID int64 `json:"job_id" validate:"required"`
}

type listRunsInput struct {
	JobID        int64  `json:"job_id" validate:"required"`
	Limit        int    `json:"limit,omitempty" validate:"gte=0"`
	StatusFilter string `json:"status_filter,omitempty"`
}

type runNowInput struct {
	JobID             int64             `json:"job_id" jsonschema:"Identifier of the job to run" validate:"required"`
	NotebookParams    map[string]string `json:"notebook_params,omitempty" jsonschema:"Notebook widget overrides"`
	PythonParams      []string          `json:"python_params,omitempty" jsonschema:"Arguments for Python script tasks"`
	JarParams         []string          `json:"jar_params,omitempty" jsonschema:"Arguments for JAR tasks"`
	SparkSubmitParams []string          `json:"spark_submit_params,omitempty" jsonschema:"Arguments for spark-submit tasks"`
}

func (t *Toolkit) listJobs(ctx context.Context, in listJobsInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.ListJobs(ctx, in.NameFilter, toolkit.Clamp(in.Limit, DefaultJobLimit, MaxListLimit))
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(list, func(j jobs.BaseJob) string { return toolkit.IDString(j.JobId) }, func(j jobs.BaseJob) toolkit.Row {
		row := toolkit.Row{
			"job_id":               j.JobId,
			"name":                 nil,
			"creator_user_name":    j.CreatorUserName,
			"schedule_quartz_expr": nil,
			"schedule_timezone":    nil,
			"created_time":         j.CreatedTime,
		}
		if j.Settings != nil {
			row["name"] = j.Settings.Name
			if j.Settings.Schedule != nil {
				row["schedule_quartz_expr"] = j.Settings.Schedule.QuartzCronExpression
				row["schedule_timezone"] = j.Settings.Schedule.TimezoneId
			}
		}
		return row
	}), nil
}

func (t *Toolkit) getJob(ctx context.Context, in jobInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	j, err := s.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}

	settings := map[string]any{}
	name := ""
	if j.Settings != nil {
		if settings, err = asMap(j.Settings); err != nil {
			return nil, err
		}
		name = j.Settings.Name
	}
	return toolkit.Row{
		"job_id":            j.JobId,
		"name":              name,
		"creator_user_name": j.CreatorUserName,
		"created_time":      j.CreatedTime,
		"run_as_user_name":  j.RunAsUserName,
		"settings":          settings,
	}, nil
}

func (t *Toolkit) listRuns(ctx context.Context, in listRunsInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	runs, err := s.ListJobRuns(ctx, in.JobID, toolkit.Clamp(in.Limit, DefaultRunLimit, MaxListLimit))
	if err != nil {
		return nil, err
	}

	if in.StatusFilter != "" {
		want := strings.ToUpper(in.StatusFilter)
		matched := runs[:0:0]
		for _, r := range runs {
			if r.State != nil && string(r.State.LifeCycleState) == want {
				matched = append(matched, r)
			}
		}
		runs = matched
	}

	return toolkit.Reshape(runs, func(r jobs.BaseRun) string { return toolkit.IDString(r.RunId) }, func(r jobs.BaseRun) toolkit.Row {
		row := toolkit.Row{
			"run_id":           r.RunId,
			"job_id":           r.JobId,
			"start_time":       r.StartTime,
			"end_time":         r.EndTime,
			"duration":         r.ExecutionDuration,
			"state_life_cycle": toolkit.Unknown,
			"state_result":     toolkit.Unknown,
			"state_message":    "",
			"run_page_url":     r.RunPageUrl,
			"trigger_type":     string(r.Trigger),
		}
		if r.State != nil {
			row["state_life_cycle"] = toolkit.EnumString(r.State.LifeCycleState)
			row["state_result"] = toolkit.EnumString(r.State.ResultState)
			row["state_message"] = r.State.StateMessage
		}
		return row
	}), nil
}

func (t *Toolkit) runNow(ctx context.Context, in runNowInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("running job now", "job_id", in.JobID)
	run, err := toolkit.Wait(ctx, fmt.Sprintf("running job %d", in.JobID), func(ctx context.Context) (*jobs.Run, error) {
		return s.RunJobNow(ctx, jobs.RunNow{
			JobId:             in.JobID,
			NotebookParams:    in.NotebookParams,
			PythonParams:      in.PythonParams,
			JarParams:         in.JarParams,
			SparkSubmitParams: in.SparkSubmitParams,
		})
	})
	if err != nil {
		return nil, err
	}

	out := runResult(run)
	out["job_id"] = in.JobID
	slog.Info("job run finished", "job_id", in.JobID, "run_id", out["run_id"], "status", out["status"], "result_state", out["result_state"])
	return out, nil
}

// runResult renders the terminal state of a run.
func runResult(run *jobs.Run) toolkit.Row {
	out := toolkit.Row{
		"run_id":       run.RunId,
		"status":       toolkit.Unknown,
		"result_state": toolkit.Unknown,
		"run_page_url": run.RunPageUrl,
	}
	if run.State != nil {
		out["status"] = toolkit.EnumString(run.State.LifeCycleState)
		out["result_state"] = toolkit.EnumString(run.State.ResultState)
	}
	return out
}

// asMap renders an SDK struct as a generic map through its JSON form.
func asMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding job settings: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decoding job settings: %w", err)
	}
	return out, nil
}
