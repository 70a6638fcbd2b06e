package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/jobs"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type runNotebookInput struct {
	NotebookPath string            `json:"notebook_path" jsonschema:"Absolute workspace path of the notebook" validate:"required"`
	ClusterID    string            `json:"cluster_id,omitempty" jsonschema:"Existing cluster to run on; serverless when omitted"`
	Parameters   map[string]string `json:"parameters,omitempty" jsonschema:"Notebook widget values"`
}

type executeCodeInput struct {
	Code      string `json:"code" jsonschema:"Code snippet to execute" validate:"required"`
	Language  string `json:"language" jsonschema:"One of python, sql, scala, r" validate:"required,oneof=python sql scala r"`
	ClusterID string `json:"cluster_id" jsonschema:"Running cluster to execute on" validate:"required"`
}

func (t *Toolkit) runNotebook(ctx context.Context, in runNotebookInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	req := jobs.SubmitRun{
		RunName: t.config.RunNamePrefix + in.NotebookPath,
		Tasks: []jobs.SubmitTask{{
			TaskKey:           "notebook",
			ExistingClusterId: in.ClusterID,
			NotebookTask: &jobs.NotebookTask{
				NotebookPath:   in.NotebookPath,
				BaseParameters: in.Parameters,
			},
		}},
	}

	slog.Info("running notebook", "path", in.NotebookPath, "cluster_id", in.ClusterID)
	run, err := toolkit.Wait(ctx, "running notebook "+in.NotebookPath, func(ctx context.Context) (*jobs.Run, error) {
		return s.SubmitRun(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	out := toolkit.Row{
		"notebook_path": in.NotebookPath,
		"run_id":        run.RunId,
		"status":        toolkit.Unknown,
		"result_state":  toolkit.Unknown,
		"run_page_url":  run.RunPageUrl,
	}
	if run.State != nil {
		out["status"] = toolkit.EnumString(run.State.LifeCycleState)
		out["result_state"] = toolkit.EnumString(run.State.ResultState)
	}
	slog.Info("notebook run finished", "path", in.NotebookPath, "run_id", run.RunId, "status", out["status"])
	return out, nil
}

func (t *Toolkit) executeCode(ctx context.Context, in executeCodeInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	language := compute.Language(strings.ToLower(in.Language))
	contextID, err := s.CreateCommandContext(ctx, in.ClusterID, language)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.DestroyCommandContext(context.WithoutCancel(ctx), in.ClusterID, contextID); err != nil {
			slog.Warn("failed to destroy execution context", "cluster_id", in.ClusterID, "context_id", contextID, "error", err)
		}
	}()

	slog.Info("executing code", "cluster_id", in.ClusterID, "language", language)
	resp, err := toolkit.Wait(ctx, fmt.Sprintf("executing %s on %s", language, in.ClusterID), func(ctx context.Context) (*compute.CommandStatusResponse, error) {
		return s.ExecuteCommand(ctx, compute.Command{
			ClusterId: in.ClusterID,
			ContextId: contextID,
			Language:  language,
			Command:   in.Code,
		})
	})
	if err != nil {
		return nil, err
	}
	return commandResult(resp), nil
}

// commandResult renders a finished command. For errors the cause replaces
// the data.
func commandResult(resp *compute.CommandStatusResponse) toolkit.Row {
	out := toolkit.Row{
		"command_id":  resp.Id,
		"status":      toolkit.EnumString(resp.Status),
		"result_type": toolkit.Unknown,
		"result_data": nil,
	}
	if r := resp.Results; r != nil {
		out["result_type"] = toolkit.EnumString(r.ResultType)
		out["result_data"] = r.Data
		if r.ResultType == compute.ResultTypeError {
			out["result_data"] = r.Cause
		}
	}
	return out
}
