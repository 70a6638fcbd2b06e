package workspace

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/jobs"
	"github.com/databricks/databricks-sdk-go/service/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-databricks/pkg/databricks"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type staticSource struct {
	session databricks.Session
}

func (s staticSource) Session(context.Context) (databricks.Session, error) {
	return s.session, nil
}

// fakeSession records workspace and execution calls. Unused Session
// methods panic.
type fakeSession struct {
	databricks.Session

	objects   []workspace.ObjectInfo
	export    *workspace.ExportResponse
	status    *workspace.ObjectInfo
	statusErr error
	repos     []workspace.RepoInfo

	submitted *jobs.SubmitRun
	run       *jobs.Run

	executed  *compute.Command
	command   *compute.CommandStatusResponse
	execErr   error
	destroyed []string
}

func (f *fakeSession) ListObjects(context.Context, string) ([]workspace.ObjectInfo, error) {
	return f.objects, nil
}

func (f *fakeSession) ExportObject(context.Context, string) (*workspace.ExportResponse, error) {
	return f.export, nil
}

func (f *fakeSession) GetObjectStatus(context.Context, string) (*workspace.ObjectInfo, error) {
	return f.status, f.statusErr
}

func (f *fakeSession) ListRepos(context.Context) ([]workspace.RepoInfo, error) {
	return f.repos, nil
}

func (f *fakeSession) SubmitRun(_ context.Context, req jobs.SubmitRun) (*jobs.Run, error) {
	f.submitted = &req
	return f.run, nil
}

func (f *fakeSession) CreateCommandContext(context.Context, string, compute.Language) (string, error) {
	return "ctx-1", nil
}

func (f *fakeSession) ExecuteCommand(_ context.Context, cmd compute.Command) (*compute.CommandStatusResponse, error) {
	f.executed = &cmd
	return f.command, f.execErr
}

func (f *fakeSession) DestroyCommandContext(_ context.Context, _, contextID string) error {
	f.destroyed = append(f.destroyed, contextID)
	return nil
}

func newToolkit(s databricks.Session) *Toolkit {
	return New("default", Config{}, toolkit.Deps{Sessions: staticSource{session: s}})
}

func TestListItems(t *testing.T) {
	s := &fakeSession{objects: []workspace.ObjectInfo{
		{Path: "/Users/a/nb", ObjectType: workspace.ObjectTypeNotebook, Language: workspace.LanguagePython, ObjectId: 1},
		{Path: ""},
		{Path: "/Users/a/dir", ObjectType: workspace.ObjectTypeDirectory},
	}}

	got, err := newToolkit(s).listItems(context.Background(), pathInput{Path: "/Users/a"})
	require.NoError(t, err)
	rows := got.([]toolkit.Row)
	require.Len(t, rows, 2)
	assert.Equal(t, "NOTEBOOK", rows[0]["object_type"])
	assert.Equal(t, "PYTHON", rows[0]["language"])
	assert.Equal(t, toolkit.Unknown, rows[1]["language"])
}

func TestGetNotebook(t *testing.T) {
	s := &fakeSession{
		export: &workspace.ExportResponse{Content: base64.StdEncoding.EncodeToString([]byte("print(1)"))},
		status: &workspace.ObjectInfo{Language: workspace.LanguagePython},
	}

	got, err := newToolkit(s).getNotebook(context.Background(), pathInput{Path: "/Users/a/nb"})
	require.NoError(t, err)
	assert.Equal(t, toolkit.Row{"path": "/Users/a/nb", "content": "print(1)", "language": "PYTHON"}, got)

	s.statusErr = errors.New("unavailable")
	got, err = newToolkit(s).getNotebook(context.Background(), pathInput{Path: "/Users/a/nb"})
	require.NoError(t, err)
	assert.Equal(t, toolkit.Unknown, got.(toolkit.Row)["language"])
}

func TestListRepos_DropsMissingIDs(t *testing.T) {
	s := &fakeSession{repos: []workspace.RepoInfo{{Id: 5, Branch: "main"}, {Id: 0}}}

	got, err := newToolkit(s).listRepos(context.Background(), struct{}{})
	require.NoError(t, err)
	rows := got.([]toolkit.Row)
	require.Len(t, rows, 1)
	assert.Equal(t, "main", rows[0]["branch"])
}

func TestRunNotebook(t *testing.T) {
	s := &fakeSession{run: &jobs.Run{
		RunId: 42,
		State: &jobs.RunState{LifeCycleState: jobs.RunLifeCycleStateTerminated, ResultState: jobs.RunResultStateFailed},
	}}

	got, err := newToolkit(s).runNotebook(context.Background(), runNotebookInput{
		NotebookPath: "/Users/a/nb",
		ClusterID:    "0101-abc",
		Parameters:   map[string]string{"env": "dev"},
	})
	require.NoError(t, err)

	row := got.(toolkit.Row)
	assert.Equal(t, int64(42), row["run_id"])
	assert.Equal(t, "TERMINATED", row["status"])
	assert.Equal(t, "FAILED", row["result_state"])

	require.NotNil(t, s.submitted)
	assert.Equal(t, "MCP Run: /Users/a/nb", s.submitted.RunName)
	require.Len(t, s.submitted.Tasks, 1)
	assert.Equal(t, "0101-abc", s.submitted.Tasks[0].ExistingClusterId)
	assert.Equal(t, "dev", s.submitted.Tasks[0].NotebookTask.BaseParameters["env"])
}

func TestExecuteCode(t *testing.T) {
	t.Run("returns data and destroys the context", func(t *testing.T) {
		s := &fakeSession{command: &compute.CommandStatusResponse{
			Id:      "cmd-1",
			Status:  compute.CommandStatusFinished,
			Results: &compute.Results{ResultType: compute.ResultTypeText, Data: "2"},
		}}

		got, err := newToolkit(s).executeCode(context.Background(), executeCodeInput{Code: "1+1", Language: "python", ClusterID: "c1"})
		require.NoError(t, err)
		assert.Equal(t, toolkit.Row{
			"command_id":  "cmd-1",
			"status":      "Finished",
			"result_type": "text",
			"result_data": "2",
		}, got)
		assert.Equal(t, "ctx-1", s.executed.ContextId)
		assert.Equal(t, []string{"ctx-1"}, s.destroyed)
	})

	t.Run("error result carries the cause", func(t *testing.T) {
		s := &fakeSession{command: &compute.CommandStatusResponse{
			Id:      "cmd-2",
			Status:  compute.CommandStatusFinished,
			Results: &compute.Results{ResultType: compute.ResultTypeError, Cause: "NameError: x"},
		}}

		got, err := newToolkit(s).executeCode(context.Background(), executeCodeInput{Code: "x", Language: "python", ClusterID: "c1"})
		require.NoError(t, err)
		assert.Equal(t, "NameError: x", got.(toolkit.Row)["result_data"])
	})

	t.Run("context destroyed when execution fails", func(t *testing.T) {
		s := &fakeSession{execErr: errors.New("cluster went away")}

		_, err := newToolkit(s).executeCode(context.Background(), executeCodeInput{Code: "x", Language: "sql", ClusterID: "c1"})
		require.Error(t, err)
		assert.Equal(t, []string{"ctx-1"}, s.destroyed)
	})
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{"run_name_prefix": "agent: "})
	require.NoError(t, err)
	assert.Equal(t, "agent: ", cfg.RunNamePrefix)

	cfg, err = ParseConfig(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRunNamePrefix, cfg.RunNamePrefix)
}
