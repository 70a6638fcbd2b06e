package jobs

import (
	"context"
	"testing"

	"github.com/databricks/databricks-sdk-go/service/jobs"
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

// fakeSession serves canned jobs and runs. Unused Session methods panic.
type fakeSession struct {
	databricks.Session

	jobs      []jobs.BaseJob
	job       *jobs.Job
	runs      []jobs.BaseRun
	finalRun  *jobs.Run
	lastLimit int
	runNow    *jobs.RunNow
}

func (f *fakeSession) ListJobs(_ context.Context, _ string, limit int) ([]jobs.BaseJob, error) {
	f.lastLimit = limit
	return f.jobs, nil
}

func (f *fakeSession) GetJob(context.Context, int64) (*jobs.Job, error) {
	return f.job, nil
}

func (f *fakeSession) ListJobRuns(_ context.Context, _ int64, limit int) ([]jobs.BaseRun, error) {
	f.lastLimit = limit
	return f.runs, nil
}

func (f *fakeSession) RunJobNow(_ context.Context, req jobs.RunNow) (*jobs.Run, error) {
	f.runNow = &req
	return f.finalRun, nil
}

func newToolkit(s databricks.Session) *Toolkit {
	return New("default", Config{}, toolkit.Deps{Sessions: staticSource{session: s}})
}

func TestListJobs(t *testing.T) {
	s := &fakeSession{jobs: []jobs.BaseJob{
		{
			JobId:           11,
			CreatorUserName: "a@example.com",
			Settings: &jobs.JobSettings{
				Name:     "nightly",
				Schedule: &jobs.CronSchedule{QuartzCronExpression: "0 0 2 * * ?", TimezoneId: "UTC"},
			},
		},
		{JobId: 0},
		{JobId: 12},
	}}

	got, err := newToolkit(s).listJobs(context.Background(), listJobsInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultJobLimit, s.lastLimit)

	rows := got.([]toolkit.Row)
	require.Len(t, rows, 2)
	assert.Equal(t, "nightly", rows[0]["name"])
	assert.Equal(t, "0 0 2 * * ?", rows[0]["schedule_quartz_expr"])
	assert.Equal(t, int64(12), rows[1]["job_id"])
	assert.Nil(t, rows[1]["name"])
}

func TestGetJob_SettingsAsMap(t *testing.T) {
	s := &fakeSession{job: &jobs.Job{
		JobId:         7,
		RunAsUserName: "svc",
		Settings:      &jobs.JobSettings{Name: "etl", MaxConcurrentRuns: 2},
	}}

	got, err := newToolkit(s).getJob(context.Background(), jobInput{JobID: 7})
	require.NoError(t, err)

	row := got.(toolkit.Row)
	assert.Equal(t, "etl", row["name"])
	settings := row["settings"].(map[string]any)
	assert.Equal(t, "etl", settings["name"])
	assert.InDelta(t, 2, settings["max_concurrent_runs"], 0)

	s.job = &jobs.Job{JobId: 8}
	got, err = newToolkit(s).getJob(context.Background(), jobInput{JobID: 8})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got.(toolkit.Row)["settings"])
}

func TestListRuns_StatusFilter(t *testing.T) {
	s := &fakeSession{runs: []jobs.BaseRun{
		{RunId: 1, JobId: 7, State: &jobs.RunState{LifeCycleState: jobs.RunLifeCycleStateTerminated, ResultState: jobs.RunResultStateSuccess}},
		{RunId: 2, JobId: 7, State: &jobs.RunState{LifeCycleState: jobs.RunLifeCycleStateRunning}},
		{RunId: 0, JobId: 7, State: &jobs.RunState{LifeCycleState: jobs.RunLifeCycleStateTerminated}},
		{RunId: 3, JobId: 7},
	}}
	tk := newToolkit(s)

	got, err := tk.listRuns(context.Background(), listRunsInput{JobID: 7, StatusFilter: "terminated"})
	require.NoError(t, err)
	rows := got.([]toolkit.Row)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["run_id"])
	assert.Equal(t, "SUCCESS", rows[0]["state_result"])
	assert.Equal(t, DefaultRunLimit, s.lastLimit)

	got, err = tk.listRuns(context.Background(), listRunsInput{JobID: 7, Limit: 5})
	require.NoError(t, err)
	rows = got.([]toolkit.Row)
	require.Len(t, rows, 3)
	assert.Equal(t, "RUNNING", rows[1]["state_life_cycle"])
	assert.Equal(t, toolkit.Unknown, rows[1]["state_result"])
	assert.Equal(t, toolkit.Unknown, rows[2]["state_life_cycle"])
	assert.Equal(t, 5, s.lastLimit)
}

func TestRunNow_BlocksToTerminal(t *testing.T) {
	s := &fakeSession{finalRun: &jobs.Run{
		RunId:      99,
		RunPageUrl: "https://example.cloud.databricks.com/#job/7/run/99",
		State: &jobs.RunState{
			LifeCycleState: jobs.RunLifeCycleStateTerminated,
			ResultState:    jobs.RunResultStateSuccess,
		},
	}}

	got, err := newToolkit(s).runNow(context.Background(), runNowInput{
		JobID:          7,
		NotebookParams: map[string]string{"date": "2024-01-01"},
	})
	require.NoError(t, err)

	assert.Equal(t, toolkit.Row{
		"job_id":       int64(7),
		"run_id":       int64(99),
		"status":       "TERMINATED",
		"result_state": "SUCCESS",
		"run_page_url": "https://example.cloud.databricks.com/#job/7/run/99",
	}, got)
	require.NotNil(t, s.runNow)
	assert.Equal(t, "2024-01-01", s.runNow.NotebookParams["date"])
}

func TestEndpoints(t *testing.T) {
	var names []string
	for _, e := range newToolkit(nil).Endpoints() {
		names = append(names, e.Meta().Name)
	}
	assert.Contains(t, names, "databricks_jobs_run_now")
	assert.Contains(t, names, "databricks://jobs/{job_id}/runs{?limit,status_filter}")
}
