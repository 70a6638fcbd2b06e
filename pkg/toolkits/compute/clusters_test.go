package compute

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/databricks/databricks-sdk-go/apierr"
	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-databricks/pkg/databricks"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type staticSource struct {
	session databricks.Session
	err     error
}

func (s staticSource) Session(context.Context) (databricks.Session, error) {
	return s.session, s.err
}

// fakeSession simulates the cluster API. Unused Session methods panic.
type fakeSession struct {
	databricks.Session

	clusters []compute.ClusterDetails
	cluster  *compute.ClusterDetails
	err      error

	// transitions are observed one per poll before the call returns.
	transitions []compute.State
	pollDelay   time.Duration
	polls       atomic.Int32
}

func (f *fakeSession) ListClusters(context.Context) ([]compute.ClusterDetails, error) {
	return f.clusters, f.err
}

func (f *fakeSession) GetCluster(_ context.Context, id string) (*compute.ClusterDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *f.cluster
	c.ClusterId = id
	return &c, nil
}

func (f *fakeSession) wait(ctx context.Context, id string) (*compute.ClusterDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	var state compute.State
	for _, state = range f.transitions {
		f.polls.Add(1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.pollDelay):
		}
	}
	return &compute.ClusterDetails{ClusterId: id, State: state}, nil
}

func (f *fakeSession) StartCluster(ctx context.Context, id string) (*compute.ClusterDetails, error) {
	return f.wait(ctx, id)
}

func (f *fakeSession) TerminateCluster(ctx context.Context, id string) (*compute.ClusterDetails, error) {
	return f.wait(ctx, id)
}

func newToolkit(s databricks.Session) *Toolkit {
	return New("default", Config{}, toolkit.Deps{Sessions: staticSource{session: s}})
}

func TestListClusters_DropsMissingIDs(t *testing.T) {
	s := &fakeSession{clusters: []compute.ClusterDetails{
		{ClusterId: "0101-abc", ClusterName: "etl", State: compute.StateRunning, DriverNodeTypeId: "i3.xlarge", NodeTypeId: "i3.large"},
		{ClusterName: "ghost", State: compute.StateTerminated},
	}}

	got, err := newToolkit(s).listClusters(context.Background(), struct{}{})
	require.NoError(t, err)

	assert.Equal(t, []toolkit.Row{{
		"cluster_id":       "0101-abc",
		"name":             "etl",
		"state":            "RUNNING",
		"driver_node_type": "i3.xlarge",
		"worker_node_type": "i3.large",
	}}, got)
}

func TestListClusters_UnsetState(t *testing.T) {
	s := &fakeSession{clusters: []compute.ClusterDetails{{ClusterId: "a"}, {ClusterId: "b"}}}

	got, err := newToolkit(s).listClusters(context.Background(), struct{}{})
	require.NoError(t, err)
	rows, ok := got.([]toolkit.Row)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["cluster_id"])
	assert.Equal(t, "b", rows[1]["cluster_id"])
	assert.Equal(t, toolkit.Unknown, rows[0]["state"])
}

func TestGetCluster(t *testing.T) {
	t.Run("autoscaling", func(t *testing.T) {
		s := &fakeSession{cluster: &compute.ClusterDetails{
			ClusterName:  "ml",
			SparkVersion: "15.4.x-scala2.12",
			State:        compute.StatePending,
			Autoscale:    &compute.AutoScale{MinWorkers: 2, MaxWorkers: 8},
		}}
		got, err := newToolkit(s).getCluster(context.Background(), clusterInput{ClusterID: "c1"})
		require.NoError(t, err)

		row, ok := got.(toolkit.Row)
		require.True(t, ok)
		assert.Equal(t, "c1", row["cluster_id"])
		assert.Equal(t, "PENDING", row["state"])
		assert.Equal(t, toolkit.Row{"min_workers": 2, "max_workers": 8}, row["autoscale"])
		assert.NotContains(t, row, "num_workers")
	})

	t.Run("fixed size", func(t *testing.T) {
		s := &fakeSession{cluster: &compute.ClusterDetails{NumWorkers: 3}}
		got, err := newToolkit(s).getCluster(context.Background(), clusterInput{ClusterID: "c2"})
		require.NoError(t, err)

		row, ok := got.(toolkit.Row)
		require.True(t, ok)
		assert.Equal(t, 3, row["num_workers"])
		assert.Equal(t, toolkit.Unknown, row["state"])
		assert.NotContains(t, row, "autoscale")
	})
}

func TestStartCluster_BlocksUntilRunning(t *testing.T) {
	s := &fakeSession{
		transitions: []compute.State{compute.StatePending, compute.StatePending, compute.StateRunning},
		pollDelay:   10 * time.Millisecond,
	}

	start := time.Now()
	got, err := newToolkit(s).startCluster(context.Background(), clusterInput{ClusterID: "c1"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, int32(3), s.polls.Load())
	assert.Equal(t, toolkit.Row{"cluster_id": "c1", "status": "STARTED", "state": "RUNNING"}, got)
}

func TestTerminateCluster_ReportsTerminalState(t *testing.T) {
	s := &fakeSession{
		transitions: []compute.State{compute.StateTerminating, compute.StateTerminated},
		pollDelay:   time.Millisecond,
	}

	got, err := newToolkit(s).terminateCluster(context.Background(), clusterInput{ClusterID: "c9"})
	require.NoError(t, err)
	assert.Equal(t, toolkit.Row{"cluster_id": "c9", "status": "TERMINATED", "state": "TERMINATED"}, got)
}

func TestLifecycle_PropagatesErrors(t *testing.T) {
	notFound := errors.Join(apierr.ErrResourceDoesNotExist, errors.New("Cluster c404 does not exist"))
	s := &fakeSession{err: notFound}

	_, err := newToolkit(s).startCluster(context.Background(), clusterInput{ClusterID: "c404"})
	require.ErrorIs(t, err, apierr.ErrResourceDoesNotExist)
}

func TestSessionFailure(t *testing.T) {
	errAuth := errors.New("verifying databricks credentials: invalid token")
	tk := New("default", Config{}, toolkit.Deps{Sessions: staticSource{err: errAuth}})

	_, err := tk.listClusters(context.Background(), struct{}{})
	require.ErrorIs(t, err, errAuth)
}

func TestEndpoints(t *testing.T) {
	tk := newToolkit(&fakeSession{})
	assert.Equal(t, Kind, tk.Kind())
	assert.Equal(t, "default", tk.Name())

	names := make([]string, 0)
	for _, e := range tk.Endpoints() {
		names = append(names, e.Meta().Name)
	}
	assert.ElementsMatch(t, []string{
		"databricks://compute/clusters",
		"databricks://compute/clusters/{cluster_id}",
		"databricks_compute_start_cluster",
		"databricks_compute_terminate_cluster",
	}, names)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"enabled":      "false",
		"descriptions": map[string]any{"start_cluster": "Boot a cluster"},
	})
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled())
	assert.Equal(t, "Boot a cluster", cfg.Descriptions["start_cluster"])

	cfg, err = ParseConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
}
