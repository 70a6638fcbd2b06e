package compute

import (
	"context"
	"log/slog"

	"github.com/databricks/databricks-sdk-go/service/compute"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type clusterInput struct {
	ClusterID string `json:"cluster_id" jsonschema:"The unique identifier of the cluster" validate:"required"`
}

func (t *Toolkit) listClusters(ctx context.Context, _ struct{}) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	clusters, err := s.ListClusters(ctx)
	if err != nil {
		return nil, err
	}

	rows := toolkit.Reshape(clusters, clusterID, clusterSummary)
	slog.Debug("listed clusters", "count", len(rows))
	return rows, nil
}

func (t *Toolkit) getCluster(ctx context.Context, in clusterInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.GetCluster(ctx, in.ClusterID)
	if err != nil {
		return nil, err
	}

	details := toolkit.Row{
		"cluster_id":              c.ClusterId,
		"cluster_name":            c.ClusterName,
		"creator_user_name":       c.CreatorUserName,
		"spark_version":           c.SparkVersion,
		"node_type_id":            c.NodeTypeId,
		"driver_node_type_id":     c.DriverNodeTypeId,
		"autotermination_minutes": c.AutoterminationMinutes,
		"state":                   toolkit.EnumString(c.State),
		"state_message":           c.StateMessage,
	}
	if c.Autoscale != nil {
		details["autoscale"] = toolkit.Row{
			"min_workers": c.Autoscale.MinWorkers,
			"max_workers": c.Autoscale.MaxWorkers,
		}
	} else {
		details["num_workers"] = c.NumWorkers
	}
	return details, nil
}

func (t *Toolkit) startCluster(ctx context.Context, in clusterInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("starting cluster", "cluster_id", in.ClusterID)
	c, err := toolkit.Wait(ctx, "starting cluster "+in.ClusterID, func(ctx context.Context) (*compute.ClusterDetails, error) {
		return s.StartCluster(ctx, in.ClusterID)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("cluster started", "cluster_id", in.ClusterID)
	return lifecycleResult(in.ClusterID, "STARTED", c), nil
}

func (t *Toolkit) terminateCluster(ctx context.Context, in clusterInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("terminating cluster", "cluster_id", in.ClusterID)
	c, err := toolkit.Wait(ctx, "terminating cluster "+in.ClusterID, func(ctx context.Context) (*compute.ClusterDetails, error) {
		return s.TerminateCluster(ctx, in.ClusterID)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("cluster terminated", "cluster_id", in.ClusterID)
	return lifecycleResult(in.ClusterID, "TERMINATED", c), nil
}

func lifecycleResult(clusterID, status string, c *compute.ClusterDetails) toolkit.Row {
	state := toolkit.Unknown
	if c != nil {
		state = toolkit.EnumString(c.State)
	}
	return toolkit.Row{
		"cluster_id": clusterID,
		"status":     status,
		"state":      state,
	}
}

func clusterID(c compute.ClusterDetails) string { return c.ClusterId }

func clusterSummary(c compute.ClusterDetails) toolkit.Row {
	return toolkit.Row{
		"cluster_id":       c.ClusterId,
		"name":             c.ClusterName,
		"state":            toolkit.EnumString(c.State),
		"driver_node_type": c.DriverNodeTypeId,
		"worker_node_type": c.NodeTypeId,
	}
}
