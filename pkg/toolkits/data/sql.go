package data

import (
	"context"
	"log/slog"

	"github.com/databricks/databricks-sdk-go/service/sql"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type executeInput struct {
	SQLQuery    string `json:"sql_query" jsonschema:"The SQL query text to execute" validate:"required"`
	WarehouseID string `json:"warehouse_id" jsonschema:"The ID of the SQL Warehouse to run the query on" validate:"required"`
	Catalog     string `json:"catalog,omitempty" jsonschema:"Optional catalog context for the query"`
	Schema      string `json:"schema,omitempty" jsonschema:"Optional schema context for the query"`
}

type statementInput struct {
	StatementID string `json:"statement_id" jsonschema:"The ID of a previously submitted statement" validate:"required"`
}

type warehouseInput struct {
	WarehouseID string `json:"warehouse_id" jsonschema:"The unique identifier of the SQL Warehouse" validate:"required"`
}

func (t *Toolkit) listWarehouses(ctx context.Context, _ struct{}) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(warehouses, warehouseID, func(w sql.EndpointInfo) toolkit.Row {
		return toolkit.Row{
			"id":           w.Id,
			"name":         w.Name,
			"state":        toolkit.EnumString(w.State),
			"cluster_size": w.ClusterSize,
			"num_clusters": w.NumClusters,
			"creator_name": w.CreatorName,
		}
	}), nil
}

// executeStatement submits without waiting; the caller polls for the result.
func (t *Toolkit) executeStatement(ctx context.Context, in executeInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("submitting statement",
		"warehouse_id", in.WarehouseID,
		"catalog", in.Catalog,
		"schema", in.Schema,
		"query", truncate(in.SQLQuery, 100))

	resp, err := s.ExecuteStatement(ctx, sql.ExecuteStatementRequest{
		Statement:     in.SQLQuery,
		WarehouseId:   in.WarehouseID,
		Catalog:       in.Catalog,
		Schema:        in.Schema,
		WaitTimeout:   "0s",
		OnWaitTimeout: sql.ExecuteStatementRequestOnWaitTimeoutContinue,
		Disposition:   sql.DispositionInline,
		Format:        sql.FormatJsonArray,
	})
	if err != nil {
		return nil, err
	}

	status := statementState(resp)
	slog.Info("statement submitted", "statement_id", resp.StatementId, "status", status)
	return toolkit.Row{
		"statement_id": resp.StatementId,
		"status":       status,
	}, nil
}

func (t *Toolkit) getStatementResult(ctx context.Context, in statementInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.GetStatement(ctx, in.StatementID)
	if err != nil {
		return nil, err
	}

	out := toolkit.Row{
		"statement_id":  in.StatementID,
		"status":        statementState(resp),
		"schema":        nil,
		"result_data":   nil,
		"error_message": nil,
	}

	switch {
	case resp.Status != nil && resp.Status.State == sql.StatementStateSucceeded:
		columns, rows := reshapeResult(resp.Manifest, resp.Result)
		out["schema"] = columns
		out["result_data"] = rows
	case resp.Status != nil && resp.Status.State == sql.StatementStateFailed:
		msg := failureMessage(resp)
		slog.Warn("statement failed", "statement_id", in.StatementID, "error", msg)
		out["error_message"] = msg
	}
	return out, nil
}

func (t *Toolkit) startWarehouse(ctx context.Context, in warehouseInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("starting warehouse", "warehouse_id", in.WarehouseID)
	w, err := toolkit.Wait(ctx, "starting warehouse "+in.WarehouseID, func(ctx context.Context) (*sql.GetWarehouseResponse, error) {
		return s.StartWarehouse(ctx, in.WarehouseID)
	})
	if err != nil {
		return nil, err
	}
	return warehouseResult(in.WarehouseID, "STARTED", w), nil
}

func (t *Toolkit) stopWarehouse(ctx context.Context, in warehouseInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("stopping warehouse", "warehouse_id", in.WarehouseID)
	w, err := toolkit.Wait(ctx, "stopping warehouse "+in.WarehouseID, func(ctx context.Context) (*sql.GetWarehouseResponse, error) {
		return s.StopWarehouse(ctx, in.WarehouseID)
	})
	if err != nil {
		return nil, err
	}
	return warehouseResult(in.WarehouseID, "STOPPED", w), nil
}

func warehouseResult(id, status string, w *sql.GetWarehouseResponse) toolkit.Row {
	state := toolkit.Unknown
	if w != nil {
		state = toolkit.EnumString(w.State)
	}
	return toolkit.Row{
		"warehouse_id": id,
		"status":       status,
		"state":        state,
	}
}

func warehouseID(w sql.EndpointInfo) string { return w.Id }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
