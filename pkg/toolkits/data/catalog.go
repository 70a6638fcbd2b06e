package data

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/databricks/databricks-sdk-go/service/catalog"
	"github.com/databricks/databricks-sdk-go/service/sql"

	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type catalogInput struct {
	CatalogName string `json:"catalog_name" validate:"required"`
}

type schemaInput struct {
	CatalogName string `json:"catalog_name" validate:"required"`
	SchemaName  string `json:"schema_name" validate:"required"`
}

type tableInput struct {
	CatalogName string `json:"catalog_name" validate:"required"`
	SchemaName  string `json:"schema_name" validate:"required"`
	TableName   string `json:"table_name" validate:"required"`
}

type previewInput struct {
	CatalogName string `json:"catalog_name" validate:"required"`
	SchemaName  string `json:"schema_name" validate:"required"`
	TableName   string `json:"table_name" validate:"required"`
	RowLimit    int    `json:"row_limit,omitempty" validate:"gte=0"`
}

func (t *Toolkit) listCatalogs(ctx context.Context, _ struct{}) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	catalogs, err := s.ListCatalogs(ctx)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(catalogs, func(c catalog.CatalogInfo) string { return c.Name }, func(c catalog.CatalogInfo) toolkit.Row {
		return toolkit.Row{
			"name":    c.Name,
			"comment": c.Comment,
			"owner":   c.Owner,
		}
	}), nil
}

func (t *Toolkit) listSchemas(ctx context.Context, in catalogInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	schemas, err := s.ListSchemas(ctx, in.CatalogName)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(schemas, func(sc catalog.SchemaInfo) string { return sc.Name }, func(sc catalog.SchemaInfo) toolkit.Row {
		return toolkit.Row{
			"name":         sc.Name,
			"catalog_name": sc.CatalogName,
			"comment":      sc.Comment,
			"owner":        sc.Owner,
		}
	}), nil
}

func (t *Toolkit) listTables(ctx context.Context, in schemaInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := s.ListTables(ctx, in.CatalogName, in.SchemaName)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(tables, func(tb catalog.TableInfo) string { return tb.Name }, func(tb catalog.TableInfo) toolkit.Row {
		return toolkit.Row{
			"name":         tb.Name,
			"catalog_name": tb.CatalogName,
			"schema_name":  tb.SchemaName,
			"type":         toolkit.EnumString(tb.TableType),
			"comment":      tb.Comment,
			"owner":        tb.Owner,
		}
	}), nil
}

func (t *Toolkit) getTableSchema(ctx context.Context, in tableInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	fullName := in.CatalogName + "." + in.SchemaName + "." + in.TableName
	info, err := s.GetTable(ctx, fullName)
	if err != nil {
		return nil, err
	}

	columns := make([]toolkit.Row, 0, len(info.Columns))
	for _, c := range info.Columns {
		columns = append(columns, toolkit.Row{
			"name":      c.Name,
			"type":      c.TypeText,
			"type_name": toolkit.EnumString(c.TypeName),
			"position":  c.Position,
			"nullable":  c.Nullable,
			"comment":   c.Comment,
		})
	}

	return toolkit.Row{
		"full_name": fullName,
		"type":      toolkit.EnumString(info.TableType),
		"columns":   columns,
		"comment":   info.Comment,
		"owner":     info.Owner,
	}, nil
}

func (t *Toolkit) previewTable(ctx context.Context, in previewInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	limit := toolkit.Clamp(in.RowLimit, t.config.PreviewRows, t.config.MaxPreviewRows)
	table := quoteIdent(in.CatalogName) + "." + quoteIdent(in.SchemaName) + "." + quoteIdent(in.TableName)
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)

	warehouses, err := s.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	warehouse := firstRunning(warehouses)
	if warehouse == "" {
		return nil, errcode.Invalid("warehouse", "no running SQL Warehouse found to execute the preview query")
	}

	slog.Info("previewing table", "table", table, "limit", limit, "warehouse_id", warehouse)
	resp, err := s.ExecuteStatement(ctx, sql.ExecuteStatementRequest{
		Statement:     query,
		WarehouseId:   warehouse,
		WaitTimeout:   previewWait,
		OnWaitTimeout: sql.ExecuteStatementRequestOnWaitTimeoutCancel,
		Disposition:   sql.DispositionInline,
		Format:        sql.FormatJsonArray,
	})
	if err != nil {
		return nil, err
	}

	if resp.Status == nil || resp.Status.State != sql.StatementStateSucceeded {
		return nil, errcode.Failed("previewing %s: statement state %s: %s", table, statementState(resp), failureMessage(resp))
	}

	_, rows := reshapeResult(resp.Manifest, resp.Result)
	return rows, nil
}

func firstRunning(warehouses []sql.EndpointInfo) string {
	for _, w := range warehouses {
		if w.State == sql.StateRunning && w.Id != "" {
			return w.Id
		}
	}
	return ""
}

// quoteIdent backtick-quotes a SQL identifier.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
