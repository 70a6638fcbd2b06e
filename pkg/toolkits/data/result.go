package data

import (
	"strconv"

	"github.com/databricks/databricks-sdk-go/service/sql"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

func statementState(resp *sql.StatementResponse) string {
	if resp == nil || resp.Status == nil {
		return toolkit.Unknown
	}
	return toolkit.EnumString(resp.Status.State)
}

func failureMessage(resp *sql.StatementResponse) string {
	if resp.Status != nil && resp.Status.Error != nil && resp.Status.Error.Message != "" {
		return resp.Status.Error.Message
	}
	return "Unknown error"
}

// reshapeResult turns the columnar manifest and raw row arrays into one map
// per row keyed by column name. Values without a named column are keyed
// col_<n> by position.
func reshapeResult(manifest *sql.ResultManifest, data *sql.ResultData) ([]toolkit.Row, []toolkit.Row) {
	var columns []sql.ColumnInfo
	if manifest != nil && manifest.Schema != nil {
		columns = manifest.Schema.Columns
	}

	schema := make([]toolkit.Row, 0, len(columns))
	for _, c := range columns {
		schema = append(schema, toolkit.Row{
			"name":      c.Name,
			"type_name": toolkit.EnumString(c.TypeName),
			"type_text": c.TypeText,
			"position":  c.Position,
		})
	}

	if data == nil {
		return schema, []toolkit.Row{}
	}

	rows := make([]toolkit.Row, 0, len(data.DataArray))
	for _, values := range data.DataArray {
		row := make(toolkit.Row, len(values))
		for i, v := range values {
			row[columnName(columns, i)] = v
		}
		rows = append(rows, row)
	}
	return schema, rows
}

func columnName(columns []sql.ColumnInfo, i int) string {
	if i < len(columns) && columns[i].Name != "" {
		return columns[i].Name
	}
	return "col_" + strconv.Itoa(i)
}
