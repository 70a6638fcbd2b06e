// Package data exposes SQL warehouse, statement execution and Unity Catalog
// endpoints.
package data

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "data"

const (
	// DefaultPreviewRows is the preview row count when none is requested.
	DefaultPreviewRows = 100
	// MaxPreviewRows caps the preview row count.
	MaxPreviewRows = 1000
	// previewWait is how long a preview statement may run before it is
	// reported as not finished.
	previewWait = "50s"
)

// Config holds data toolkit configuration.
type Config struct {
	toolkit.Config `yaml:",inline"`

	PreviewRows    int `yaml:"preview_rows"`
	MaxPreviewRows int `yaml:"max_preview_rows"`
}

// ParseConfig decodes a raw config section and applies defaults.
func ParseConfig(raw map[string]any) (Config, error) {
	var c Config
	if err := toolkit.DecodeConfig(raw, &c); err != nil {
		return Config{}, err //nolint:wrapcheck // already wrapped
	}
	return applyDefaults(c), nil
}

func applyDefaults(c Config) Config {
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.MaxPreviewRows <= 0 {
		c.MaxPreviewRows = MaxPreviewRows
	}
	return c
}

// Toolkit serves SQL and catalog endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates a data toolkit.
func New(name string, cfg Config, deps toolkit.Deps) *Toolkit {
	return &Toolkit{name: name, config: applyDefaults(cfg), deps: deps}
}

// Kind returns the toolkit kind.
func (t *Toolkit) Kind() string { return Kind }

// Name returns the instance name.
func (t *Toolkit) Name() string { return t.name }

// Descriptions returns configured description overrides.
func (t *Toolkit) Descriptions() map[string]string { return t.config.Descriptions }

// Close releases resources.
func (t *Toolkit) Close() error { return nil }

// Endpoints returns the data dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[struct{}]{
			URI:         "databricks://sql/warehouses",
			Name:        "warehouses",
			Description: "Lists available Databricks SQL Warehouses.",
			Handler:     t.listWarehouses,
		},
		toolkit.Tool[executeInput]{
			Name:  "databricks_data_execute_statement",
			Title: "Execute SQL statement",
			Description: "Submits a SQL query for asynchronous execution against a SQL Warehouse. " +
				"Returns a statement_id; poll databricks_data_get_statement_result for the outcome.",
			Handler: t.executeStatement,
		},
		toolkit.Tool[statementInput]{
			Name:  "databricks_data_get_statement_result",
			Title: "Get SQL statement result",
			Description: "Retrieves the status and, once SUCCEEDED, the rows of a statement " +
				"submitted with databricks_data_execute_statement.",
			ReadOnly: true,
			Handler:  t.getStatementResult,
		},
		toolkit.Tool[warehouseInput]{
			Name:        "databricks_data_start_warehouse",
			Title:       "Start SQL warehouse",
			Description: "Starts a stopped SQL Warehouse and waits until it is RUNNING.",
			Idempotent:  true,
			Handler:     t.startWarehouse,
		},
		toolkit.Tool[warehouseInput]{
			Name:        "databricks_data_stop_warehouse",
			Title:       "Stop SQL warehouse",
			Description: "Stops a running SQL Warehouse and waits until it is STOPPED.",
			Destructive: true,
			Idempotent:  true,
			Handler:     t.stopWarehouse,
		},
		toolkit.Resource[struct{}]{
			URI:         "databricks://uc/catalogs",
			Name:        "catalogs",
			Description: "Lists Unity Catalog catalogs accessible by the current user.",
			Handler:     t.listCatalogs,
		},
		toolkit.Resource[catalogInput]{
			URI:         "databricks://uc/catalogs/{catalog_name}/schemas",
			Name:        "schemas",
			Description: "Lists schemas within a Unity Catalog catalog.",
			Handler:     t.listSchemas,
		},
		toolkit.Resource[schemaInput]{
			URI:         "databricks://uc/catalogs/{catalog_name}/schemas/{schema_name}/tables",
			Name:        "tables",
			Description: "Lists tables and views within a schema.",
			Handler:     t.listTables,
		},
		toolkit.Resource[tableInput]{
			URI:         "databricks://uc/tables/{catalog_name}/{schema_name}/{table_name}",
			Name:        "table_schema",
			Description: "Retrieves the columns and types of a table or view.",
			Handler:     t.getTableSchema,
		},
		toolkit.Resource[previewInput]{
			URI:  "databricks://uc/tables/{catalog_name}/{schema_name}/{table_name}/preview{?row_limit}",
			Name: "table_preview",
			Description: "Retrieves the first rows of a table using the first RUNNING SQL Warehouse " +
				"(row_limit defaults to 100, at most 1000).",
			Handler: t.previewTable,
		},
	}
}
