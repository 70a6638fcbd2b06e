package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/databricks"
	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type nilSource struct{}

func (nilSource) Session(context.Context) (databricks.Session, error) {
	return nil, errcode.Denied("no session in tests")
}

func builtinLoader() (*Registry, *Loader) {
	reg := NewRegistry()
	RegisterBuiltinFactories(reg)
	return reg, NewLoader(reg, toolkit.Deps{Sessions: nilSource{}, SecretRead: toolkit.NewFlag(false)})
}

func TestLoader_DefaultsEnableEveryKind(t *testing.T) {
	reg, loader := builtinLoader()

	if err := loader.Load(nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(reg.All()) != 7 {
		t.Errorf("All() = %d toolkits, want 7", len(reg.All()))
	}
	if _, ok := reg.Get("secrets", DefaultInstance); !ok {
		t.Error("secrets toolkit not loaded")
	}
}

func TestLoader_DisabledKind(t *testing.T) {
	reg, loader := builtinLoader()

	err := loader.Load(map[string]map[string]any{
		"secrets": {"enabled": false},
		"ml":      {"enabled": "false"},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := reg.Get("secrets", DefaultInstance); ok {
		t.Error("disabled secrets toolkit was loaded")
	}
	if _, ok := reg.Get("ml", DefaultInstance); ok {
		t.Error("disabled ml toolkit was loaded")
	}
	if len(reg.All()) != 5 {
		t.Errorf("All() = %d toolkits, want 5", len(reg.All()))
	}
}

func TestLoader_UnknownKind(t *testing.T) {
	_, loader := builtinLoader()

	err := loader.Load(map[string]map[string]any{"trino": {}})
	if err == nil || !strings.Contains(err.Error(), "unknown toolkit kind: trino") {
		t.Errorf("Load() error = %v, want unknown kind", err)
	}
}

func TestLoader_BadConfig(t *testing.T) {
	_, loader := builtinLoader()

	err := loader.Load(map[string]map[string]any{"data": {"preview_rows": "lots"}})
	if err == nil {
		t.Error("Load() expected decode error")
	}
}

func TestLoader_EndpointsRegisterWithoutConflicts(t *testing.T) {
	reg, loader := builtinLoader()
	if err := loader.Load(nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	d := toolkit.NewDispatcher(errcode.NewClassifier())
	if err := reg.RegisterAll(server, d); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	for _, name := range []string{
		"databricks_compute_start_cluster",
		"databricks_data_execute_statement",
		"databricks_files_read",
		"databricks_jobs_run_now",
		"databricks_ml_vector_query",
		"databricks_secrets_get_secret",
		"databricks_workspace_execute_code",
		"databricks://uc/catalogs",
	} {
		if _, ok := d.Lookup(name); !ok {
			t.Errorf("endpoint %s not registered", name)
		}
	}
}
