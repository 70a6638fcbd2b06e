//go:build integration

package migrate

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/txn2/mcp-databricks/pkg/audit"
	auditpostgres "github.com/txn2/mcp-databricks/pkg/audit/postgres"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("audit"),
		postgres.WithUsername("mcp"),
		postgres.WithPassword("mcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func auditTableExists(t *testing.T, db *sql.DB) bool {
	t.Helper()
	var ok bool
	require.NoError(t, db.QueryRow(
		`SELECT to_regclass('public.audit_logs') IS NOT NULL`,
	).Scan(&ok))
	return ok
}

func requireVersion(t *testing.T, db *sql.DB, want uint) {
	t.Helper()
	v, dirty, err := Version(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, want, v)
}

func TestSchemaLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	db := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, Run(db))
	require.True(t, auditTableExists(t, db))
	requireVersion(t, db, 2)

	// a second run is a no-op
	require.NoError(t, Run(db))
	requireVersion(t, db, 2)

	store := auditpostgres.New(db, auditpostgres.Config{})
	ev := audit.NewEvent("databricks_compute_start_cluster").
		WithToolkit("compute").
		WithParameters(map[string]any{"cluster_id": "0101-abc"}).
		WithResult(false, "not_found", "ResourceDoesNotExist: gone", 12)
	require.NoError(t, store.Log(ctx, *ev))

	got, err := store.Query(ctx, audit.QueryFilter{ErrorCategory: "not_found"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "compute", got[0].ToolkitKind)
	assert.Equal(t, "0101-abc", got[0].Parameters["cluster_id"])

	require.NoError(t, Steps(db, -1))
	requireVersion(t, db, 1)

	require.NoError(t, Down(db))
	assert.False(t, auditTableExists(t, db))

	require.NoError(t, Steps(db, 2))
	requireVersion(t, db, 2)
}
