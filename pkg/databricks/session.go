// Package databricks provides the memoized workspace session used by every
// endpoint, the port interfaces over the Databricks SDK, and the mapping of
// SDK errors onto outward error categories.
package databricks

import (
	"context"

	"github.com/databricks/databricks-sdk-go/service/catalog"
	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/files"
	"github.com/databricks/databricks-sdk-go/service/iam"
	"github.com/databricks/databricks-sdk-go/service/jobs"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/databricks/databricks-sdk-go/service/serving"
	"github.com/databricks/databricks-sdk-go/service/sql"
	"github.com/databricks/databricks-sdk-go/service/vectorsearch"
	"github.com/databricks/databricks-sdk-go/service/workspace"
)

// Session is an authenticated handle to one Databricks workspace.
// Methods that trigger lifecycle transitions block until the remote
// operation reaches a terminal state or the wait timeout elapses.
type Session interface {
	IdentityService
	ClusterService
	CommandService
	JobService
	WarehouseService
	StatementService
	CatalogService
	ObjectService
	DBFSService
	SecretService
	MLService
	ServingService
	VectorSearchService
}

// IdentityService resolves the caller.
type IdentityService interface {
	CurrentUser(ctx context.Context) (*iam.User, error)
}

// ClusterService manages all-purpose clusters.
type ClusterService interface {
	ListClusters(ctx context.Context) ([]compute.ClusterDetails, error)
	GetCluster(ctx context.Context, clusterID string) (*compute.ClusterDetails, error)
	// StartCluster waits for RUNNING.
	StartCluster(ctx context.Context, clusterID string) (*compute.ClusterDetails, error)
	// TerminateCluster waits for TERMINATED.
	TerminateCluster(ctx context.Context, clusterID string) (*compute.ClusterDetails, error)
}

// CommandService runs code on a cluster through execution contexts.
type CommandService interface {
	// CreateCommandContext waits for the context to be running and returns its id.
	CreateCommandContext(ctx context.Context, clusterID string, language compute.Language) (string, error)
	// ExecuteCommand waits for the command to finish or fail.
	ExecuteCommand(ctx context.Context, cmd compute.Command) (*compute.CommandStatusResponse, error)
	DestroyCommandContext(ctx context.Context, clusterID, contextID string) error
}

// JobService manages jobs and runs.
type JobService interface {
	ListJobs(ctx context.Context, nameFilter string, limit int) ([]jobs.BaseJob, error)
	GetJob(ctx context.Context, jobID int64) (*jobs.Job, error)
	ListJobRuns(ctx context.Context, jobID int64, limit int) ([]jobs.BaseRun, error)
	// RunJobNow waits for the run to terminate or be skipped.
	RunJobNow(ctx context.Context, req jobs.RunNow) (*jobs.Run, error)
	// SubmitRun waits for the one-time run to terminate or be skipped.
	SubmitRun(ctx context.Context, req jobs.SubmitRun) (*jobs.Run, error)
}

// WarehouseService manages SQL warehouses.
type WarehouseService interface {
	ListWarehouses(ctx context.Context) ([]sql.EndpointInfo, error)
	// StartWarehouse waits for RUNNING.
	StartWarehouse(ctx context.Context, warehouseID string) (*sql.GetWarehouseResponse, error)
	// StopWarehouse waits for STOPPED.
	StopWarehouse(ctx context.Context, warehouseID string) (*sql.GetWarehouseResponse, error)
}

// StatementService submits and polls SQL statements.
type StatementService interface {
	ExecuteStatement(ctx context.Context, req sql.ExecuteStatementRequest) (*sql.StatementResponse, error)
	GetStatement(ctx context.Context, statementID string) (*sql.StatementResponse, error)
}

// CatalogService reads Unity Catalog metadata.
type CatalogService interface {
	ListCatalogs(ctx context.Context) ([]catalog.CatalogInfo, error)
	ListSchemas(ctx context.Context, catalogName string) ([]catalog.SchemaInfo, error)
	ListTables(ctx context.Context, catalogName, schemaName string) ([]catalog.TableInfo, error)
	GetTable(ctx context.Context, fullName string) (*catalog.TableInfo, error)
}

// ObjectService reads workspace objects and repos.
type ObjectService interface {
	ListObjects(ctx context.Context, path string) ([]workspace.ObjectInfo, error)
	GetObjectStatus(ctx context.Context, path string) (*workspace.ObjectInfo, error)
	// ExportObject exports in SOURCE format; content is base64.
	ExportObject(ctx context.Context, path string) (*workspace.ExportResponse, error)
	ListRepos(ctx context.Context) ([]workspace.RepoInfo, error)
	GetRepo(ctx context.Context, repoID int64) (*workspace.GetRepoResponse, error)
}

// DBFSService reads and writes DBFS.
type DBFSService interface {
	ListFiles(ctx context.Context, path string) ([]files.FileInfo, error)
	ReadFile(ctx context.Context, path string, offset, length int64) (*files.ReadResponse, error)
	PutFile(ctx context.Context, path, contentsBase64 string, overwrite bool) error
	DeleteFile(ctx context.Context, path string, recursive bool) error
	MakeDirs(ctx context.Context, path string) error
}

// SecretService manages secret scopes and secrets.
type SecretService interface {
	ListSecretScopes(ctx context.Context) ([]workspace.SecretScope, error)
	ListSecrets(ctx context.Context, scope string) ([]workspace.SecretMetadata, error)
	// GetSecret returns the value base64 encoded.
	GetSecret(ctx context.Context, scope, key string) (*workspace.GetSecretResponse, error)
	PutSecret(ctx context.Context, scope, key, value string) error
	DeleteSecret(ctx context.Context, scope, key string) error
}

// MLService reads MLflow tracking and the workspace model registry.
type MLService interface {
	ListExperiments(ctx context.Context, maxResults int) ([]ml.Experiment, error)
	SearchRuns(ctx context.Context, experimentID, filter string, maxResults int) ([]ml.Run, error)
	GetRun(ctx context.Context, runID string) (*ml.Run, error)
	SearchModels(ctx context.Context, filter string, maxResults int) ([]ml.Model, error)
	GetModelVersion(ctx context.Context, name, version string) (*ml.ModelVersion, error)
}

// ServingService queries model serving endpoints.
type ServingService interface {
	QueryServingEndpoint(ctx context.Context, req serving.QueryEndpointInput) (*serving.QueryEndpointResponse, error)
}

// VectorSearchService reads and writes vector search indexes.
type VectorSearchService interface {
	ListVectorEndpoints(ctx context.Context) ([]vectorsearch.EndpointInfo, error)
	ListVectorIndexes(ctx context.Context, endpointName string) ([]vectorsearch.MiniVectorIndex, error)
	QueryVectorIndex(ctx context.Context, req vectorsearch.QueryVectorIndexRequest) (*vectorsearch.QueryVectorIndexResponse, error)
	UpsertVectorIndex(ctx context.Context, indexName, inputsJSON string) (*vectorsearch.UpsertDataVectorIndexResponse, error)
}

// Source hands out the session. Handlers depend on this rather than on the
// concrete Provider.
type Source interface {
	Session(ctx context.Context) (Session, error)
}
