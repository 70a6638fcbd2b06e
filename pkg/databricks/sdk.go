package databricks

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/listing"
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

// Connect builds a session backed by the Databricks SDK workspace client.
func Connect(_ context.Context, cfg Config) (Session, error) {
	w, err := sdk.NewWorkspaceClient(&sdk.Config{
		Host:    cfg.Host,
		Token:   cfg.Token,
		Profile: cfg.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("creating workspace client: %w", err)
	}

	wait := cfg.WaitTimeout
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	return &sdkSession{w: w, wait: wait}, nil
}

// sdkSession implements Session over *sdk.WorkspaceClient. SDK errors are
// returned unwrapped so the classifier sees the SDK's own error types.
//
//nolint:wrapcheck // see above
type sdkSession struct {
	w    *sdk.WorkspaceClient
	wait time.Duration
}

func (s *sdkSession) CurrentUser(ctx context.Context) (*iam.User, error) {
	return s.w.CurrentUser.Me(ctx)
}

// Clusters.

func (s *sdkSession) ListClusters(ctx context.Context) ([]compute.ClusterDetails, error) {
	return s.w.Clusters.ListAll(ctx, compute.ListClustersRequest{})
}

func (s *sdkSession) GetCluster(ctx context.Context, clusterID string) (*compute.ClusterDetails, error) {
	return s.w.Clusters.GetByClusterId(ctx, clusterID)
}

func (s *sdkSession) StartCluster(ctx context.Context, clusterID string) (*compute.ClusterDetails, error) {
	wait, err := s.w.Clusters.Start(ctx, compute.StartCluster{ClusterId: clusterID})
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

func (s *sdkSession) TerminateCluster(ctx context.Context, clusterID string) (*compute.ClusterDetails, error) {
	wait, err := s.w.Clusters.Delete(ctx, compute.DeleteCluster{ClusterId: clusterID})
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

// Command execution.

func (s *sdkSession) CreateCommandContext(ctx context.Context, clusterID string, language compute.Language) (string, error) {
	wait, err := s.w.CommandExecution.Create(ctx, compute.CreateContext{
		ClusterId: clusterID,
		Language:  language,
	})
	if err != nil {
		return "", err
	}
	status, err := wait.GetWithTimeout(s.wait)
	if err != nil {
		return "", err
	}
	return status.Id, nil
}

func (s *sdkSession) ExecuteCommand(ctx context.Context, cmd compute.Command) (*compute.CommandStatusResponse, error) {
	wait, err := s.w.CommandExecution.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

func (s *sdkSession) DestroyCommandContext(ctx context.Context, clusterID, contextID string) error {
	return s.w.CommandExecution.Destroy(ctx, compute.DestroyContext{
		ClusterId: clusterID,
		ContextId: contextID,
	})
}

// Jobs.

func (s *sdkSession) ListJobs(ctx context.Context, nameFilter string, limit int) ([]jobs.BaseJob, error) {
	return collect(ctx, s.w.Jobs.List(ctx, jobs.ListJobsRequest{Name: nameFilter}), limit)
}

func (s *sdkSession) GetJob(ctx context.Context, jobID int64) (*jobs.Job, error) {
	return s.w.Jobs.GetByJobId(ctx, jobID)
}

func (s *sdkSession) ListJobRuns(ctx context.Context, jobID int64, limit int) ([]jobs.BaseRun, error) {
	return collect(ctx, s.w.Jobs.ListRuns(ctx, jobs.ListRunsRequest{JobId: jobID}), limit)
}

func (s *sdkSession) RunJobNow(ctx context.Context, req jobs.RunNow) (*jobs.Run, error) {
	wait, err := s.w.Jobs.RunNow(ctx, req)
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

func (s *sdkSession) SubmitRun(ctx context.Context, req jobs.SubmitRun) (*jobs.Run, error) {
	wait, err := s.w.Jobs.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

// Warehouses and statements.

func (s *sdkSession) ListWarehouses(ctx context.Context) ([]sql.EndpointInfo, error) {
	return s.w.Warehouses.ListAll(ctx, sql.ListWarehousesRequest{})
}

func (s *sdkSession) StartWarehouse(ctx context.Context, warehouseID string) (*sql.GetWarehouseResponse, error) {
	wait, err := s.w.Warehouses.Start(ctx, sql.StartRequest{Id: warehouseID})
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

func (s *sdkSession) StopWarehouse(ctx context.Context, warehouseID string) (*sql.GetWarehouseResponse, error) {
	wait, err := s.w.Warehouses.Stop(ctx, sql.StopRequest{Id: warehouseID})
	if err != nil {
		return nil, err
	}
	return wait.GetWithTimeout(s.wait)
}

func (s *sdkSession) ExecuteStatement(ctx context.Context, req sql.ExecuteStatementRequest) (*sql.StatementResponse, error) {
	return s.w.StatementExecution.ExecuteStatement(ctx, req)
}

func (s *sdkSession) GetStatement(ctx context.Context, statementID string) (*sql.StatementResponse, error) {
	return s.w.StatementExecution.GetStatement(ctx, sql.GetStatementRequest{StatementId: statementID})
}

// Unity Catalog.

func (s *sdkSession) ListCatalogs(ctx context.Context) ([]catalog.CatalogInfo, error) {
	return s.w.Catalogs.ListAll(ctx, catalog.ListCatalogsRequest{})
}

func (s *sdkSession) ListSchemas(ctx context.Context, catalogName string) ([]catalog.SchemaInfo, error) {
	return s.w.Schemas.ListAll(ctx, catalog.ListSchemasRequest{CatalogName: catalogName})
}

func (s *sdkSession) ListTables(ctx context.Context, catalogName, schemaName string) ([]catalog.TableInfo, error) {
	return s.w.Tables.ListAll(ctx, catalog.ListTablesRequest{
		CatalogName: catalogName,
		SchemaName:  schemaName,
	})
}

func (s *sdkSession) GetTable(ctx context.Context, fullName string) (*catalog.TableInfo, error) {
	return s.w.Tables.Get(ctx, catalog.GetTableRequest{FullName: fullName})
}

// Workspace objects and repos.

func (s *sdkSession) ListObjects(ctx context.Context, path string) ([]workspace.ObjectInfo, error) {
	return s.w.Workspace.ListAll(ctx, workspace.ListWorkspaceRequest{Path: path})
}

func (s *sdkSession) GetObjectStatus(ctx context.Context, path string) (*workspace.ObjectInfo, error) {
	return s.w.Workspace.GetStatus(ctx, workspace.GetStatusRequest{Path: path})
}

func (s *sdkSession) ExportObject(ctx context.Context, path string) (*workspace.ExportResponse, error) {
	return s.w.Workspace.Export(ctx, workspace.ExportRequest{
		Path:   path,
		Format: workspace.ExportFormatSource,
	})
}

func (s *sdkSession) ListRepos(ctx context.Context) ([]workspace.RepoInfo, error) {
	return s.w.Repos.ListAll(ctx, workspace.ListReposRequest{})
}

func (s *sdkSession) GetRepo(ctx context.Context, repoID int64) (*workspace.GetRepoResponse, error) {
	return s.w.Repos.Get(ctx, workspace.GetRepoRequest{RepoId: repoID})
}

// DBFS.

func (s *sdkSession) ListFiles(ctx context.Context, path string) ([]files.FileInfo, error) {
	return s.w.Dbfs.ListAll(ctx, files.ListDbfsRequest{Path: path})
}

func (s *sdkSession) ReadFile(ctx context.Context, path string, offset, length int64) (*files.ReadResponse, error) {
	req := files.ReadDbfsRequest{Path: path}
	setInt(&req.Offset, offset)
	setInt(&req.Length, length)
	return s.w.Dbfs.Read(ctx, req)
}

func (s *sdkSession) PutFile(ctx context.Context, path, contentsBase64 string, overwrite bool) error {
	return s.w.Dbfs.Put(ctx, files.Put{
		Path:      path,
		Contents:  contentsBase64,
		Overwrite: overwrite,
	})
}

func (s *sdkSession) DeleteFile(ctx context.Context, path string, recursive bool) error {
	return s.w.Dbfs.Delete(ctx, files.Delete{Path: path, Recursive: recursive})
}

func (s *sdkSession) MakeDirs(ctx context.Context, path string) error {
	return s.w.Dbfs.Mkdirs(ctx, files.MkDirs{Path: path})
}

// Secrets.

func (s *sdkSession) ListSecretScopes(ctx context.Context) ([]workspace.SecretScope, error) {
	return s.w.Secrets.ListScopesAll(ctx)
}

func (s *sdkSession) ListSecrets(ctx context.Context, scope string) ([]workspace.SecretMetadata, error) {
	return s.w.Secrets.ListSecretsAll(ctx, workspace.ListSecretsRequest{Scope: scope})
}

func (s *sdkSession) GetSecret(ctx context.Context, scope, key string) (*workspace.GetSecretResponse, error) {
	return s.w.Secrets.GetSecret(ctx, workspace.GetSecretRequest{Scope: scope, Key: key})
}

func (s *sdkSession) PutSecret(ctx context.Context, scope, key, value string) error {
	return s.w.Secrets.PutSecret(ctx, workspace.PutSecret{
		Scope:       scope,
		Key:         key,
		StringValue: value,
	})
}

func (s *sdkSession) DeleteSecret(ctx context.Context, scope, key string) error {
	return s.w.Secrets.DeleteSecret(ctx, workspace.DeleteSecret{Scope: scope, Key: key})
}

// MLflow and model registry.

func (s *sdkSession) ListExperiments(ctx context.Context, maxResults int) ([]ml.Experiment, error) {
	return collect(ctx, s.w.Experiments.ListExperiments(ctx, ml.ListExperimentsRequest{}), maxResults)
}

func (s *sdkSession) SearchRuns(ctx context.Context, experimentID, filter string, maxResults int) ([]ml.Run, error) {
	return collect(ctx, s.w.Experiments.SearchRuns(ctx, ml.SearchRuns{
		ExperimentIds: []string{experimentID},
		Filter:        filter,
	}), maxResults)
}

func (s *sdkSession) GetRun(ctx context.Context, runID string) (*ml.Run, error) {
	resp, err := s.w.Experiments.GetRun(ctx, ml.GetRunRequest{RunId: runID})
	if err != nil {
		return nil, err
	}
	return resp.Run, nil
}

func (s *sdkSession) SearchModels(ctx context.Context, filter string, maxResults int) ([]ml.Model, error) {
	return collect(ctx, s.w.ModelRegistry.SearchModels(ctx, ml.SearchModelsRequest{Filter: filter}), maxResults)
}

func (s *sdkSession) GetModelVersion(ctx context.Context, name, version string) (*ml.ModelVersion, error) {
	resp, err := s.w.ModelRegistry.GetModelVersion(ctx, ml.GetModelVersionRequest{
		Name:    name,
		Version: version,
	})
	if err != nil {
		return nil, err
	}
	return resp.ModelVersion, nil
}

// Serving and vector search.

func (s *sdkSession) QueryServingEndpoint(ctx context.Context, req serving.QueryEndpointInput) (*serving.QueryEndpointResponse, error) {
	return s.w.ServingEndpoints.Query(ctx, req)
}

func (s *sdkSession) ListVectorEndpoints(ctx context.Context) ([]vectorsearch.EndpointInfo, error) {
	return s.w.VectorSearchEndpoints.ListEndpointsAll(ctx, vectorsearch.ListEndpointsRequest{})
}

func (s *sdkSession) ListVectorIndexes(ctx context.Context, endpointName string) ([]vectorsearch.MiniVectorIndex, error) {
	return s.w.VectorSearchIndexes.ListIndexesAll(ctx, vectorsearch.ListIndexesRequest{EndpointName: endpointName})
}

func (s *sdkSession) QueryVectorIndex(ctx context.Context, req vectorsearch.QueryVectorIndexRequest) (*vectorsearch.QueryVectorIndexResponse, error) {
	return s.w.VectorSearchIndexes.QueryIndex(ctx, req)
}

func (s *sdkSession) UpsertVectorIndex(ctx context.Context, indexName, inputsJSON string) (*vectorsearch.UpsertDataVectorIndexResponse, error) {
	return s.w.VectorSearchIndexes.UpsertDataVectorIndex(ctx, vectorsearch.UpsertDataVectorIndexRequest{
		IndexName:  indexName,
		InputsJson: inputsJSON,
	})
}

// collect drains it, stopping after limit items when limit is positive.
func collect[T any](ctx context.Context, it listing.Iterator[T], limit int) ([]T, error) {
	var out []T
	for (limit <= 0 || len(out) < limit) && it.HasNext(ctx) {
		v, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// setInt assigns v to an SDK integer field whose width varies by request type.
func setInt[T ~int | ~int64](dst *T, v int64) {
	*dst = T(v)
}

// Verify interface compliance.
var _ Session = (*sdkSession)(nil)
