package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/databricks/databricks-sdk-go/service/vectorsearch"
	"github.com/tidwall/gjson"

	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type vectorIndexesInput struct {
	EndpointName string `json:"endpoint_name" validate:"required"`
}

type upsertInput struct {
	IndexName  string           `json:"index_name" jsonschema:"Full name of the index, e.g. catalog.schema.index" validate:"required"`
	PrimaryKey string           `json:"primary_key" jsonschema:"Name of the primary key column" validate:"required"`
	Documents  []map[string]any `json:"documents" jsonschema:"Documents to add or update" validate:"required,min=1"`
}

type vectorQueryInput struct {
	IndexName   string    `json:"index_name" jsonschema:"Full name of the index, e.g. catalog.schema.index" validate:"required"`
	Columns     []string  `json:"columns" jsonschema:"Columns to include in the results" validate:"required,min=1"`
	QueryVector []float64 `json:"query_vector,omitempty" jsonschema:"Query embedding"`
	QueryText   string    `json:"query_text,omitempty" jsonschema:"Query text embedded by the index's model"`
	NumResults  int       `json:"num_results,omitempty" jsonschema:"Number of results (default 10)" validate:"gte=0"`
	FiltersJSON string    `json:"filters_json,omitempty" jsonschema:"JSON object of column filters"`
	QueryType   string    `json:"query_type,omitempty" jsonschema:"ANN (default) or HYBRID"`
}

func (t *Toolkit) listVectorEndpoints(ctx context.Context, _ struct{}) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.ListVectorEndpoints(ctx)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(list, func(e vectorsearch.EndpointInfo) string { return e.Name }, func(e vectorsearch.EndpointInfo) toolkit.Row {
		row := toolkit.Row{
			"name":          e.Name,
			"creator":       e.Creator,
			"endpoint_type": toolkit.EnumString(e.EndpointType),
			"state":         toolkit.Unknown,
			"num_indexes":   e.NumIndexes,
		}
		if e.EndpointStatus != nil {
			row["state"] = toolkit.EnumString(e.EndpointStatus.State)
		}
		return row
	}), nil
}

func (t *Toolkit) listVectorIndexes(ctx context.Context, in vectorIndexesInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.ListVectorIndexes(ctx, in.EndpointName)
	if err != nil {
		return nil, err
	}

	return toolkit.Reshape(list, func(i vectorsearch.MiniVectorIndex) string { return i.Name }, func(i vectorsearch.MiniVectorIndex) toolkit.Row {
		return toolkit.Row{
			"name":          i.Name,
			"endpoint_name": i.EndpointName,
			"index_type":    toolkit.EnumString(i.IndexType),
			"primary_key":   i.PrimaryKey,
			"creator":       i.Creator,
		}
	}), nil
}

func (t *Toolkit) vectorUpsert(ctx context.Context, in upsertInput) (any, error) {
	for i, doc := range in.Documents {
		if _, ok := doc[in.PrimaryKey]; !ok {
			return nil, errcode.Invalid("documents", "document %d has no %q field", i, in.PrimaryKey)
		}
	}
	inputs, err := json.Marshal(in.Documents)
	if err != nil {
		return nil, errcode.Invalid("documents", "cannot be encoded: %v", err)
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("upserting vector index", "index", in.IndexName, "documents", len(in.Documents))
	resp, err := s.UpsertVectorIndex(ctx, in.IndexName, string(inputs))
	if err != nil {
		return nil, err
	}

	doc, err := jsonDoc(resp)
	if err != nil {
		return nil, err
	}
	status := doc.Get("status").String()
	if status == "" {
		status = toolkit.Unknown
	}
	failed := []string{}
	for _, k := range doc.Get("result.failed_primary_keys").Array() {
		failed = append(failed, k.String())
	}
	return toolkit.Row{
		"index_name":          in.IndexName,
		"status":              status,
		"success_row_count":   doc.Get("result.success_row_count").Int(),
		"failed_primary_keys": failed,
	}, nil
}

// checkVectorQuery validates argument combinations the schema cannot
// express and returns the normalized query type.
func checkVectorQuery(in vectorQueryInput) (string, error) {
	hasVector, hasText := len(in.QueryVector) > 0, in.QueryText != ""
	switch {
	case hasVector && hasText:
		return "", errcode.Invalid("query_vector", "provide only one of query_vector or query_text")
	case !hasVector && !hasText:
		return "", errcode.Invalid("query_vector", "either query_vector or query_text must be provided")
	}
	if in.FiltersJSON != "" && !gjson.Valid(in.FiltersJSON) {
		return "", errcode.Invalid("filters_json", "is not valid JSON")
	}

	queryType := strings.ToUpper(in.QueryType)
	switch queryType {
	case "":
		return DefaultQueryType, nil
	case "ANN", "HYBRID":
		return queryType, nil
	default:
		return "", errcode.Invalid("query_type", "must be ANN or HYBRID")
	}
}

func (t *Toolkit) vectorQuery(ctx context.Context, in vectorQueryInput) (any, error) {
	queryType, err := checkVectorQuery(in)
	if err != nil {
		return nil, err
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.QueryVectorIndex(ctx, vectorsearch.QueryVectorIndexRequest{
		IndexName:   in.IndexName,
		Columns:     in.Columns,
		QueryVector: in.QueryVector,
		QueryText:   in.QueryText,
		NumResults:  toolkit.Clamp(in.NumResults, DefaultNumResults, 0),
		FiltersJson: in.FiltersJSON,
		QueryType:   queryType,
	})
	if err != nil {
		return nil, err
	}

	doc, err := jsonDoc(resp)
	if err != nil {
		return nil, err
	}
	return vectorResults(doc), nil
}

// vectorResults turns the positional data array into row maps keyed by the
// manifest's column names.
func vectorResults(doc gjson.Result) toolkit.Row {
	var columns []string
	for _, c := range doc.Get("manifest.columns.#.name").Array() {
		columns = append(columns, c.String())
	}

	rows := []toolkit.Row{}
	for _, values := range doc.Get("result.data_array").Array() {
		row := toolkit.Row{}
		for i, v := range values.Array() {
			name := fmt.Sprintf("col_%d", i)
			if i < len(columns) && columns[i] != "" {
				name = columns[i]
			}
			row[name] = v.Value()
		}
		rows = append(rows, row)
	}

	if columns == nil {
		columns = []string{}
	}
	return toolkit.Row{
		"columns":   columns,
		"results":   rows,
		"row_count": len(rows),
	}
}
