package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/databricks/databricks-sdk-go/service/serving"
	"github.com/tidwall/gjson"

	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

type servingInput struct {
	EndpointName string `json:"endpoint_name" jsonschema:"Name of the Model Serving endpoint" validate:"required"`
	InputData    any    `json:"input_data" jsonschema:"Request payload: an object or an array of instances"`
}

// servingRequest maps the loosely typed payload onto the request shapes
// accepted by the serving API.
func servingRequest(name string, data any) (serving.QueryEndpointInput, error) {
	req := serving.QueryEndpointInput{Name: name}
	switch v := data.(type) {
	case []any:
		req.Instances = v
	case map[string]any:
		switch {
		case v["instances"] != nil:
			instances, ok := v["instances"].([]any)
			if !ok {
				return req, errcode.Invalid("input_data", "instances must be an array")
			}
			req.Instances = instances
		case v["dataframe_records"] != nil:
			records, ok := v["dataframe_records"].([]any)
			if !ok {
				return req, errcode.Invalid("input_data", "dataframe_records must be an array")
			}
			req.DataframeRecords = records
		case v["inputs"] != nil:
			req.Inputs = v["inputs"]
		default:
			req.Inputs = v
		}
	default:
		return req, errcode.Invalid("input_data", "must be an object or an array")
	}
	return req, nil
}

func (t *Toolkit) queryServingEndpoint(ctx context.Context, in servingInput) (any, error) {
	req, err := servingRequest(in.EndpointName, in.InputData)
	if err != nil {
		return nil, err
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("querying serving endpoint", "endpoint", in.EndpointName)
	resp, err := s.QueryServingEndpoint(ctx, req)
	if err != nil {
		return nil, err
	}

	doc, err := jsonDoc(resp)
	if err != nil {
		return nil, err
	}
	if p := doc.Get("predictions"); p.Exists() {
		return toolkit.Row{"predictions": p.Value()}, nil
	}
	return doc.Value(), nil
}

// jsonDoc re-reads an SDK response through its JSON form so fields are
// addressed by wire name.
func jsonDoc(v any) (gjson.Result, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encoding response: %w", err)
	}
	return gjson.ParseBytes(b), nil
}
