package secrets

import (
	"context"
	"encoding/base64"
	"log/slog"
	"unicode/utf8"

	"github.com/databricks/databricks-sdk-go/service/workspace"

	"github.com/txn2/mcp-databricks/pkg/errcode"
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

const statusSuccess = "SUCCESS"

type scopeInput struct {
	ScopeName string `json:"scope_name" validate:"required"`
}

type secretInput struct {
	ScopeName string `json:"scope_name" jsonschema:"Name of the secret scope" validate:"required"`
	Key       string `json:"key" jsonschema:"Secret key name" validate:"required"`
}

type putSecretInput struct {
	ScopeName   string `json:"scope_name" jsonschema:"Name of the secret scope" validate:"required"`
	Key         string `json:"key" jsonschema:"Secret key name" validate:"required"`
	SecretValue string `json:"secret_value" jsonschema:"String value to store"`
}

func (t *Toolkit) listScopes(ctx context.Context, _ struct{}) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	scopes, err := s.ListSecretScopes(ctx)
	if err != nil {
		return nil, err
	}
	return toolkit.Reshape(scopes, func(sc workspace.SecretScope) string { return sc.Name }, func(sc workspace.SecretScope) toolkit.Row {
		return toolkit.Row{
			"name":         sc.Name,
			"backend_type": toolkit.EnumString(sc.BackendType),
		}
	}), nil
}

func (t *Toolkit) listKeys(ctx context.Context, in scopeInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := s.ListSecrets(ctx, in.ScopeName)
	if err != nil {
		return nil, err
	}
	return toolkit.Reshape(keys, func(m workspace.SecretMetadata) string { return m.Key }, func(m workspace.SecretMetadata) toolkit.Row {
		return toolkit.Row{
			"key":                    m.Key,
			"last_updated_timestamp": m.LastUpdatedTimestamp,
		}
	}), nil
}

// readEnabled consults the gate on every call so a runtime change takes
// effect without re-registration.
func (t *Toolkit) readEnabled() bool {
	return t.deps.SecretRead != nil && t.deps.SecretRead.Enabled()
}

func (t *Toolkit) getSecret(ctx context.Context, in secretInput) (any, error) {
	if !t.readEnabled() {
		slog.Warn("secret read refused: disabled by configuration", "scope", in.ScopeName, "key", in.Key)
		return nil, errcode.Denied("reading secret values is disabled by server configuration")
	}

	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Warn("retrieving secret value", "scope", in.ScopeName, "key", in.Key)
	resp, err := s.GetSecret(ctx, in.ScopeName, in.Key)
	if err != nil {
		return nil, err
	}
	return secretValue(in, resp.Value)
}

// secretValue renders the base64 payload as text when it decodes to valid
// UTF-8 and as base64 otherwise.
func secretValue(in secretInput, encoded string) (toolkit.Row, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errcode.Failed("secret %s/%s has a malformed value: %v", in.ScopeName, in.Key, err)
	}

	out := toolkit.Row{"scope": in.ScopeName, "key": in.Key}
	if utf8.Valid(raw) {
		out["value_string"] = string(raw)
		out["value_base64"] = nil
	} else {
		out["value_string"] = nil
		out["value_base64"] = encoded
	}
	return out, nil
}

func (t *Toolkit) putSecret(ctx context.Context, in putSecretInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("putting secret", "scope", in.ScopeName, "key", in.Key)
	if err := s.PutSecret(ctx, in.ScopeName, in.Key, in.SecretValue); err != nil {
		return nil, err
	}
	return toolkit.Row{"scope": in.ScopeName, "key": in.Key, "status": statusSuccess}, nil
}

func (t *Toolkit) deleteSecret(ctx context.Context, in secretInput) (any, error) {
	s, err := t.deps.Session(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("deleting secret", "scope", in.ScopeName, "key", in.Key)
	if err := s.DeleteSecret(ctx, in.ScopeName, in.Key); err != nil {
		return nil, err
	}
	return toolkit.Row{"scope": in.ScopeName, "key": in.Key, "status": statusSuccess}, nil
}
