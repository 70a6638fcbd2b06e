// Package secrets exposes secret scope listing and secret management
// endpoints. Reading a secret value is refused unless the server-wide
// secret-read gate is enabled at the moment of the call.
package secrets

import (
	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// Kind is the toolkit kind.
const Kind = "secrets"

// Config holds secrets toolkit configuration.
type Config struct {
	toolkit.Config `yaml:",inline"`
}

// ParseConfig decodes a raw config section.
func ParseConfig(raw map[string]any) (Config, error) {
	var c Config
	if err := toolkit.DecodeConfig(raw, &c); err != nil {
		return Config{}, err //nolint:wrapcheck // already wrapped
	}
	return c, nil
}

// Toolkit serves secret endpoints.
type Toolkit struct {
	name   string
	config Config
	deps   toolkit.Deps
}

// New creates a secrets toolkit.
func New(name string, cfg Config, deps toolkit.Deps) *Toolkit {
	return &Toolkit{name: name, config: cfg, deps: deps}
}

// Kind returns the toolkit kind.
func (t *Toolkit) Kind() string { return Kind }

// Name returns the instance name.
func (t *Toolkit) Name() string { return t.name }

// Descriptions returns configured description overrides.
func (t *Toolkit) Descriptions() map[string]string { return t.config.Descriptions }

// Close releases resources.
func (t *Toolkit) Close() error { return nil }

// Endpoints returns the secrets dispatch table.
func (t *Toolkit) Endpoints() []toolkit.Endpoint {
	return []toolkit.Endpoint{
		toolkit.Resource[struct{}]{
			URI:         "databricks://secrets/scopes",
			Name:        "secret_scopes",
			Description: "Lists available secret scopes.",
			Handler:     t.listScopes,
		},
		toolkit.Resource[scopeInput]{
			URI:         "databricks://secrets/scopes/{scope_name}/keys",
			Name:        "secret_keys",
			Description: "Lists secret keys within a scope. Values are not returned.",
			Handler:     t.listKeys,
		},
		toolkit.Tool[secretInput]{
			Name:  "databricks_secrets_get_secret",
			Title: "Get secret",
			Description: "Retrieves the value of a secret. This exposes sensitive information " +
				"and is refused unless secret reads are enabled on the server.",
			ReadOnly: true,
			Handler:  t.getSecret,
		},
		toolkit.Tool[putSecretInput]{
			Name:        "databricks_secrets_put_secret",
			Title:       "Put secret",
			Description: "Creates or updates a secret with a string value.",
			Idempotent:  true,
			Handler:     t.putSecret,
		},
		toolkit.Tool[secretInput]{
			Name:        "databricks_secrets_delete_secret",
			Title:       "Delete secret",
			Description: "Deletes a secret.",
			Destructive: true,
			Idempotent:  true,
			Handler:     t.deleteSecret,
		},
	}
}
