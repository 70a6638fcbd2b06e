package registry

import (
	"fmt"
	"slices"

	"github.com/txn2/mcp-databricks/pkg/toolkit"
)

// DefaultInstance is the instance name given to every loaded toolkit; a
// server talks to a single workspace.
const DefaultInstance = "default"

// Loader loads toolkits from configuration.
type Loader struct {
	registry *Registry
	deps     toolkit.Deps
}

// NewLoader creates a new toolkit loader.
func NewLoader(registry *Registry, deps toolkit.Deps) *Loader {
	return &Loader{registry: registry, deps: deps}
}

// Load creates one toolkit per known kind. Kinds absent from toolkits are
// loaded with defaults; kinds whose section sets enabled: false are skipped.
// A section for a kind with no factory is an error.
func (l *Loader) Load(toolkits map[string]map[string]any) error {
	kinds := l.registry.Kinds()
	for kind := range toolkits {
		if !slices.Contains(kinds, kind) {
			return fmt.Errorf("unknown toolkit kind: %s", kind)
		}
	}

	for _, kind := range kinds {
		raw := toolkits[kind]

		var shared toolkit.Config
		if err := toolkit.DecodeConfig(raw, &shared); err != nil {
			return fmt.Errorf("loading toolkit %s: %w", kind, err)
		}
		if !shared.IsEnabled() {
			continue
		}

		cfg := ToolkitConfig{Kind: kind, Name: DefaultInstance, Config: raw}
		if err := l.registry.CreateAndRegister(cfg, l.deps); err != nil {
			return fmt.Errorf("loading toolkit %s: %w", kind, err)
		}
	}

	return nil
}
