package toolkit

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/txn2/mcp-databricks/pkg/databricks"
)

// Gate is a server-wide switch read at call time.
type Gate interface {
	Enabled() bool
}

// Flag is a Gate that can be flipped at runtime.
type Flag struct {
	v atomic.Bool
}

// NewFlag returns a Flag with the given initial state.
func NewFlag(enabled bool) *Flag {
	f := &Flag{}
	f.v.Store(enabled)
	return f
}

// Enabled implements Gate.
func (f *Flag) Enabled() bool {
	return f.v.Load()
}

// Set changes the state.
func (f *Flag) Set(enabled bool) {
	f.v.Store(enabled)
}

// Deps are the collaborators handed to every toolkit.
type Deps struct {
	Sessions databricks.Source
	// SecretRead gates raw secret reads.
	SecretRead Gate
}

// Verify interface compliance.
var _ Gate = (*Flag)(nil)

// Session returns the shared workspace session.
func (d Deps) Session(ctx context.Context) (databricks.Session, error) {
	if d.Sessions == nil {
		return nil, errors.New("no databricks session source configured")
	}
	return d.Sessions.Session(ctx) //nolint:wrapcheck // provider errors are already wrapped
}
