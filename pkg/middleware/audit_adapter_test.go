package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-databricks/pkg/audit"
)

// mockAuditStore implements auditStore for testing.
type mockAuditStore struct {
	events []audit.Event
	logErr error
}

func (m *mockAuditStore) Log(_ context.Context, event audit.Event) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.events = append(m.events, event)
	return nil
}

func TestNewAuditStoreAdapter(t *testing.T) {
	adapter := NewAuditStoreAdapter(nil)
	require.NotNil(t, adapter)
}

func TestAuditStoreAdapter_Log(t *testing.T) {
	store := &mockAuditStore{}
	adapter := &auditStoreAdapter{store: store}

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := AuditEvent{
		Timestamp:     ts,
		RequestID:     "req-123",
		SessionID:     "sess-1",
		Method:        methodToolsCall,
		Name:          "databricks_secrets_put_secret",
		ToolkitKind:   "secrets",
		Transport:     "stdio",
		Parameters:    map[string]any{"scope": "prod", "key": "db", "secret_value": "hunter2"},
		Success:       true,
		DurationMS:    100,
		ResponseChars: 64,
	}

	require.NoError(t, adapter.Log(context.Background(), event))
	require.Len(t, store.events, 1)

	got := store.events[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, ts, got.Timestamp)
	assert.Equal(t, "req-123", got.RequestID)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, methodToolsCall, got.Method)
	assert.Equal(t, "databricks_secrets_put_secret", got.Endpoint)
	assert.Equal(t, "secrets", got.ToolkitKind)
	assert.Equal(t, "stdio", got.Transport)
	assert.True(t, got.Success)
	assert.Equal(t, int64(100), got.DurationMS)
	assert.Equal(t, 64, got.ResponseChars)
	assert.Equal(t, "prod", got.Parameters["scope"])
	assert.Equal(t, audit.Redacted, got.Parameters["secret_value"])
}

func TestAuditStoreAdapter_LogError(t *testing.T) {
	store := &mockAuditStore{logErr: errors.New("db down")}
	adapter := &auditStoreAdapter{store: store}

	err := adapter.Log(context.Background(), AuditEvent{
		Name:          "databricks_jobs_run_now",
		Success:       false,
		ErrorCategory: "not_found",
	})
	assert.ErrorContains(t, err, "db down")
}
