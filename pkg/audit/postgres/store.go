// Package postgres stores audit events in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/mcp-databricks/pkg/audit"
)

const (
	auditTable           = "audit_logs"
	defaultRetentionDays = 90
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// eventColumns is the column order shared by inserts, selects and scans.
var eventColumns = []string{
	"id", "timestamp", "duration_ms", "request_id", "session_id",
	"method", "endpoint", "toolkit_kind", "transport", "parameters",
	"success", "error_category", "error_message", "response_chars",
}

// Config configures the store.
type Config struct {
	RetentionDays int
}

// Store persists audit events. It implements audit.Logger and
// audit.Summarizer.
type Store struct {
	db        *sql.DB
	retention time.Duration

	stop context.CancelFunc
	done chan struct{}
}

// New returns a Store over db. A zero retention keeps 90 days.
func New(db *sql.DB, cfg Config) *Store {
	days := cfg.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	return &Store{db: db, retention: time.Duration(days) * 24 * time.Hour}
}

// encodeParams returns the JSONB value for p, or nil for SQL NULL.
func encodeParams(p map[string]any) any {
	if len(p) == 0 {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return []byte(`{}`)
	}
	return b
}

// Log inserts e.
func (s *Store) Log(ctx context.Context, e audit.Event) error {
	query, args, err := psq.Insert(auditTable).
		Columns(slices.Concat(eventColumns, []string{"created_date"})...).
		Values(
			e.ID, e.Timestamp, e.DurationMS, e.RequestID, e.SessionID,
			e.Method, e.Endpoint, e.ToolkitKind, e.Transport, encodeParams(e.Parameters),
			e.Success, e.ErrorCategory, e.ErrorMessage, e.ResponseChars,
			e.Timestamp.UTC().Format(time.DateOnly),
		).ToSql()
	if err != nil {
		return fmt.Errorf("building audit insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing audit event %s: %w", e.ID, err)
	}
	return nil
}

// where narrows qb to the events f selects.
func where(qb sq.SelectBuilder, f audit.QueryFilter) sq.SelectBuilder {
	conds := sq.And{}
	if f.StartTime != nil {
		conds = append(conds, sq.GtOrEq{"timestamp": *f.StartTime})
	}
	if f.EndTime != nil {
		conds = append(conds, sq.LtOrEq{"timestamp": *f.EndTime})
	}
	eq := sq.Eq{}
	for col, v := range map[string]string{
		"endpoint":       f.Endpoint,
		"toolkit_kind":   f.ToolkitKind,
		"error_category": f.ErrorCategory,
	} {
		if v != "" {
			eq[col] = v
		}
	}
	if f.Success != nil {
		eq["success"] = *f.Success
	}
	if len(eq) > 0 {
		conds = append(conds, eq)
	}
	if len(conds) == 0 {
		return qb
	}
	return qb.Where(conds)
}

// Query returns events matching f, newest first.
func (s *Store) Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error) {
	qb := where(psq.Select(eventColumns...).From(auditTable), f).OrderBy("timestamp DESC")
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit)) // #nosec G115 -- positive
	}
	if f.Offset > 0 {
		qb = qb.Offset(uint64(f.Offset)) // #nosec G115 -- positive
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []audit.Event{}
	for rows.Next() {
		var (
			e      audit.Event
			params []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.DurationMS, &e.RequestID, &e.SessionID,
			&e.Method, &e.Endpoint, &e.ToolkitKind, &e.Transport, &params,
			&e.Success, &e.ErrorCategory, &e.ErrorMessage, &e.ResponseChars,
		); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &e.Parameters); err != nil {
				slog.Debug("audit event has unreadable parameters", "id", e.ID, "error", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading audit events: %w", err)
	}
	return events, nil
}

// Count returns how many events match f. Limit and Offset are ignored.
func (s *Store) Count(ctx context.Context, f audit.QueryFilter) (int, error) {
	query, args, err := where(psq.Select("COUNT(*)").From(auditTable), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building audit count: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting audit events: %w", err)
	}
	return n, nil
}

// Cleanup deletes events older than the retention window.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	query, args, err := psq.Delete(auditTable).
		Where(sq.Lt{"timestamp": time.Now().Add(-s.retention)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building audit cleanup: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting expired audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted audit events: %w", err)
	}
	return n, nil
}

// StartCleanupRoutine runs Cleanup every interval until Close.
func (s *Store) StartCleanupRoutine(interval time.Duration) {
	ctx, stop := context.WithCancel(context.Background())
	s.stop, s.done = stop, make(chan struct{})
	go s.cleanupLoop(ctx, interval)
}

func (s *Store) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer close(s.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		switch n, err := s.Cleanup(ctx); {
		case err != nil:
			slog.Warn("audit cleanup failed", "error", err)
		case n > 0:
			slog.Info("expired audit events deleted", "count", n)
		}
	}
}

// Close stops the cleanup routine if it was started. The db is not closed.
func (s *Store) Close() error {
	if s.stop != nil {
		s.stop()
		<-s.done
		s.stop = nil
	}
	return nil
}

// Verify interface compliance.
var _ audit.Logger = (*Store)(nil)
