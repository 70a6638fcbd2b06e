package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/mcp-databricks/pkg/audit"
)

const (
	defaultBreakdownLimit = 10
	maxBreakdownLimit     = 100
)

const successRateExpr = "CASE WHEN COUNT(*) > 0 THEN CAST(COUNT(*) FILTER (WHERE success = true) AS FLOAT) / COUNT(*) ELSE 0 END AS success_rate"

// clampBreakdownLimit applies default and max bounds to a breakdown limit.
func clampBreakdownLimit(limit int) int {
	if limit <= 0 {
		return defaultBreakdownLimit
	}
	if limit > maxBreakdownLimit {
		return maxBreakdownLimit
	}
	return limit
}

// Overview returns aggregate statistics for events at or after since.
func (s *Store) Overview(ctx context.Context, since time.Time) (*audit.Overview, error) {
	query, args, err := psq.Select(
		"COUNT(*) AS total_calls",
		"COUNT(*) FILTER (WHERE success = false) AS error_count",
		successRateExpr,
		"COALESCE(AVG(duration_ms), 0) AS avg_duration_ms",
		"COUNT(DISTINCT endpoint) AS unique_endpoints",
	).From("audit_logs").
		Where(sq.GtOrEq{"timestamp": since}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building overview query: %w", err)
	}

	var o audit.Overview
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&o.TotalCalls,
		&o.ErrorCount,
		&o.SuccessRate,
		&o.AvgDurationMS,
		&o.UniqueEndpoints,
	)
	if err != nil {
		return nil, fmt.Errorf("querying overview: %w", err)
	}
	return &o, nil
}

// Breakdown returns event counts grouped by dim, largest first.
func (s *Store) Breakdown(ctx context.Context, dim audit.Dimension, since time.Time, limit int) ([]audit.BreakdownEntry, error) {
	if !audit.ValidDimensions[dim] {
		return nil, fmt.Errorf("invalid breakdown dimension: %q", dim)
	}

	// dim is checked against ValidDimensions so it is safe as a column reference.
	query, args, err := psq.Select(
		fmt.Sprintf("COALESCE(%s, '') AS dimension", string(dim)),
		"COUNT(*) AS count",
		successRateExpr,
		"COALESCE(AVG(duration_ms), 0) AS avg_duration_ms",
	).From("audit_logs").
		Where(sq.GtOrEq{"timestamp": since}).
		GroupBy("dimension").
		OrderBy("count DESC").
		Limit(uint64(clampBreakdownLimit(limit))). // #nosec G115 -- clamped to [1, 100]
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building breakdown query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []audit.BreakdownEntry{}
	for rows.Next() {
		var entry audit.BreakdownEntry
		if err := rows.Scan(&entry.Dimension, &entry.Count, &entry.SuccessRate, &entry.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("scanning breakdown row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating breakdown rows: %w", err)
	}
	return entries, nil
}

// Verify interface compliance.
var _ audit.Summarizer = (*Store)(nil)
