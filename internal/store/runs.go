package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

const defaultRunsLimit = 20

// AddCleanRun records the snapshot's batch diagnostics and returns the run count.
func (ms *SQLStore) AddCleanRun(ctx context.Context, snap *entity.Snapshot) (int, error) {
	report, err := json.Marshal(snap.Report)
	if err != nil {
		return 0, fmt.Errorf("marshal clean report: %w", err)
	}

	query := `
	INSERT INTO clean_runs
		(snapshot_id, source, fingerprint, customers, orders, order_items, fulfillment, returns, report, cleaned_at)
	VALUES
		(:snapshotId, :source, :fingerprint, :customers, :orders, :orderItems, :fulfillment, :returns, :report, :cleanedAt)`

	err = ExecNamed(ctx, ms.db, query, map[string]any{
		"snapshotId":  snap.ID.String(),
		"source":      snap.Source,
		"fingerprint": strconv.FormatUint(snap.Fingerprint, 16),
		"customers":   snap.Counts[entity.TableCustomers],
		"orders":      snap.Counts[entity.TableOrders],
		"orderItems":  snap.Counts[entity.TableOrderItems],
		"fulfillment": snap.Counts[entity.TableFulfillment],
		"returns":     snap.Counts[entity.TableReturns],
		"report":      string(report),
		"cleanedAt":   snap.CleanedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("insert clean run: %w", err)
	}

	count, err := QueryCountNamed(ctx, ms.db, `SELECT COUNT(*) FROM clean_runs`, nil)
	if err != nil {
		return 0, fmt.Errorf("count clean runs: %w", err)
	}
	return count, nil
}

// ListCleanRuns returns the latest clean runs, newest first.
func (ms *SQLStore) ListCleanRuns(ctx context.Context, limit int) ([]entity.CleanRun, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	query := `
	SELECT id, snapshot_id, source, fingerprint, customers, orders, order_items, fulfillment, returns, report, cleaned_at
	FROM clean_runs
	ORDER BY cleaned_at DESC, id DESC
	LIMIT :limit`

	runs, err := QueryListNamed[entity.CleanRun](ctx, ms.db, query, map[string]any{
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list clean runs: %w", err)
	}
	return runs, nil
}
