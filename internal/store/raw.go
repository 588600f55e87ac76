package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/jekabolt/grbpwr-analytics/internal/clean"
	"github.com/jekabolt/grbpwr-analytics/internal/dependency"
	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

// rowNoColumn keeps the source order of raw rows so first-occurrence dedup is stable.
const rowNoColumn = "row_no"

const insertBatch = 500

// Load reads the five raw tables concurrently.
func (ms *SQLStore) Load(ctx context.Context) (*entity.RawTables, error) {
	tables := make([]*entity.RawTable, len(entity.TableNames))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range entity.TableNames {
		g.Go(func() error {
			t, err := loadTable(ctx, ms.db, name)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := &entity.RawTables{}
	for i, name := range entity.TableNames {
		raw.SetTable(name, tables[i])
	}
	return raw, nil
}

func loadTable(ctx context.Context, conn dependency.DB, name string) (*entity.RawTable, error) {
	columns := clean.Columns(name)
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), name, rowNoColumn)
	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()
	return scanRaw(rows, name, columns)
}

func scanRaw(rows *sqlx.Rows, name string, columns []string) (*entity.RawTable, error) {
	t := &entity.RawTable{Name: name, Header: columns}
	cells := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				rec[i] = c.String
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, rows.Err()
}

// ReplaceRaw swaps the stored raw tables for raw in one transaction. Columns
// outside the canonical set are not stored; absent ones are stored as NULL.
func (ms *SQLStore) ReplaceRaw(ctx context.Context, raw *entity.RawTables) error {
	err := ms.Tx(ctx, func(ctx context.Context, tx dependency.DB) error {
		for _, name := range entity.TableNames {
			t := raw.Table(name)
			if t == nil {
				return fmt.Errorf("replace raw: table %s is missing", name)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
				return fmt.Errorf("clear %s: %w", name, err)
			}
			if err := insertRaw(ctx, tx, t, name); err != nil {
				return fmt.Errorf("insert %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Default().InfoContext(ctx, "replaced raw tables",
		slog.Int("customers", len(raw.Customers.Records)),
		slog.Int("orders", len(raw.Orders.Records)),
		slog.Int("order_items", len(raw.OrderItems.Records)),
		slog.Int("fulfillment", len(raw.Fulfillment.Records)),
		slog.Int("returns", len(raw.Returns.Records)),
	)
	return nil
}

func insertRaw(ctx context.Context, tx dependency.DB, t *entity.RawTable, name string) error {
	canonical := clean.Columns(name)
	columns := append([]string{rowNoColumn}, canonical...)
	src := make([]int, len(canonical))
	for i, c := range canonical {
		src[i] = t.ColumnIndex(c)
	}

	batch := make([][]any, 0, insertBatch)
	for n, rec := range t.Records {
		row := make([]any, 0, len(columns))
		row = append(row, n+1)
		for _, j := range src {
			if j < 0 || entity.IsNull(entity.Cell(rec, j)) {
				row = append(row, nil)
				continue
			}
			row = append(row, entity.Cell(rec, j))
		}
		batch = append(batch, row)
		if len(batch) == insertBatch {
			if err := BulkInsert(ctx, tx, name, columns, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return BulkInsert(ctx, tx, name, columns, batch)
}
