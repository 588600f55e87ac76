package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Knetic/go-namedParameterQuery"
	"github.com/jmoiron/sqlx"

	"github.com/jekabolt/grbpwr-analytics/internal/dependency"
)

type ltx struct {
	*sqlx.Tx
}

func (t ltx) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, fmt.Errorf("already in transaction")
}

func (ms *SQLStore) DB() dependency.DB {
	return ms.db
}

// Tx runs f inside a transaction and rolls it back when f returns an error.
func (ms *SQLStore) Tx(ctx context.Context, f func(context.Context, dependency.DB) error) error {
	tx, err := ms.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := f(ctx, ltx{Tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// parseNamed expands :name parameters and rebinds placeholders for the driver.
func parseNamed(conn dependency.DB, query string, params map[string]any) (string, []any, error) {
	queryNamed := namedParameterQuery.NewNamedParameterQuery(query)
	queryNamed.SetValuesFromMap(params)
	query, args, err := sqlx.In(queryNamed.GetParsedQuery(), queryNamed.GetParsedParameters()...)
	if err != nil {
		return "", nil, fmt.Errorf("sqlx in: %w", err)
	}
	return conn.Rebind(query), args, nil
}

func QueryListNamed[T any](
	ctx context.Context,
	conn dependency.DB,
	query string,
	params map[string]any,
) ([]T, error) {
	query, args, err := parseNamed(conn, query, params)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	target := []T{}
	for rows.Next() {
		var t T
		if err := rows.StructScan(&t); err != nil {
			return nil, fmt.Errorf("struct scan: %w", err)
		}
		target = append(target, t)
	}
	return target, rows.Err()
}

func QueryCountNamed(
	ctx context.Context,
	conn dependency.DB,
	query string,
	params map[string]any,
) (int, error) {
	query, args, err := parseNamed(conn, query, params)
	if err != nil {
		return 0, err
	}

	var count int
	if err := conn.QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query row scan: %w", err)
	}
	return count, nil
}

// nolint: interfacer
func ExecNamed(
	ctx context.Context,
	conn dependency.DB,
	query string,
	params map[string]any,
) error {
	query, args, err := parseNamed(conn, query, params)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ExecContext: %w", err)
	}
	return nil
}

// BulkInsert inserts rows of values ordered as columns in one statement.
func BulkInsert(ctx context.Context, conn dependency.DB, tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	valueStrings := make([]string, 0, len(rows))
	values := make([]any, 0, len(rows)*len(columns))
	for _, row := range rows {
		valueStrings = append(valueStrings, placeholders)
		values = append(values, row...)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(valueStrings, ", "),
	)

	if _, err := conn.ExecContext(ctx, conn.Rebind(query), values...); err != nil {
		return fmt.Errorf("BulkInsert failed: %w", err)
	}
	return nil
}
