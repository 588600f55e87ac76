package dependency

import (
	"context"
	"database/sql"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

type (
	// Source loads the five raw tables from wherever they are kept.
	Source interface {
		// Load returns all five raw tables. A table the source does not have is left nil.
		Load(ctx context.Context) (*entity.RawTables, error)
		// Name identifies the source in snapshots and clean runs.
		Name() string
	}

	// CleanRunRecorder persists a log of cleaning batches.
	CleanRunRecorder interface {
		AddCleanRun(ctx context.Context, snap *entity.Snapshot) (int, error)
		ListCleanRuns(ctx context.Context, limit int) ([]entity.CleanRun, error)
	}

	// RawWriter replaces the stored raw tables, used to import a dataset into a store.
	RawWriter interface {
		ReplaceRaw(ctx context.Context, raw *entity.RawTables) error
	}

	// Snapshots memoizes cleaning runs.
	Snapshots interface {
		Get(ctx context.Context, source string, raw *entity.RawTables) (*entity.Snapshot, error)
		Latest() (*entity.Snapshot, error)
	}

	// ObjectGetter reads objects from a bucket.
	ObjectGetter interface {
		GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		Rebind(query string) string
		DriverName() string
	}
)
