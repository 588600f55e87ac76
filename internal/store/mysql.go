package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/jekabolt/grbpwr-analytics/internal/dependency"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config defines configurations to connect database
type Config struct {
	Driver             string `mapstructure:"driver" valid:"in(mysql|postgres)"`
	DSN                string `mapstructure:"dsn"`
	Automigrate        bool   `mapstructure:"automigrate"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`
	TLSCAPath          string `mapstructure:"tls_ca_path"`
}

// SQLStore keeps the raw tables and the clean run log in MySQL or Postgres.
type SQLStore struct {
	db    dependency.DB
	close context.CancelFunc
}

// registerTLSConfig registers the CA from TLSCAPath under the name "custom"
// so a MySQL DSN can reference it with tls=custom.
func registerTLSConfig(cfg Config) error {
	if cfg.TLSCAPath == "" || cfg.driver() != DriverMySQL {
		return nil
	}
	caCert, err := os.ReadFile(cfg.TLSCAPath)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate from %s: %w", cfg.TLSCAPath, err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate")
	}
	slog.Default().Info("using CA certificate from file", "path", cfg.TLSCAPath)
	return mysql.RegisterTLSConfig("custom", &tls.Config{RootCAs: caCertPool})
}

func (cfg Config) driver() string {
	if cfg.Driver == "" {
		return DriverMySQL
	}
	return cfg.Driver
}

// New connects to the database, applies migrations and returns a new SQLStore object.
func New(ctx context.Context, cfg Config) (*SQLStore, error) {
	if err := registerTLSConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to register TLS config: %w", err)
	}

	d, err := sqlx.Open(cfg.driver(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("couldn't open database : %v", err)
	}

	if cfg.MaxOpenConnections > 0 {
		d.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		d.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	d.SetConnMaxLifetime(2 * time.Minute)
	d.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := d.PingContext(pingCtx); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Automigrate {
		slog.Default().InfoContext(ctx, "applying migrations", slog.String("driver", cfg.driver()))
		migrateCtx, migrateCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer migrateCancel()
		if err := MigrateWithContext(migrateCtx, d.DB, cfg.driver()); err != nil {
			d.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	ctx, c := context.WithCancel(ctx)
	ss := &SQLStore{
		db:    d,
		close: c,
	}

	go func() {
		<-ctx.Done()
		d.Close()
	}()

	return ss, nil
}

//go:embed sql
var fs embed.FS

// MigrateWithContext applies the embedded migrations of the given dialect.
func MigrateWithContext(ctx context.Context, db *sql.DB, dialect string) error {
	m := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: fs,
		Root:       "sql/" + dialect,
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := migrate.Exec(db, dialect, m, migrate.Up)
		done <- result{n: n, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("migration timeout: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("db migrations have failed: %w", res.err)
		}
		slog.Default().InfoContext(ctx, "applied migrations",
			slog.Int("count", res.n),
		)
		return nil
	}
}

// Name identifies the store as a raw source.
func (ms *SQLStore) Name() string {
	return "sql:" + ms.db.DriverName()
}

func (ms *SQLStore) Close() {
	ms.close()
}

// Ping checks database connectivity by executing a simple query
func (ms *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	err := ms.db.QueryRowxContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
