package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-custody/migrations"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ConnectionConfig describes the database behind the snapshot store.
type ConnectionConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

func (c ConnectionConfig) GetDebug() bool {
	return c.Debug
}

func (c ConnectionConfig) GetDriver() string {
	return c.Driver
}

func (c ConnectionConfig) GetServer() string {
	return c.DSN
}

func (c ConnectionConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c ConnectionConfig) GetOtelIdentifier() string {
	return "go-custody"
}

// Open connects to the configured database, registers the custody
// migrations for its dialect and applies them.
func Open(ctx context.Context, cfg ConnectionConfig) (*persistence.Client, error) {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: dsn is required")
	}

	var (
		client  *persistence.Client
		dialect string
		err     error
	)
	switch cfg.Driver {
	case DriverPostgres, "pg", "postgresql":
		cfg.Driver = DriverPostgres
		dialect = migrations.DialectPostgres
		sqlDB, openErr := sql.Open(DriverPostgres, cfg.DSN)
		if openErr != nil {
			return nil, fmt.Errorf("sqlstore: open postgres: %w", openErr)
		}
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
		if err != nil {
			_ = sqlDB.Close()
		}
	case DriverSQLite, "sqlite":
		cfg.Driver = DriverSQLite
		dialect = migrations.DialectSQLite
		sqlDB, openErr := sql.Open(DriverSQLite, cfg.DSN)
		if openErr != nil {
			return nil, fmt.Errorf("sqlstore: open sqlite: %w", openErr)
		}
		sqlDB.SetMaxOpenConns(1)
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
		if err != nil {
			_ = sqlDB.Close()
		}
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	_, err = migrations.Register(ctx, func(_ context.Context, target string, _ string, fsys fs.FS) error {
		if target != dialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(dialect))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}
