package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	pkgconfig "wiki-quiz/pkg/config"
)

// Dialect identifies the SQL flavour behind a *sql.DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DefaultDSN is used when DATABASE_URL is not set.
const DefaultDSN = "sqlite:quiz_history.db"

var ErrUnsupportedDSN = errors.New("unsupported database url")

// ConnectionConfig sizes the database/sql pool. SQLite ignores the
// connection counts and always runs with a single connection.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig is sized for a single API instance against PostgreSQL.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// ParseDSN maps a DATABASE_URL value to its dialect, the database/sql driver name
// and the data source string handed to that driver.
//
// Accepted forms:
//   - postgres://... or postgresql://...  (pgx)
//   - sqlite:<path>, sqlite://<path>, file:<path> or a bare *.db path  (go-sqlite3)
//
// SQLite sources always get foreign keys switched on so ON DELETE CASCADE applies.
func ParseDSN(dsn string) (Dialect, string, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", "", fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, "pgx", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, "sqlite3", sqliteSource(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return DialectSQLite, "sqlite3", sqliteSource(strings.TrimPrefix(dsn, "sqlite:")), nil
	case strings.HasPrefix(dsn, "file:"):
		return DialectSQLite, "sqlite3", sqliteSource(strings.TrimPrefix(dsn, "file:")), nil
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return DialectSQLite, "sqlite3", sqliteSource(dsn), nil
	}
	return "", "", "", fmt.Errorf("%w: expected postgres:// or sqlite: scheme", ErrUnsupportedDSN)
}

func sqliteSource(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + "_foreign_keys=on"
}

// Open creates and configures a new connection pool for dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect, driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	cfg := getConnectionConfigFromEnv()
	if dialect == DialectSQLite {
		// SQLite serialises writers; one connection avoids "database is locked".
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.InfoContext(ctx, "opening database",
		slog.String("dialect", string(dialect)),
		slog.Group("pool",
			slog.Int("max_open", cfg.MaxOpenConns),
			slog.Int("max_idle", cfg.MaxIdleConns),
			slog.Duration("max_lifetime", cfg.ConnMaxLifetime),
			slog.Duration("max_idle_time", cfg.ConnMaxIdleTime)))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	slog.InfoContext(ctx, "database ready", slog.String("dialect", string(dialect)))
	return db, dialect, nil
}

// OpenFromEnv opens DATABASE_URL, falling back to DefaultDSN.
func OpenFromEnv(ctx context.Context) (*sql.DB, Dialect, error) {
	return Open(ctx, pkgconfig.GetEnvString("DATABASE_URL", DefaultDSN))
}

// getConnectionConfigFromEnv overlays DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME on the defaults. Values that
// do not parse or are not positive keep the default.
func getConnectionConfigFromEnv() ConnectionConfig {
	def := DefaultConnectionConfig()
	positiveInt := func(key string, fallback int) int {
		if v := pkgconfig.GetEnvInt(key, fallback); v > 0 {
			return v
		}
		return fallback
	}
	positiveDur := func(key string, fallback time.Duration) time.Duration {
		if v := pkgconfig.GetEnvDuration(key, fallback); v > 0 {
			return v
		}
		return fallback
	}
	return ConnectionConfig{
		MaxOpenConns:    positiveInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns),
		MaxIdleConns:    positiveInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns),
		ConnMaxLifetime: positiveDur("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime),
		ConnMaxIdleTime: positiveDur("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime),
	}
}
