package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN         string
	DialTimeout time.Duration
}

// Open connects to the ledger database. postgres:// and postgresql:// DSNs go
// through a pgx pool; anything else is a SQLite file path (or ":memory:").
// The schema is created if missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	var (
		db   *sql.DB
		pool *pgxpool.Pool
		dia  string
	)
	switch {
	case isPostgresDSN(cfg.DSN):
		logger.Info("state.db.connecting", "dialect", dialect.Postgres)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		pc.MaxConns = 2
		pc.ConnConfig.RuntimeParams["application_name"] = "docsort"

		dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err = pgxpool.NewWithConfig(dctx, pc)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(dctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		db = stdlib.OpenDBFromPool(pool)
		dia = dialect.Postgres
	default:
		path := strings.TrimPrefix(cfg.DSN, "sqlite://")
		logger.Info("state.db.connecting", "dialect", dialect.SQLite, "path", path)
		var err error
		db, err = sql.Open("sqlite", sqliteDSN(path))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// One connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
		dia = dialect.SQLite
	}

	s := New(db, dia, logger)
	s.pool = pool
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Info("state.db.ready", "dialect", dia)
	return s, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// LocalFiles lists the files a SQLite ledger at dsn writes, journal files
// included. Postgres and in-memory DSNs have none.
func LocalFiles(dsn string) []string {
	if dsn == "" || dsn == ":memory:" || isPostgresDSN(dsn) {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	return []string{path, path + "-wal", path + "-shm", path + "-journal"}
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// New wraps an existing database handle. dialectName is one of the ent dialect names.
func New(db *sql.DB, dialectName string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		drv:     entsql.OpenDB(dialectName, db),
		builder: entsql.Dialect(dialectName),
		logger:  logger,
	}
}

// Close closes the database connections gracefully
func (s *Store) Close() error {
	err := s.drv.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
