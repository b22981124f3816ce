package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	applog "tutorbook/internal/log"

	_ "modernc.org/sqlite"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrLastGroup = errors.New("cannot delete the last group")
)

// Store is the SQL ledger store shared by both dialects.
type Store struct {
	db      *sqlx.DB
	pool    *pgxpool.Pool // postgres only
	dialect Dialect
	logger  *applog.Logger
	now     func() time.Time
}

// Open connects to the database, runs migrations and returns a ready store.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *applog.Logger) (*Store, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	var (
		db   *sqlx.DB
		pool *pgxpool.Pool
		err  error
	)
	switch dialect {
	case DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		db, err = sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// modernc sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	case DialectPostgres:
		config, perr := pgxpool.ParseConfig(dsn)
		if perr != nil {
			return nil, fmt.Errorf("parse database URL: %w", perr)
		}
		config.ConnConfig.RuntimeParams["timezone"] = "UTC"
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("create connection pool: %w", err)
		}
		// sqlx runs the queries; connections still come from the pool.
		db = sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	store := &Store{
		db:      db,
		pool:    pool,
		dialect: dialect,
		logger:  logger.WithComponent(applog.ComponentStorage),
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *Store) Dialect() Dialect { return s.dialect }

// Ping is used at open and by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.db.PingContext(ctx)
}

func (s *Store) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
