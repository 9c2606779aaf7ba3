package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skinstric/onboarding/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQL is a Backend on top of database/sql.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQL connects, verifies the connection and applies pending migrations.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, cfg config.StoreConfig) (*SQL, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: data source is required", dialect.Name)
	}

	switch dialect.Name {
	case SQLite.Name:
		if dsn != ":memory:" && !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	case MySQL.Name:
		if !strings.Contains(dsn, "?") {
			dsn += "?charset=utf8mb4"
		}
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect.Name, err)
	}

	if dialect.Name == SQLite.Name {
		// One writer; avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.Name, err)
	}

	s := &SQL{db: db, dialect: dialect, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQL) Get(ctx context.Context, visitorID, key string) ([]byte, error) {
	query := s.dialect.rebind(`SELECT value, expires_at FROM visitor_values WHERE visitor_id = ? AND item_key = ?`)

	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, query, visitorID, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get value: %w", err)
	}
	if expired(s.now(), expiresAt) {
		return nil, ErrNotFound
	}
	return []byte(value), nil
}

func (s *SQL) Put(ctx context.Context, visitorID, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(s.dialect.upsert),
		visitorID, key, string(value), expiry(now, ttl), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("save value: %w", err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, visitorID, key string) error {
	query := s.dialect.rebind(`DELETE FROM visitor_values WHERE visitor_id = ? AND item_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, visitorID, key); err != nil {
		return fmt.Errorf("delete value: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired values and returns the count deleted.
func (s *SQL) DeleteExpired(ctx context.Context) (int64, error) {
	query := s.dialect.rebind(`DELETE FROM visitor_values WHERE expires_at <> 0 AND expires_at <= ?`)
	result, err := s.db.ExecContext(ctx, query, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired values: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return count, nil
}

// Close closes the connection pool.
func (s *SQL) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}
