package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/pkg/entity"
)

// SQLiteCounterStore keeps id counters in a local SQLite file, for
// single-host deployments that want counts to survive restarts without
// running Redis. The upsert runs in one statement, so each connection
// sees an atomic increment.
type SQLiteCounterStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ forge.CounterStore = (*SQLiteCounterStore)(nil)

// NewSQLiteCounterStore opens (or creates) the counter database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteCounterStore(path string, logger *slog.Logger) (*SQLiteCounterStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open counter db: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS counters (
		key   TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create counters table: %w", err)
	}

	return &SQLiteCounterStore{db: db, logger: logger}, nil
}

func (s *SQLiteCounterStore) Next(ctx context.Context, kind entity.Kind, category string) (int, error) {
	key := forge.CounterKey(kind, category)

	const upsert = `INSERT INTO counters (key, count) VALUES (?, 1)
		ON CONFLICT(key) DO UPDATE SET count = count + 1
		RETURNING count`

	var count int
	if err := s.db.QueryRowContext(ctx, upsert, key).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return count, nil
}

func (s *SQLiteCounterStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM counters`); err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}
	s.logger.Info("Counters reset")
	return nil
}

func (s *SQLiteCounterStore) Close() error {
	return s.db.Close()
}
