package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS memory (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_memory_expires ON memory(expires_at) WHERE expires_at IS NOT NULL;
`

// SQLStore implements Store on a local sqlite database.
type SQLStore struct {
	db   *sql.DB
	done chan struct{}

	// OnEvict is called with each key removed by the background sweep.
	OnEvict func(key string)

	now func() time.Time // test hook
}

// OpenSQL opens (creating if necessary) a sqlite-backed store at path and
// starts a background sweep of expired records every sweepInterval
// (0 disables the sweep; expired records are still filtered on read).
func OpenSQL(path string, sweepInterval time.Duration) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create memory dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// sqlite allows a single writer; serialize at the pool level.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init memory schema: %w", err)
	}

	s := &SQLStore{
		db:   db,
		done: make(chan struct{}),
		now:  time.Now,
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s, nil
}

// Get implements Store. Expired records are removed lazily on read.
func (s *SQLStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	var value []byte
	var expiresAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM memory WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("memory get %s: %w", key, err)
	}

	if expiresAt.Valid && s.now().Unix() >= expiresAt.Int64 {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM memory WHERE key = ?`, key)
		return false, nil
	}

	if err := json.Unmarshal(value, dest); err != nil {
		return false, fmt.Errorf("memory decode %s: %w", key, err)
	}
	return true, nil
}

// Set implements Store.
func (s *SQLStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory encode %s: %w", key, err)
	}

	var expiresAt any // nil = no expiry
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).Unix()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memory (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, data, expiresAt)
	if err != nil {
		return fmt.Errorf("memory set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memory WHERE key = ?`, key); err != nil {
		return fmt.Errorf("memory delete %s: %w", key, err)
	}
	return nil
}

// Keys implements Store.
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM memory
		 WHERE key LIKE ? || '%' AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY key`,
		prefix, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("memory keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close stops the sweep loop and closes the database.
func (s *SQLStore) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return s.db.Close()
}

func (s *SQLStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SQLStore) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.OnEvict != nil {
		rows, err := s.db.QueryContext(ctx,
			`SELECT key FROM memory WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().Unix())
		if err == nil {
			for rows.Next() {
				var k string
				if rows.Scan(&k) == nil {
					s.OnEvict(k)
				}
			}
			rows.Close()
		}
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memory WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		slog.Warn("memory: sweep failed", "error", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("memory: swept expired records", "count", n)
	}
}
