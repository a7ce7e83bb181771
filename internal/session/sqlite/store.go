// Package sqlite implements [session.Store] on a single SQLite file using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/session"
	_ "modernc.org/sqlite"
)

// Compile-time interface assertion.
var _ session.Store = (*Store)(nil)

// Schema is the DDL applied by [Open]. Timestamps are Unix nanoseconds so
// that ORDER BY sorts them correctly.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id           TEXT PRIMARY KEY,
    document     TEXT NOT NULL,
    game_phase   TEXT NOT NULL DEFAULT '',
    player_count INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL,
    last_updated INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_last_updated ON sessions (last_updated DESC);
`

// Store keeps one row per session with the document as JSON text.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies
// [Schema].
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session/sqlite: storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session/sqlite: open: %w", err)
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// pooled connections of the same process.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("session/sqlite: ping: %w", err)
	}

	s := &Store{sqlDB: sqlDB}
	if err := s.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies [Schema]. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("session/sqlite: migrate: %w", err)
	}
	return nil
}

// Create implements [session.Store].
func (s *Store) Create(ctx context.Context, d *game.Document) error {
	id := d.Meta.SessionID
	if !session.ValidID(id) {
		return fmt.Errorf("session/sqlite: create: invalid session id %q", id)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("session/sqlite: create %s: encode: %w", id, err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, document, game_phase, player_count, created_at, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, string(data), d.Meta.GamePhase, len(d.Players),
		toNanos(d.Meta.CreatedAt), toNanos(d.Meta.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("session/sqlite: create %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session/sqlite: create %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return session.ErrExists
	}
	return nil
}

// Load implements [session.Store].
func (s *Store) Load(ctx context.Context, id string) (*game.Document, error) {
	var data string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT document FROM sessions WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("session/sqlite: load %s: %w", id, err)
	}

	var d game.Document
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("session/sqlite: load %s: decode: %w", id, err)
	}
	return &d, nil
}

// Save implements [session.Store]. The replacement is a single UPDATE, so a
// concurrent reader sees either the old or the new document.
func (s *Store) Save(ctx context.Context, d *game.Document) error {
	id := d.Meta.SessionID
	prev := d.Meta.LastUpdated
	session.Touch(d)

	data, err := json.Marshal(d)
	if err != nil {
		d.Meta.LastUpdated = prev
		return fmt.Errorf("session/sqlite: save %s: encode: %w", id, err)
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE sessions
		 SET document = ?, game_phase = ?, player_count = ?, last_updated = ?
		 WHERE id = ?`,
		string(data), d.Meta.GamePhase, len(d.Players), toNanos(d.Meta.LastUpdated), id,
	)
	if err != nil {
		d.Meta.LastUpdated = prev
		return fmt.Errorf("session/sqlite: save %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session/sqlite: save %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		d.Meta.LastUpdated = prev
		return session.ErrNotFound
	}
	return nil
}

// Delete implements [session.Store].
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session/sqlite: delete %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session/sqlite: delete %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return session.ErrNotFound
	}
	return nil
}

// List implements [session.Store]. Summaries come from the indexed columns
// without decoding any document.
func (s *Store) List(ctx context.Context) ([]session.Summary, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, game_phase, player_count, created_at, last_updated
		 FROM sessions
		 ORDER BY last_updated DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("session/sqlite: list: %w", err)
	}
	defer rows.Close()

	out := []session.Summary{}
	for rows.Next() {
		var (
			sum       session.Summary
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&sum.SessionID, &sum.GamePhase, &sum.PlayerCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("session/sqlite: list: scan: %w", err)
		}
		sum.CreatedAt = fromNanos(createdAt)
		sum.LastUpdated = fromNanos(updatedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session/sqlite: list: %w", err)
	}
	return out, nil
}

// Ping implements [session.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("session/sqlite: ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
