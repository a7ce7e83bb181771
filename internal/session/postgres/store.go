// Package postgres implements [session.Store] on PostgreSQL using pgx. The
// document is kept as JSONB next to a few summary columns used for listing.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/session"
)

// Schema is the SQL DDL for the sessions table. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id           TEXT PRIMARY KEY,
    document     JSONB NOT NULL,
    game_phase   TEXT NOT NULL DEFAULT '',
    player_count INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_sessions_last_updated ON sessions(last_updated DESC);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Store is a [session.Store] backed by a PostgreSQL database.
type Store struct {
	db    DB
	close func()
}

// Compile-time interface check.
var _ session.Store = (*Store)(nil)

// NewStore creates a [Store] on an existing connection or pool. The caller
// owns db and is responsible for calling [Store.Migrate].
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Open connects a pool to dsn, applies [Schema] and returns a store that
// closes the pool on [Store.Close].
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("session/postgres: dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("session/postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("session/postgres: ping: %w", err)
	}
	s := &Store{db: pool, close: pool.Close}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate executes the [Schema] DDL, creating the sessions table and index
// if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("session/postgres: migrate: %w", err)
	}
	return nil
}

// Create implements [session.Store].
func (s *Store) Create(ctx context.Context, d *game.Document) error {
	id := d.Meta.SessionID
	if !session.ValidID(id) {
		return fmt.Errorf("session/postgres: create: invalid session id %q", id)
	}
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("session/postgres: marshal document: %w", err)
	}

	const query = `
		INSERT INTO sessions (id, document, game_phase, player_count, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.db.Exec(ctx, query,
		id, doc, d.Meta.GamePhase, len(d.Players), d.Meta.CreatedAt, d.Meta.LastUpdated,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return session.ErrExists
		}
		return fmt.Errorf("session/postgres: create: %w", err)
	}
	return nil
}

// Load implements [session.Store].
func (s *Store) Load(ctx context.Context, id string) (*game.Document, error) {
	const query = `SELECT document FROM sessions WHERE id = $1`

	var doc []byte
	if err := s.db.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("session/postgres: load: %w", err)
	}

	var d game.Document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("session/postgres: unmarshal document: %w", err)
	}
	return &d, nil
}

// Save implements [session.Store]. The replacement is a single UPDATE
// statement.
func (s *Store) Save(ctx context.Context, d *game.Document) error {
	prev := d.Meta.LastUpdated
	session.Touch(d)

	doc, err := json.Marshal(d)
	if err != nil {
		d.Meta.LastUpdated = prev
		return fmt.Errorf("session/postgres: marshal document: %w", err)
	}

	const query = `
		UPDATE sessions
		SET document = $2, game_phase = $3, player_count = $4, last_updated = $5
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		d.Meta.SessionID, doc, d.Meta.GamePhase, len(d.Players), d.Meta.LastUpdated,
	)
	if err != nil {
		d.Meta.LastUpdated = prev
		return fmt.Errorf("session/postgres: save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		d.Meta.LastUpdated = prev
		return session.ErrNotFound
	}
	return nil
}

// Delete implements [session.Store].
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("session/postgres: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// List implements [session.Store].
func (s *Store) List(ctx context.Context) ([]session.Summary, error) {
	const query = `
		SELECT id, game_phase, player_count, created_at, last_updated
		FROM sessions
		ORDER BY last_updated DESC, id ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("session/postgres: list: %w", err)
	}
	defer rows.Close()

	out := []session.Summary{}
	for rows.Next() {
		var sum session.Summary
		if err := rows.Scan(&sum.SessionID, &sum.GamePhase, &sum.PlayerCount, &sum.CreatedAt, &sum.LastUpdated); err != nil {
			return nil, fmt.Errorf("session/postgres: scan summary: %w", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		sum.LastUpdated = sum.LastUpdated.UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session/postgres: list rows: %w", err)
	}
	return out, nil
}

// Ping implements [session.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("session/postgres: ping: %w", err)
	}
	return nil
}

// Close closes the pool if the store opened it. Stores built with
// [NewStore] leave db to the caller.
func (s *Store) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
