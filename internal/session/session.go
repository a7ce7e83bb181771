// Package session persists game documents.
//
// A [Store] holds one JSON document per session id. Three backends exist: the
// [FileStore] in this package writes one file per session, and the sqlite and
// postgres sub-packages keep documents in a single table. Every backend
// writes a document atomically and never creates a session on Save.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrWong99/hillhouse/internal/game"
)

// Sentinel errors shared by all backends.
var (
	// ErrNotFound is returned when no session with the given id exists.
	ErrNotFound = errors.New("session: not found")

	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("session: already exists")
)

// Store is the persistence contract for game documents.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create writes a new document. It fails with [ErrExists] if a session
	// with the same id is already stored.
	Create(ctx context.Context, d *game.Document) error

	// Load returns the full document or [ErrNotFound].
	Load(ctx context.Context, id string) (*game.Document, error)

	// Save replaces an existing document and refreshes d.Meta.LastUpdated.
	// It fails with [ErrNotFound] instead of creating the session.
	Save(ctx context.Context, d *game.Document) error

	// Delete removes a session. A missing session is [ErrNotFound].
	Delete(ctx context.Context, id string) error

	// List returns one summary per stored session, most recently updated
	// first.
	List(ctx context.Context) ([]Summary, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Summary is the listing view of a stored session.
type Summary struct {
	SessionID   string    `json:"sessionId"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
	GamePhase   string    `json:"gamePhase"`
	PlayerCount int       `json:"playerCount"`
}

// Summarize returns the listing view of d.
func Summarize(d *game.Document) Summary {
	return Summary{
		SessionID:   d.Meta.SessionID,
		CreatedAt:   d.Meta.CreatedAt,
		LastUpdated: d.Meta.LastUpdated,
		GamePhase:   d.Meta.GamePhase,
		PlayerCount: len(d.Players),
	}
}

// SortSummaries orders summaries by LastUpdated, newest first. Ties are
// broken by session id so the order is stable.
func SortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.LastUpdated.Compare(a.LastUpdated); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
}

// Touch stamps d as updated now. Backends call it from Save.
func Touch(d *game.Document) {
	d.Meta.LastUpdated = time.Now().UTC()
}

// AppendAction loads a session, appends entry to its action log and saves
// it. A zero timestamp is filled in. It reports false if the session does not
// exist.
func AppendAction(ctx context.Context, s Store, id string, entry game.ActionLogEntry) (bool, error) {
	d, err := s.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: append action: %w", err)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	d.ActionLog = append(d.ActionLog, entry)
	if err := s.Save(ctx, d); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("session: append action: %w", err)
	}
	return true, nil
}

// ValidID reports whether id is safe to use as a storage key. Ids are
// restricted to letters, digits, '-' and '_'.
func ValidID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
