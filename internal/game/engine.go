// Package game implements the rules-light state machine behind a Betrayal at
// House on the Hill session: the house map and its rotation matching, the
// movement and reveal resolver, turn cycling, the dice-roll protocol and the
// question protocol used to learn about other players' turns.
//
// Every operation takes a *[Document] and either mutates it in place and
// returns a result, or returns a *[Error] and leaves the document untouched.
// The package performs no I/O; loading and saving documents is the job of the
// session stores and the tracker.
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// MaxPlayers is the largest table the game supports.
const MaxPlayers = 6

// DefaultMovement is used when the AI's character has no speed trait.
const DefaultMovement = 4

// Option is a functional option for [New].
type Option func(*Engine)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDSource overrides the generator used for roll, question and request
// ids. The function must return a fresh UUID-formatted string on every call.
func WithIDSource(next func() string) Option {
	return func(e *Engine) {
		e.newID = next
	}
}

// Engine applies game operations to session documents. It holds only
// immutable reference data and is safe for concurrent use as long as callers
// do not share a *Document between goroutines.
type Engine struct {
	catalog *catalog.Catalog
	now     func() time.Time
	newID   func() string
}

// New returns an Engine backed by cat.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Catalog returns the reference data the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

func (e *Engine) timestamp() time.Time {
	return e.now().UTC()
}

// shortID returns the first eight characters of a fresh UUID.
func (e *Engine) shortID() string {
	id := e.newID()
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// NewSessionID returns a fresh session id.
func (e *Engine) NewSessionID() string {
	return e.newID()
}

// logAction appends an audit entry for the current turn.
func (e *Engine) logAction(d *Document, playerID, action string, details map[string]any) {
	d.ActionLog = append(d.ActionLog, ActionLogEntry{
		Turn:      d.TurnState.CurrentTurnNumber,
		PlayerID:  playerID,
		Action:    action,
		Details:   details,
		Timestamp: e.timestamp(),
	})
}

// noteAction records the action name in the per-turn summary list.
func noteAction(d *Document, action string) {
	d.TurnState.ActionsThisTurn = append(d.TurnState.ActionsThisTurn, action)
}
