// Package tracker runs game operations against stored sessions.
//
// Every operation is one load → mutate → save cycle on a single document.
// [Service] serialises cycles per session id inside the process, so two tool
// calls on the same session never interleave, while calls on different
// sessions run in parallel. A document is saved only when the mutation
// succeeds; a failed operation leaves the stored state untouched.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/observe"
	"github.com/MrWong99/hillhouse/internal/session"
)

// Service couples a [game.Engine] with a [session.Store].
// All exported methods are safe for concurrent use.
type Service struct {
	engine  *game.Engine
	store   session.Store
	backend string
	metrics *observe.Metrics
	locks   keyedMutex
}

// Option configures a [Service].
type Option func(*Service)

// WithMetrics sets the metric instruments. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBackend sets the backend label used on store metrics. Defaults to
// "file".
func WithBackend(name string) Option {
	return func(s *Service) { s.backend = name }
}

// New returns a service running engine operations against store.
func New(engine *game.Engine, store session.Store, opts ...Option) *Service {
	s := &Service{
		engine:  engine,
		store:   store,
		backend: "file",
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Engine returns the rules engine operations run on.
func (s *Service) Engine() *game.Engine { return s.engine }

// ── Session lifecycle ────────────────────────────────────────────────────────

// Create builds a new session from specs, stores it and returns the
// document.
func (s *Service) Create(ctx context.Context, specs []game.PlayerSpec) (*game.Document, error) {
	id := s.engine.NewSessionID()
	ctx, span := observe.StartOperation(ctx, "create_game_session", id)
	defer span.End()

	d, err := s.engine.NewDocument(id, specs)
	if err != nil {
		observe.Fail(span, err)
		return nil, err
	}

	start := time.Now()
	err = s.store.Create(ctx, d)
	s.metrics.RecordStoreCall(ctx, s.backend, "create", time.Since(start).Seconds())
	if err != nil {
		observe.Fail(span, err)
		if errors.Is(err, session.ErrExists) {
			return nil, game.SessionExists(id)
		}
		return nil, fmt.Errorf("tracker: create session: %w", err)
	}

	s.metrics.ActiveSessions.Add(ctx, 1)
	observe.Logger(ctx).Info("session created",
		"session_id", id,
		"players", len(d.Players),
		"backend", s.backend,
	)
	return d, nil
}

// Load returns the full document of a session.
func (s *Service) Load(ctx context.Context, sessionID string) (*game.Document, error) {
	return View(ctx, s, "load_game_session", sessionID, func(d *game.Document) (*game.Document, error) {
		return d, nil
	})
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	ctx, span := observe.StartOperation(ctx, "delete_game_session", sessionID)
	defer span.End()

	unlock := s.locks.lock(sessionID)
	defer unlock()

	start := time.Now()
	err := s.store.Delete(ctx, sessionID)
	s.metrics.RecordStoreCall(ctx, s.backend, "delete", time.Since(start).Seconds())
	if err != nil {
		observe.Fail(span, err)
		if errors.Is(err, session.ErrNotFound) {
			return game.SessionNotFound(sessionID)
		}
		return fmt.Errorf("tracker: delete session: %w", err)
	}

	s.metrics.ActiveSessions.Add(ctx, -1)
	observe.Logger(ctx).Info("session deleted", "session_id", sessionID)
	return nil
}

// List returns a summary of every stored session, newest first.
func (s *Service) List(ctx context.Context) ([]session.Summary, error) {
	ctx, span := observe.StartOperation(ctx, "list_game_sessions", "")
	defer span.End()

	start := time.Now()
	out, err := s.store.List(ctx)
	s.metrics.RecordStoreCall(ctx, s.backend, "list", time.Since(start).Seconds())
	if err != nil {
		observe.Fail(span, err)
		return nil, fmt.Errorf("tracker: list sessions: %w", err)
	}
	return out, nil
}

// CountSessions seeds the active session gauge from the store. Call it once
// at startup.
func (s *Service) CountSessions(ctx context.Context) (int, error) {
	out, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.ActiveSessions.Add(ctx, int64(len(out)))
	return len(out), nil
}

// ── Operations ───────────────────────────────────────────────────────────────

// Mutate runs fn on the stored document of sessionID and saves the result
// when fn succeeds. The session is locked for the whole cycle. op names the
// operation in spans and logs.
func Mutate[R any](ctx context.Context, s *Service, op, sessionID string, fn func(*game.Document) (R, error)) (R, error) {
	var zero R
	ctx, span := observe.StartOperation(ctx, op, sessionID)
	defer span.End()

	unlock := s.locks.lock(sessionID)
	defer unlock()

	d, err := s.load(ctx, sessionID)
	if err != nil {
		observe.Fail(span, err)
		return zero, err
	}

	rooms, entries := len(d.Map.PlacedRooms), len(d.ActionLog)
	res, err := fn(d)
	if err != nil {
		observe.Fail(span, err)
		observe.Logger(ctx).Debug("operation rejected", "op", op, "session_id", sessionID, "err", err)
		return zero, err
	}

	if err := s.save(ctx, d); err != nil {
		observe.Fail(span, err)
		return zero, err
	}
	s.recordChanges(ctx, d, rooms, entries)
	observe.Logger(ctx).Debug("operation applied", "op", op, "session_id", sessionID)
	return res, nil
}

// View runs fn on the stored document of sessionID without saving. Readers
// do not take the session lock: every store replaces documents atomically.
func View[R any](ctx context.Context, s *Service, op, sessionID string, fn func(*game.Document) (R, error)) (R, error) {
	var zero R
	ctx, span := observe.StartOperation(ctx, op, sessionID)
	defer span.End()

	d, err := s.load(ctx, sessionID)
	if err != nil {
		observe.Fail(span, err)
		return zero, err
	}
	res, err := fn(d)
	if err != nil {
		observe.Fail(span, err)
		return zero, err
	}
	return res, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*game.Document, error) {
	start := time.Now()
	d, err := s.store.Load(ctx, sessionID)
	s.metrics.RecordStoreCall(ctx, s.backend, "load", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, game.SessionNotFound(sessionID)
		}
		return nil, fmt.Errorf("tracker: load session: %w", err)
	}
	return d, nil
}

func (s *Service) save(ctx context.Context, d *game.Document) error {
	start := time.Now()
	err := s.store.Save(ctx, d)
	s.metrics.RecordStoreCall(ctx, s.backend, "save", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return game.SessionNotFound(d.Meta.SessionID)
		}
		observe.Logger(ctx).Error("session save failed", "session_id", d.Meta.SessionID, "err", err)
		return fmt.Errorf("tracker: save session: %w", err)
	}
	return nil
}

// recordChanges counts rooms placed and dice results logged by the last
// mutation.
func (s *Service) recordChanges(ctx context.Context, d *game.Document, rooms, entries int) {
	for _, r := range d.Map.PlacedRooms[min(rooms, len(d.Map.PlacedRooms)):] {
		s.metrics.RecordRoomRevealed(ctx, string(r.Floor))
	}
	for _, e := range d.ActionLog[min(entries, len(d.ActionLog)):] {
		if e.Action == "dice_roll" {
			s.metrics.RecordDiceRoll(ctx, fmt.Sprint(e.Details["purpose"]))
		}
	}
}
