package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/session"
)

// Store is a [session.Store] whose calls pass through a [CircuitBreaker].
type Store struct {
	next    session.Store
	breaker *CircuitBreaker
}

var _ session.Store = (*Store)(nil)

// GuardStore wraps next with a breaker built from cfg. Answers that prove the
// backend is reachable (a missing or duplicate session, a cancelled caller)
// are not counted as failures unless cfg.IsFailure says otherwise.
func GuardStore(next session.Store, cfg CircuitBreakerConfig) *Store {
	if cfg.IsFailure == nil {
		cfg.IsFailure = IsBackendFailure
	}
	return &Store{next: next, breaker: NewCircuitBreaker(cfg)}
}

// IsBackendFailure reports whether err indicates the storage backend itself
// is unhealthy.
func IsBackendFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrExists),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Breaker returns the breaker guarding the store.
func (s *Store) Breaker() *CircuitBreaker { return s.breaker }

func (s *Store) do(op string, fn func() error) error {
	err := s.breaker.Execute(fn)
	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("session store %s: %w", op, err)
	}
	return err
}

// Create implements [session.Store].
func (s *Store) Create(ctx context.Context, d *game.Document) error {
	return s.do("create", func() error { return s.next.Create(ctx, d) })
}

// Load implements [session.Store].
func (s *Store) Load(ctx context.Context, id string) (*game.Document, error) {
	var d *game.Document
	err := s.do("load", func() error {
		var err error
		d, err = s.next.Load(ctx, id)
		return err
	})
	return d, err
}

// Save implements [session.Store].
func (s *Store) Save(ctx context.Context, d *game.Document) error {
	return s.do("save", func() error { return s.next.Save(ctx, d) })
}

// Delete implements [session.Store].
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.do("delete", func() error { return s.next.Delete(ctx, id) })
}

// List implements [session.Store].
func (s *Store) List(ctx context.Context) ([]session.Summary, error) {
	var out []session.Summary
	err := s.do("list", func() error {
		var err error
		out, err = s.next.List(ctx)
		return err
	})
	return out, err
}

// Ping implements [session.Store]. An open breaker fails the ping, which
// takes the service out of readiness until the backend recovers.
func (s *Store) Ping(ctx context.Context) error {
	return s.do("ping", func() error { return s.next.Ping(ctx) })
}

// Close closes the wrapped store directly.
func (s *Store) Close() error { return s.next.Close() }
