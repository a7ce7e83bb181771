package game_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2025, 10, 31, 20, 0, 0, 0, time.UTC)

// newEngine returns an engine over the embedded catalog with a frozen clock
// and predictable ids.
func newEngine(t *testing.T) *game.Engine {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	var n atomic.Int64
	return game.New(cat,
		game.WithClock(func() time.Time { return fixedNow }),
		game.WithIDSource(func() string {
			return fmt.Sprintf("%08x-0000-4000-8000-000000000000", n.Add(1))
		}),
	)
}

// newDoc creates a session whose first seat is the AI.
func newDoc(t *testing.T, e *game.Engine, characters ...string) *game.Document {
	t.Helper()
	specs := make([]game.PlayerSpec, len(characters))
	for i, c := range characters {
		specs[i] = game.PlayerSpec{CharacterID: c, IsAI: i == 0}
	}
	d, err := e.NewDocument("session-test", specs)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return d
}

// startedDoc returns a single-player document in the movement phase.
func startedDoc(t *testing.T, e *game.Engine, character string) *game.Document {
	t.Helper()
	d := newDoc(t, e, character)
	if _, err := e.StartTurn(d); err != nil {
		t.Fatalf("StartTurn: %v", err)
	}
	return d
}

// wantKind fails the test unless err is a game error of kind.
func wantKind(t *testing.T, err error, kind game.Kind) *game.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var ge *game.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *game.Error, got %T: %v", err, err)
	}
	if ge.Kind != kind {
		t.Fatalf("error kind = %s, want %s (%v)", ge.Kind, kind, err)
	}
	return ge
}

// checkMap fails the test when a map invariant is broken.
func checkMap(t *testing.T, d *game.Document) {
	t.Helper()
	if err := game.CheckMap(&d.Map); err != nil {
		t.Fatalf("map invariant broken: %v", err)
	}
}

func aiPlayer(t *testing.T, d *game.Document) *game.Player {
	t.Helper()
	ai, ok := d.AIPlayer()
	if !ok {
		t.Fatal("no AI player")
	}
	return ai
}

func intPtr(n int) *int { return &n }
