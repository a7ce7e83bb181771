package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/observe"
	"github.com/MrWong99/hillhouse/internal/session"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

// countingStore wraps a store, counting saves and optionally failing them.
type countingStore struct {
	session.Store
	saves   atomic.Int64
	saveErr error
}

func (c *countingStore) Save(ctx context.Context, d *game.Document) error {
	c.saves.Add(1)
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.Store.Save(ctx, d)
}

type fixture struct {
	svc    *Service
	store  *countingStore
	reader *sdkmetric.ManualReader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	fs, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	store := &countingStore{Store: fs}
	return &fixture{
		svc:    New(game.New(cat), store, WithMetrics(m), WithBackend("file")),
		store:  store,
		reader: reader,
	}
}

func (f *fixture) create(t *testing.T, characters ...string) string {
	t.Helper()
	specs := make([]game.PlayerSpec, len(characters))
	for i, c := range characters {
		specs[i] = game.PlayerSpec{CharacterID: c, IsAI: i == 0}
	}
	d, err := f.svc.Create(context.Background(), specs)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return d.Meta.SessionID
}

// sum returns the value of an int64 sum metric, filtered by one attribute
// when key is non-empty.
func (f *fixture) sum(t *testing.T, name, key, value string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := f.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			s, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not an int64 sum", name)
			}
			for _, dp := range s.DataPoints {
				if key != "" {
					if v, ok := dp.Attributes.Value(attribute.Key(key)); !ok || v.AsString() != value {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

// ─────────────────────────────────────────────────────────────────────────────
// lifecycle
// ─────────────────────────────────────────────────────────────────────────────

func TestService_CreateLoadDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id := f.create(t, "father-rhinehardt", "heather-granville")
	if got := f.sum(t, "hillhouse.active_sessions", "", ""); got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}

	d, err := f.svc.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Players) != 2 || d.Meta.SessionID != id {
		t.Errorf("loaded document = %+v", d.Meta)
	}

	list, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].SessionID != id {
		t.Errorf("List = %+v", list)
	}

	if err := f.svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.sum(t, "hillhouse.active_sessions", "", ""); got != 0 {
		t.Errorf("active sessions after delete = %d, want 0", got)
	}

	_, err = f.svc.Load(ctx, id)
	if !game.IsKind(err, game.KindNotFound) || !strings.HasPrefix(err.Error(), "Session not found: ") {
		t.Errorf("Load after delete: err = %v", err)
	}
	if err := f.svc.Delete(ctx, id); !game.IsKind(err, game.KindNotFound) {
		t.Errorf("second Delete: err = %v", err)
	}
}

func TestService_CreateRejectsBadRoster(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), nil)
	if !game.IsKind(err, game.KindValidation) {
		t.Fatalf("Create(nil): err = %v, want validation", err)
	}
	list, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected roster was stored: %+v", list)
	}
}

func TestService_CountSessions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.create(t, "father-rhinehardt")
	f.create(t, "madame-zostra")

	other := New(f.svc.Engine(), f.store, WithMetrics(f.svc.metrics))
	n, err := other.CountSessions(context.Background())
	if err != nil {
		t.Fatalf("CountSessions: %v", err)
	}
	if n != 2 {
		t.Errorf("CountSessions = %d, want 2", n)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutate / View
// ─────────────────────────────────────────────────────────────────────────────

func TestMutate_UnknownSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	called := false
	_, err := Mutate(context.Background(), f.svc, "start_turn", "no-such-session", func(d *game.Document) (struct{}, error) {
		called = true
		return struct{}{}, nil
	})
	ge, ok := game.AsError(err)
	if !ok || ge.Kind != game.KindNotFound || ge.Message != "Session not found: no-such-session" {
		t.Fatalf("err = %v, want session not found", err)
	}
	if called {
		t.Error("fn ran without a document")
	}
}

// TestMutate_FailureDoesNotSave verifies that a rejected operation leaves
// the stored document untouched.
func TestMutate_FailureDoesNotSave(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "father-rhinehardt")

	_, err := Mutate(ctx, f.svc, "move_direction", id, func(d *game.Document) (game.MoveResult, error) {
		d.TurnState.MovementRemaining = 99
		return f.svc.Engine().Move(d, "down")
	})
	if !game.IsKind(err, game.KindPrecondition) {
		t.Fatalf("Move through the front door: err = %v, want precondition", err)
	}
	if n := f.store.saves.Load(); n != 0 {
		t.Errorf("saves = %d, want 0", n)
	}

	d, err := f.svc.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.TurnState.MovementRemaining != 0 {
		t.Errorf("movementRemaining = %d, stored state was modified", d.TurnState.MovementRemaining)
	}
}

func TestMutate_SaveFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.create(t, "father-rhinehardt")
	disk := errors.New("disk full")
	f.store.saveErr = disk

	_, err := Mutate(context.Background(), f.svc, "start_turn", id, func(d *game.Document) (game.StartTurnResult, error) {
		return f.svc.Engine().StartTurn(d)
	})
	if !errors.Is(err, disk) {
		t.Fatalf("err = %v, want wrapped disk error", err)
	}
	if _, ok := game.AsError(err); ok {
		t.Error("infrastructure error reported as a game error")
	}
}

func TestMutate_RecordsDomainMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "father-rhinehardt")
	e := f.svc.Engine()

	if _, err := Mutate(ctx, f.svc, "start_turn", id, func(d *game.Document) (game.StartTurnResult, error) {
		return e.StartTurn(d)
	}); err != nil {
		t.Fatalf("start_turn: %v", err)
	}
	if _, err := Mutate(ctx, f.svc, "reveal_room", id, func(d *game.Document) (game.RevealResult, error) {
		return e.Reveal(d, "Ballroom", 0, "right")
	}); err != nil {
		t.Fatalf("reveal_room: %v", err)
	}
	roll, err := Mutate(ctx, f.svc, "request_dice_roll", id, func(d *game.Document) (game.RollPrompt, error) {
		return e.RequestRoll(d, game.RollRequest{Purpose: game.PurposeEvent})
	})
	if err != nil {
		t.Fatalf("request_dice_roll: %v", err)
	}
	if _, err := Mutate(ctx, f.svc, "record_dice_result", id, func(d *game.Document) (game.RollOutcome, error) {
		return e.RecordResult(d, roll.RollID, 3)
	}); err != nil {
		t.Fatalf("record_dice_result: %v", err)
	}

	if got := f.sum(t, "hillhouse.rooms.revealed", "floor", "ground"); got != 1 {
		t.Errorf("rooms revealed = %d, want 1", got)
	}
	if got := f.sum(t, "hillhouse.dice.rolls", "purpose", game.PurposeEvent); got != 1 {
		t.Errorf("dice rolls = %d, want 1", got)
	}
}

// TestMutate_SerialisesPerSession verifies that concurrent operations on one
// session never lose an update.
func TestMutate_SerialisesPerSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "father-rhinehardt")
	e := f.svc.Engine()

	const writers = 16
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Mutate(ctx, f.svc, "request_dice_roll", id, func(d *game.Document) (game.RollPrompt, error) {
				return e.RequestRoll(d, game.RollRequest{Purpose: game.PurposeEvent})
			})
			if err != nil {
				t.Errorf("request_dice_roll: %v", err)
			}
		}()
	}
	wg.Wait()

	pending, err := View(ctx, f.svc, "get_pending_rolls", id, func(d *game.Document) (game.PendingRollsView, error) {
		return e.PendingRolls(d), nil
	})
	if err != nil {
		t.Fatalf("get_pending_rolls: %v", err)
	}
	if pending.Count != writers {
		t.Errorf("pending rolls = %d, want %d", pending.Count, writers)
	}
	if n := f.svc.locks.size(); n != 0 {
		t.Errorf("lock table holds %d entries after all operations", n)
	}
}

func TestView_DoesNotSave(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.create(t, "father-rhinehardt")

	_, err := View(context.Background(), f.svc, "get_turn_state", id, func(d *game.Document) (game.TurnStateView, error) {
		d.TurnState.MovementRemaining = 42
		return f.svc.Engine().TurnState(d), nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if n := f.store.saves.Load(); n != 0 {
		t.Errorf("saves = %d, want 0", n)
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	t.Parallel()
	var k keyedMutex

	unlockA := k.lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.lock("b")
		unlockB()
		close(done)
	}()
	<-done
	if n := k.size(); n != 1 {
		t.Errorf("size = %d, want 1 while a is held", n)
	}
	unlockA()
	if n := k.size(); n != 0 {
		t.Errorf("size = %d, want 0", n)
	}
}
