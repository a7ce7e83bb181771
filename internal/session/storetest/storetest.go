// Package storetest provides a conformance suite that every
// [session.Store] backend runs from its own tests.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/session"
)

// Factory returns an empty store. The suite closes it when the test ends.
type Factory func(t *testing.T) session.Store

// Run exercises the full [session.Store] contract against stores built by
// newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(*testing.T, session.Store)
	}{
		{"RoundTrip", testRoundTrip},
		{"CreateExisting", testCreateExisting},
		{"LoadMissing", testLoadMissing},
		{"SaveMissing", testSaveMissing},
		{"SavePersists", testSavePersists},
		{"Delete", testDelete},
		{"ListOrder", testListOrder},
		{"AppendAction", testAppendAction},
		{"ConcurrentCreate", testConcurrentCreate},
		{"Ping", testPing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() {
				if err := s.Close(); err != nil {
					t.Errorf("Close: %v", err)
				}
			})
			tc.fn(t, s)
		})
	}
}

// Document returns a document with a started turn, a revealed room, a
// pending roll and an open question, so that every nested structure is
// populated.
func Document(t *testing.T, id string) *game.Document {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	e := game.New(cat)
	d, err := e.NewDocument(id, []game.PlayerSpec{
		{CharacterID: "madame-zostra", IsAI: true},
		{CharacterID: "heather-granville", Name: "Heather"},
	})
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	if _, err := e.StartTurn(d); err != nil {
		t.Fatalf("StartTurn: %v", err)
	}
	if _, err := e.Reveal(d, "Ballroom", 0, "right"); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if _, err := e.RequestRoll(d, game.RollRequest{Purpose: game.PurposeEvent, Stat: "sanity"}); err != nil {
		t.Fatalf("RequestRoll: %v", err)
	}
	if _, err := e.AskQuestion(d, "Which card did you draw?", []string{"Omen", "Item"}); err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	return d
}

// Equal compares two documents by their JSON form. Numbers inside free-form
// details decode differently from how they were built, so a struct
// comparison would report false differences.
func Equal(t *testing.T, got, want *game.Document) {
	t.Helper()
	if g, w := normalize(t, got), normalize(t, want); !reflect.DeepEqual(g, w) {
		gj, _ := json.MarshalIndent(g, "", "  ")
		wj, _ := json.MarshalIndent(w, "", "  ")
		t.Errorf("documents differ\n got: %s\nwant: %s", gj, wj)
	}
}

func normalize(t *testing.T, d *game.Document) any {
	t.Helper()
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func create(t *testing.T, s session.Store, id string) *game.Document {
	t.Helper()
	d := Document(t, id)
	if err := s.Create(context.Background(), d); err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
	return d
}

// ─────────────────────────────────────────────────────────────────────────────
// cases
// ─────────────────────────────────────────────────────────────────────────────

func testRoundTrip(t *testing.T, s session.Store) {
	want := create(t, s, "round-trip")

	got, err := s.Load(context.Background(), "round-trip")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	Equal(t, got, want)
	if !got.Meta.CreatedAt.Equal(want.Meta.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.Meta.CreatedAt, want.Meta.CreatedAt)
	}
}

func testCreateExisting(t *testing.T, s session.Store) {
	first := create(t, s, "taken")

	dup := Document(t, "taken")
	dup.Players = dup.Players[:1]
	if err := s.Create(context.Background(), dup); !errors.Is(err, session.ErrExists) {
		t.Fatalf("Create duplicate: err = %v, want ErrExists", err)
	}

	got, err := s.Load(context.Background(), "taken")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Players) != len(first.Players) {
		t.Errorf("duplicate create overwrote the stored document")
	}
}

func testLoadMissing(t *testing.T, s session.Store) {
	for _, id := range []string{"nobody", "../escape", ""} {
		if _, err := s.Load(context.Background(), id); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("Load(%q): err = %v, want ErrNotFound", id, err)
		}
	}
}

func testSaveMissing(t *testing.T, s session.Store) {
	d := Document(t, "ghost")
	if err := s.Save(context.Background(), d); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Save: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Load(context.Background(), "ghost"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Save created the session: Load err = %v", err)
	}
}

func testSavePersists(t *testing.T, s session.Store) {
	ctx := context.Background()
	d := create(t, s, "saved")
	before := d.Meta.LastUpdated

	time.Sleep(2 * time.Millisecond)
	d.TurnState.MovementRemaining = 1
	d.Meta.GamePhase = "haunt"
	if err := s.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !d.Meta.LastUpdated.After(before) {
		t.Errorf("lastUpdated %v not after %v", d.Meta.LastUpdated, before)
	}

	got, err := s.Load(ctx, "saved")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	Equal(t, got, d)
	if got.TurnState.MovementRemaining != 1 {
		t.Errorf("movementRemaining = %d, want 1", got.TurnState.MovementRemaining)
	}
}

func testDelete(t *testing.T, s session.Store) {
	ctx := context.Background()
	create(t, s, "doomed")

	if err := s.Delete(ctx, "doomed"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "doomed"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load after delete: err = %v", err)
	}
	if err := s.Delete(ctx, "doomed"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func testListOrder(t *testing.T, s session.Store) {
	ctx := context.Background()

	empty, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("List on empty store = %v", empty)
	}

	docs := map[string]*game.Document{}
	for _, id := range []string{"alpha", "bravo", "charlie"} {
		docs[id] = create(t, s, id)
	}
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		time.Sleep(2 * time.Millisecond)
		if err := s.Save(ctx, docs[id]); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, sum := range got {
		ids = append(ids, sum.SessionID)
	}
	if want := []string{"bravo", "alpha", "charlie"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("List order = %v, want %v", ids, want)
	}
	if got[0].PlayerCount != 2 || got[0].GamePhase != game.GamePhaseExploration {
		t.Errorf("summary = %+v", got[0])
	}
}

func testAppendAction(t *testing.T, s session.Store) {
	ctx := context.Background()
	d := create(t, s, "logged")

	ok, err := session.AppendAction(ctx, s, "logged", game.ActionLogEntry{
		Turn:     1,
		PlayerID: "player-2",
		Action:   "note",
		Details:  map[string]any{"text": "lights flicker"},
	})
	if err != nil || !ok {
		t.Fatalf("AppendAction = %v, %v", ok, err)
	}

	got, err := s.Load(ctx, "logged")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.ActionLog) != len(d.ActionLog)+1 {
		t.Fatalf("action log length = %d, want %d", len(got.ActionLog), len(d.ActionLog)+1)
	}
	last := got.ActionLog[len(got.ActionLog)-1]
	if last.Action != "note" || last.Timestamp.IsZero() {
		t.Errorf("appended entry = %+v", last)
	}

	ok, err = session.AppendAction(ctx, s, "missing", game.ActionLogEntry{Action: "note"})
	if err != nil || ok {
		t.Errorf("AppendAction(missing) = %v, %v, want false, nil", ok, err)
	}
}

func testConcurrentCreate(t *testing.T, s session.Store) {
	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		exists  int
	)
	docs := make([]*game.Document, writers)
	for i := range docs {
		docs[i] = Document(t, "contended")
		docs[i].Players[1].Name = fmt.Sprintf("writer-%d", i)
	}
	for _, d := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Create(context.Background(), d)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, session.ErrExists):
				exists++
			default:
				t.Errorf("Create: %v", err)
			}
		}()
	}
	wg.Wait()
	if created != 1 || exists != writers-1 {
		t.Errorf("created=%d exists=%d, want 1 and %d", created, exists, writers-1)
	}
}

func testPing(t *testing.T, s session.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
