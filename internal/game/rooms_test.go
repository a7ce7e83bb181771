package game_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
)

func TestCollectToken_Omen(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := startedDoc(t, e, "father-rhinehardt")

	_, err := e.CollectToken(d, "")
	wantKind(t, err, game.KindPrecondition)

	if _, err := e.Reveal(d, "Dining Room", 270, "right"); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	res, err := e.CollectToken(d, " Crystal Ball ")
	if err != nil {
		t.Fatalf("CollectToken: %v", err)
	}
	if res.OmensRevealed != 1 || d.TokenDecks.OmensRevealed != 1 {
		t.Errorf("omensRevealed = %d", d.TokenDecks.OmensRevealed)
	}
	if !slices.Equal(res.Inventory, []string{"Crystal Ball"}) {
		t.Errorf("inventory = %v", res.Inventory)
	}
	if res.Message != "Collected omen token in Dining Room: Crystal Ball" {
		t.Errorf("message = %q", res.Message)
	}

	_, err = e.CollectToken(d, "")
	wantKind(t, err, game.KindPrecondition)
	if d.TokenDecks.OmensRevealed != 1 {
		t.Error("second collect changed the omen count")
	}
}

func TestCollectToken_RequiresMovementPhase(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := newDoc(t, e, "father-rhinehardt")

	_, err := e.CollectToken(d, "")
	ge := wantKind(t, err, game.KindPrecondition)
	if ge.Details["phase"] != string(game.PhaseWaiting) {
		t.Errorf("phase detail = %v", ge.Details["phase"])
	}
}

func TestRoomDoors(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := newDoc(t, e, "father-rhinehardt")

	got, err := e.RoomDoors(d, "room-003")
	if err != nil {
		t.Fatalf("RoomDoors: %v", err)
	}
	if got.RoomName != game.GrandStaircase || got.DoorCount != 2 || len(got.Doors) != 4 {
		t.Fatalf("RoomDoors = %+v", got)
	}
	bottom := got.Doors[catalog.SideBottom]
	if !bottom.IsExplored || bottom.ConnectedRoomName != game.Foyer {
		t.Errorf("bottom = %+v", bottom)
	}
	if top := got.Doors[catalog.SideTop]; top.Kind != catalog.KindStairs || top.IsExplored {
		t.Errorf("top = %+v", top)
	}
	if left := got.Doors[catalog.SideLeft]; left.HasDoor {
		t.Errorf("left = %+v, want no door", left)
	}

	_, err = e.RoomDoors(d, "room-900")
	ge := wantKind(t, err, game.KindNotFound)
	if ids, _ := ge.Details["placedRooms"].([]string); len(ids) != 3 {
		t.Errorf("placedRooms = %v", ge.Details["placedRooms"])
	}
}

func TestDoorConnections(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := newDoc(t, e, "father-rhinehardt")

	got, err := e.DoorConnections(d, "")
	if err != nil {
		t.Fatalf("DoorConnections: %v", err)
	}
	if got.RoomName != game.EntranceHall {
		t.Fatalf("room = %s", got.RoomName)
	}
	if !slices.Equal(got.ExploredDoors, []catalog.Side{catalog.SideTop}) {
		t.Errorf("explored = %v", got.ExploredDoors)
	}
	if !slices.Equal(got.UnexploredDoors, []catalog.Side{catalog.SideRight, catalog.SideLeft}) {
		t.Errorf("unexplored = %v", got.UnexploredDoors)
	}
	if c := got.Connections[catalog.SideBottom]; c.Status != game.DoorBlocked {
		t.Errorf("bottom status = %s", c.Status)
	}
	if got.Summary != (game.ConnectionSummary{Explored: 1, Unexplored: 2}) {
		t.Errorf("summary = %+v", got.Summary)
	}
}

func TestRoomEffects(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := newDoc(t, e, "father-rhinehardt")

	got, err := e.RoomEffects(d, "room-003")
	if err != nil {
		t.Fatalf("RoomEffects: %v", err)
	}
	if got.Text != "Leads to Upper Landing" || !got.TokenCollected {
		t.Errorf("RoomEffects = %+v", got)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GameState
// ─────────────────────────────────────────────────────────────────────────────

func TestGameState_Sections(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := newDoc(t, e, "father-rhinehardt", "heather-granville")
	if _, err := e.StartTurn(d); err != nil {
		t.Fatalf("StartTurn: %v", err)
	}
	for range 12 {
		if _, err := e.AskQuestion(d, "filler", nil); err != nil {
			t.Fatalf("AskQuestion: %v", err)
		}
		if _, err := e.RecordOtherPlayerAction(d, "player-2", "noise", nil); err != nil {
			t.Fatalf("RecordOtherPlayerAction: %v", err)
		}
	}

	summary, err := e.GameState(d, nil)
	if err != nil {
		t.Fatalf("GameState: %v", err)
	}
	if summary.Summary == nil || summary.Players != nil || summary.Map != nil {
		t.Fatalf("default projection = %+v", summary)
	}
	if s := summary.Summary; s.RoomsPlaced != 3 || !s.IsAITurn || s.AIPlayerID != "player-1" || s.Phase != game.PhaseMovement {
		t.Errorf("summary = %+v", s)
	}

	full, err := e.GameState(d, []string{"Map", "actionLog", "inventory"})
	if err != nil {
		t.Fatalf("GameState: %v", err)
	}
	if full.Summary != nil || full.Map == nil || full.Players != nil {
		t.Errorf("sectioned projection = %+v", full)
	}
	if len(full.ActionLog) != 10 {
		t.Errorf("actionLog entries = %d, want 10", len(full.ActionLog))
	}
	if full.Inventory == nil || len(full.Inventory) != 0 {
		t.Errorf("inventory = %v, want empty", full.Inventory)
	}

	_, err = e.GameState(d, []string{"secrets"})
	ge := wantKind(t, err, game.KindValidation)
	if _, ok := ge.Details["validSections"]; !ok {
		t.Error("unknown section error should list validSections")
	}
}

func TestTurnState_View(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	d := startedDoc(t, e, "father-rhinehardt")
	if _, err := e.Move(d, "left"); err != nil {
		t.Fatalf("Move: %v", err)
	}

	v := e.TurnState(d)
	if !v.IsAITurn || v.MovementRemaining != 3 || v.PendingReveal == nil || v.CurrentPlayer.ID != "player-1" {
		t.Errorf("TurnState = %+v", v)
	}
	if v.PendingRolls == nil || v.ActionsThisTurn == nil {
		t.Error("TurnState lists must be non-nil")
	}
}
