package game_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
)

func TestRotate(t *testing.T) {
	t.Parallel()

	// A tile with a plain door on top and stairs on the right.
	doors := []catalog.Door{
		{Side: catalog.SideTop, Kind: catalog.KindDoor},
		{Side: catalog.SideRight, Kind: catalog.KindStairs},
	}

	tests := []struct {
		degrees   int
		wantDoor  catalog.Side
		wantStair catalog.Side
	}{
		{0, catalog.SideTop, catalog.SideRight},
		{90, catalog.SideRight, catalog.SideBottom},
		{180, catalog.SideBottom, catalog.SideLeft},
		{270, catalog.SideLeft, catalog.SideTop},
	}
	for _, tc := range tests {
		got, err := game.Rotate(doors, tc.degrees)
		if err != nil {
			t.Fatalf("Rotate(%d): %v", tc.degrees, err)
		}
		if len(got) != 2 {
			t.Fatalf("Rotate(%d) = %d doors, want 2", tc.degrees, len(got))
		}
		if d, ok := got[tc.wantDoor]; !ok || d.Kind != catalog.KindDoor || d.ConnectedTo != nil {
			t.Errorf("Rotate(%d)[%s] = %+v, want unconnected door", tc.degrees, tc.wantDoor, d)
		}
		if d, ok := got[tc.wantStair]; !ok || d.Kind != catalog.KindStairs {
			t.Errorf("Rotate(%d)[%s] = %+v, want stairs", tc.degrees, tc.wantStair, d)
		}
	}
}

func TestRotate_InvalidDegrees(t *testing.T) {
	t.Parallel()

	for _, deg := range []int{45, -90, 360} {
		_, err := game.Rotate(nil, deg)
		wantKind(t, err, game.KindValidation)
	}
}

func TestNormalizeDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want catalog.Side
	}{
		{"up", catalog.SideTop},
		{"UP", catalog.SideTop},
		{"down", catalog.SideBottom},
		{" Left ", catalog.SideLeft},
		{"right", catalog.SideRight},
		{"top", catalog.SideTop},
		{"bottom", catalog.SideBottom},
	}
	for _, tc := range tests {
		got, err := game.NormalizeDirection(tc.in)
		if err != nil {
			t.Errorf("NormalizeDirection(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeDirection(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	_, err := game.NormalizeDirection("north")
	ge := wantKind(t, err, game.KindValidation)
	if _, ok := ge.Details["validDirections"]; !ok {
		t.Error("invalid direction error should list validDirections")
	}
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	m, err := e.Bootstrap()
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := game.CheckMap(&m); err != nil {
		t.Fatalf("CheckMap: %v", err)
	}
	if m.NextRoomID != 4 {
		t.Errorf("NextRoomID = %d, want 4", m.NextRoomID)
	}

	want := []struct {
		id, name string
		x, y     int
	}{
		{"room-001", game.EntranceHall, 0, -1},
		{"room-002", game.Foyer, 0, 0},
		{"room-003", game.GrandStaircase, 0, 1},
	}
	if len(m.PlacedRooms) != len(want) {
		t.Fatalf("placed rooms = %d, want %d", len(m.PlacedRooms), len(want))
	}
	for i, w := range want {
		r := m.PlacedRooms[i]
		if r.InstanceID != w.id || r.RoomName != w.name || r.X != w.x || r.Y != w.y {
			t.Errorf("room %d = %s %s (%d,%d), want %s %s (%d,%d)", i, r.InstanceID, r.RoomName, r.X, r.Y, w.id, w.name, w.x, w.y)
		}
		if r.Floor != catalog.FloorGround || r.Rotation != 0 || !r.TokenCollected {
			t.Errorf("room %s: floor=%s rotation=%d tokenCollected=%v", r.InstanceID, r.Floor, r.Rotation, r.TokenCollected)
		}
	}

	eh := m.PlacedRooms[0]
	if got := eh.Doors[catalog.SideTop].ConnectedTo; got == nil || *got != "room-002" {
		t.Errorf("Entrance Hall top -> %v, want room-002", got)
	}
	if got := eh.Doors[catalog.SideBottom].Kind; got != catalog.KindFrontDoor {
		t.Errorf("Entrance Hall bottom kind = %s, want front-door", got)
	}
}

func TestCheckMap_DetectsViolations(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	t.Run("overlap", func(t *testing.T) {
		t.Parallel()
		m, _ := e.Bootstrap()
		dup := m.PlacedRooms[1]
		dup.InstanceID = "room-099"
		dup.Doors = map[catalog.Side]game.Door{}
		m.PlacedRooms = append(m.PlacedRooms, dup)
		if err := game.CheckMap(&m); err == nil {
			t.Error("CheckMap should reject two rooms in one cell")
		}
	})

	t.Run("asymmetric", func(t *testing.T) {
		t.Parallel()
		m, _ := e.Bootstrap()
		d := m.PlacedRooms[1].Doors[catalog.SideBottom]
		d.ConnectedTo = nil
		m.PlacedRooms[1].Doors[catalog.SideBottom] = d
		if err := game.CheckMap(&m); err == nil {
			t.Error("CheckMap should reject a one-sided door link")
		}
	})
}

func TestCalculateValidRotations(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	tests := []struct {
		room      string
		entry     string
		want      []int
		wantDoor  catalog.Side
		wantError bool
	}{
		{"Ballroom", "right", []int{0, 90, 180, 270}, catalog.SideLeft, false},
		{"Coal Chute", "right", []int{270}, catalog.SideLeft, false},
		{"Dining Room", "right", []int{180, 270}, catalog.SideLeft, false},
		{"coal chute", "down", []int{0}, catalog.SideTop, false},
	}
	for _, tc := range tests {
		t.Run(tc.room+"/"+tc.entry, func(t *testing.T) {
			t.Parallel()
			plan, err := e.CalculateValidRotations(tc.room, tc.entry)
			if err != nil {
				t.Fatalf("CalculateValidRotations: %v", err)
			}
			got := make([]int, len(plan.ValidRotations))
			for i, r := range plan.ValidRotations {
				got[i] = r.Rotation
				if r.ConnectionDoor != tc.wantDoor {
					t.Errorf("rotation %d connectionDoor = %s, want %s", r.Rotation, r.ConnectionDoor, tc.wantDoor)
				}
				if !slices.Contains(r.ResultingDoors, tc.wantDoor) {
					t.Errorf("rotation %d doors %v lack %s", r.Rotation, r.ResultingDoors, tc.wantDoor)
				}
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("valid rotations = %v, want %v", got, tc.want)
			}
			if plan.Recommended != tc.want[0] || plan.Count != len(tc.want) {
				t.Errorf("recommended=%d count=%d, want %d and %d", plan.Recommended, plan.Count, tc.want[0], len(tc.want))
			}
		})
	}

	_, err := e.CalculateValidRotations("Observatory", "up")
	wantKind(t, err, game.KindNotFound)
}
