package game

import (
	"fmt"
	"slices"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// TraversalResult is returned by the operations that move the AI between
// rooms without walking through a door: stairs, stair reveals and slides.
type TraversalResult struct {
	Success           bool     `json:"success"`
	From              Position `json:"from"`
	NewPosition       Position `json:"newPosition"`
	Room              RoomRef  `json:"room"`
	MovementRemaining int      `json:"movementRemaining"`
	Message           string   `json:"message"`
}

// stairLink resolves the stair transition from the AI's room to floor.
func (e *Engine) stairLink(room *PlacedRoom, floor string) (catalog.StairLink, error) {
	tpl, _ := e.catalog.Room(room.RoomName)
	hasStairs := tpl.Stairwell
	for _, d := range room.Doors {
		if d.Kind == catalog.KindStairs {
			hasStairs = true
		}
	}
	if !hasStairs {
		return catalog.StairLink{}, precondition("Current room does not have stairs").
			With("roomName", room.RoomName)
	}

	links := e.catalog.StairsFrom(room.RoomName)
	valid := make([]catalog.Floor, 0, len(links))
	for _, l := range links {
		if string(l.Floor) == floor {
			return l, nil
		}
		valid = append(valid, l.Floor)
	}
	return catalog.StairLink{}, precondition("Cannot go to %s from %s", floor, room.RoomName).
		With("validFloors", valid)
}

// UseStairs takes the stairs from the AI's room to the landing on
// targetFloor. The landing must already be on the map.
func (e *Engine) UseStairs(d *Document, targetFloor string) (TraversalResult, error) {
	ai, err := requireMovement(d)
	if err != nil {
		return TraversalResult{}, err
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return TraversalResult{}, err
	}
	l, err := e.stairLink(room, targetFloor)
	if err != nil {
		return TraversalResult{}, err
	}
	dest, ok := d.Map.RoomByName(l.To)
	if !ok {
		return TraversalResult{}, precondition("Target room %s not yet placed on map", l.To).
			With("needsReveal", true).
			With("targetRoom", l.To)
	}
	return e.traverse(d, ai, dest, "use_stairs", map[string]any{"targetFloor": string(l.Floor)},
		fmt.Sprintf("Moved to %s floor via stairs", l.Floor)), nil
}

// RevealStairsDestination places the landing reached by the stairs from the
// AI's room and takes the stairs onto it. Landings anchor their floor at
// (0,0) and have no door links to the room they are reached from.
func (e *Engine) RevealStairsDestination(d *Document, targetFloor string) (TraversalResult, error) {
	ai, err := requireMovement(d)
	if err != nil {
		return TraversalResult{}, err
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return TraversalResult{}, err
	}
	l, err := e.stairLink(room, targetFloor)
	if err != nil {
		return TraversalResult{}, err
	}
	if existing, ok := d.Map.RoomByName(l.To); ok {
		return TraversalResult{}, precondition("%s is already placed; use use_stairs", l.To).
			With("roomId", existing.InstanceID)
	}
	if occupant, taken := d.Map.RoomAt(l.Floor, 0, 0); taken {
		return TraversalResult{}, precondition("Position (0, 0) on %s floor already has a room", l.Floor).
			With("occupiedBy", occupant.RoomName)
	}
	tpl, ok := e.catalog.Room(l.To)
	if !ok {
		return TraversalResult{}, notFound("Room not found: %s", l.To)
	}
	doors, err := Rotate(tpl.Doors, 0)
	if err != nil {
		return TraversalResult{}, err
	}
	d.Map.PlacedRooms = append(d.Map.PlacedRooms, PlacedRoom{
		InstanceID:     d.Map.nextInstanceID(),
		RoomName:       tpl.Name,
		Floor:          l.Floor,
		Doors:          doors,
		Tokens:         slices.Clone(tpl.Tokens),
		TokenCollected: len(tpl.Tokens) == 0,
		SlideTo:        tpl.SlideTo,
	})
	dest := &d.Map.PlacedRooms[len(d.Map.PlacedRooms)-1]
	d.Map.linkNeighbours(dest)
	return e.traverse(d, ai, dest, "reveal_stairs", map[string]any{
		"targetFloor": string(l.Floor),
		"roomName":    dest.RoomName,
		"roomId":      dest.InstanceID,
	}, fmt.Sprintf("Placed %s and moved to %s floor", dest.RoomName, l.Floor)), nil
}

// UseSlide drops the AI down the one-way chute of its current room.
func (e *Engine) UseSlide(d *Document) (TraversalResult, error) {
	ai, err := requireMovement(d)
	if err != nil {
		return TraversalResult{}, err
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return TraversalResult{}, err
	}
	if room.SlideTo == "" {
		return TraversalResult{}, precondition("%s has no slide", room.RoomName)
	}
	dest, ok := d.Map.RoomByName(room.SlideTo)
	if !ok {
		return TraversalResult{}, precondition("Slide destination %s not yet placed on map", room.SlideTo).
			With("needsReveal", true).
			With("targetRoom", room.SlideTo)
	}
	return e.traverse(d, ai, dest, "use_slide", map[string]any{"targetRoom": dest.RoomName},
		"Slid down to "+dest.RoomName), nil
}

// traverse relocates the AI to dest, spends one movement point and logs the
// action. details receives from/to positions.
func (e *Engine) traverse(d *Document, ai *Player, dest *PlacedRoom, action string, details map[string]any, msg string) TraversalResult {
	from := ai.Position
	ai.moveTo(dest)
	d.TurnState.MovementRemaining--
	d.TurnState.PendingReveal = nil

	details["from"] = from
	details["to"] = ai.Position
	e.logAction(d, ai.ID, action, details)
	noteAction(d, action)

	return TraversalResult{
		Success:           true,
		From:              from,
		NewPosition:       ai.Position,
		Room:              refOf(dest),
		MovementRemaining: d.TurnState.MovementRemaining,
		Message:           msg,
	}
}
