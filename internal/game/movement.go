package game

import (
	"fmt"
	"slices"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// Door status values reported by movement and door queries.
const (
	DoorExplored   = "explored"
	DoorUnexplored = "unexplored"
	DoorStairs     = "stairs"
	DoorBlocked    = "blocked"
)

// RoomRef identifies a placed room in results.
type RoomRef struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Floor catalog.Floor `json:"floor"`
	X     int           `json:"x"`
	Y     int           `json:"y"`
}

func refOf(r *PlacedRoom) RoomRef {
	return RoomRef{ID: r.InstanceID, Name: r.RoomName, Floor: r.Floor, X: r.X, Y: r.Y}
}

// ── Movement options ─────────────────────────────────────────────────────────

// MovementOption describes one door of the current room.
type MovementOption struct {
	Direction      catalog.Side     `json:"direction"`
	Status         string           `json:"status"`
	DoorKind       catalog.DoorKind `json:"doorKind"`
	TargetRoom     *RoomRef         `json:"targetRoom,omitempty"`
	TargetPosition *Position        `json:"targetPosition,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// MovementOptions is returned by [Engine.MovementOptions].
type MovementOptions struct {
	CurrentRoom       *RoomRef         `json:"currentRoom,omitempty"`
	MovementRemaining int              `json:"movementRemaining"`
	Options           []MovementOption `json:"options"`
	Message           string           `json:"message,omitempty"`
}

// MovementOptions classifies every door of the AI's room. When no movement
// is left the result is an empty option list, not an error.
func (e *Engine) MovementOptions(d *Document) (MovementOptions, error) {
	ai, err := requireAITurn(d)
	if err != nil {
		return MovementOptions{}, err
	}
	if d.TurnState.MovementRemaining <= 0 {
		return MovementOptions{Options: []MovementOption{}, Message: "No movement remaining"}, nil
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return MovementOptions{}, err
	}

	ref := refOf(room)
	out := MovementOptions{
		CurrentRoom:       &ref,
		MovementRemaining: d.TurnState.MovementRemaining,
		Options:           make([]MovementOption, 0, len(room.Doors)),
	}
	for _, side := range sortedSides(room.Doors) {
		door := room.Doors[side]
		opt := MovementOption{Direction: side, DoorKind: door.Kind}
		switch {
		case door.ConnectedTo != nil:
			opt.Status = DoorExplored
			if target, ok := d.Map.Room(*door.ConnectedTo); ok {
				tr := refOf(target)
				opt.TargetRoom = &tr
			}
		case door.Kind == catalog.KindStairs:
			opt.Status = DoorStairs
			opt.Message = "Use 'use_stairs' to change floors"
		case door.Kind == catalog.KindFrontDoor:
			opt.Status = DoorBlocked
			opt.Message = "Front door - cannot exit"
		default:
			switch occupant, open := d.Map.behind(room, side); {
			case open:
				opt.Status = DoorExplored
				tr := refOf(occupant)
				opt.TargetRoom = &tr
			case occupant != nil:
				opt.Status = DoorBlocked
				opt.Message = "Opens onto the wall of " + occupant.RoomName
			default:
				opt.Status = DoorUnexplored
				pos := targetCell(room, side)
				opt.TargetPosition = &pos
				opt.Message = "Moving here will reveal a new room"
			}
		}
		out.Options = append(out.Options, opt)
	}
	return out, nil
}

func targetCell(r *PlacedRoom, side catalog.Side) Position {
	dx, dy := Offset(side)
	return Position{Floor: r.Floor, X: r.X + dx, Y: r.Y + dy}
}

// ── Move ─────────────────────────────────────────────────────────────────────

// MoveResult is returned by [Engine.Move]. Exactly one of Success and
// AwaitingRoomReveal is set.
type MoveResult struct {
	Success            bool                `json:"success,omitempty"`
	AwaitingRoomReveal bool                `json:"awaitingRoomReveal,omitempty"`
	Direction          catalog.Side        `json:"direction"`
	NewPosition        *Position           `json:"newPosition,omitempty"`
	Room               *RoomRef            `json:"room,omitempty"`
	TargetPosition     *Position           `json:"targetPosition,omitempty"`
	MovementRemaining  int                 `json:"movementRemaining"`
	HasToken           bool                `json:"hasToken"`
	TokenTypes         []catalog.TokenType `json:"tokenTypes"`
	Message            string              `json:"message"`
}

// Move walks the AI through a door. An explored door relocates the player and
// spends one movement point. An unexplored door records a pending reveal and
// spends nothing; the caller must follow up with [Engine.Reveal].
func (e *Engine) Move(d *Document, direction string) (MoveResult, error) {
	ai, err := requireMovement(d)
	if err != nil {
		return MoveResult{}, err
	}
	side, err := NormalizeDirection(direction)
	if err != nil {
		return MoveResult{}, err
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return MoveResult{}, err
	}

	door, ok := room.Doors[side]
	if !ok {
		return MoveResult{}, precondition("No door in direction: %s", direction).
			With("availableDoors", sortedSides(room.Doors))
	}
	switch door.Kind {
	case catalog.KindStairs:
		return MoveResult{}, precondition("Use 'use_stairs' tool to traverse stairs").
			With("doorKind", string(catalog.KindStairs))
	case catalog.KindFrontDoor:
		return MoveResult{}, precondition("Cannot exit through the front door").
			With("doorKind", string(catalog.KindFrontDoor))
	}

	if door.ConnectedTo == nil {
		if _, open := d.Map.behind(room, side); open {
			// The neighbour was placed by another route; join the two.
			d.Map.linkNeighbours(room)
			door = room.Doors[side]
		}
	}
	if door.ConnectedTo == nil {
		if err := freeCell(d, room, side); err != nil {
			return MoveResult{}, err
		}
		target := targetCell(room, side)
		d.TurnState.PendingReveal = &PendingReveal{Direction: side, TargetPosition: target}
		return MoveResult{
			AwaitingRoomReveal: true,
			Direction:          side,
			TargetPosition:     &target,
			MovementRemaining:  d.TurnState.MovementRemaining,
			TokenTypes:         []catalog.TokenType{},
			Message:            "A new room needs to be revealed. Use 'reveal_room' with the drawn room name.",
		}, nil
	}

	target, ok := d.Map.Room(*door.ConnectedTo)
	if !ok {
		return MoveResult{}, notFound("Connected room not found: %s", *door.ConnectedTo)
	}
	from := ai.Position
	ai.moveTo(target)
	d.TurnState.MovementRemaining--
	d.TurnState.PendingReveal = nil

	e.logAction(d, ai.ID, "move", map[string]any{
		"from":       from,
		"to":         ai.Position,
		"direction":  string(side),
		"targetRoom": target.RoomName,
	})
	noteAction(d, "move")

	pos := ai.Position
	ref := refOf(target)
	res := MoveResult{
		Success:           true,
		Direction:         side,
		NewPosition:       &pos,
		Room:              &ref,
		MovementRemaining: d.TurnState.MovementRemaining,
		HasToken:          target.HasUncollectedToken(),
		TokenTypes:        []catalog.TokenType{},
		Message:           "Moved to " + target.RoomName,
	}
	if res.HasToken {
		res.TokenTypes = slices.Clone(target.Tokens)
	}
	return res, nil
}

// SetPendingRevealResult is returned by [Engine.SetPendingReveal].
type SetPendingRevealResult struct {
	PendingDirection catalog.Side `json:"pendingDirection"`
	RequiredDoor     catalog.Side `json:"requiredDoor"`
	TargetPosition   Position     `json:"targetPosition"`
	Message          string       `json:"message"`
}

// SetPendingReveal records the reveal direction without attempting a move.
func (e *Engine) SetPendingReveal(d *Document, direction string) (SetPendingRevealResult, error) {
	ai, err := requireAITurn(d)
	if err != nil {
		return SetPendingRevealResult{}, err
	}
	side, err := NormalizeDirection(direction)
	if err != nil {
		return SetPendingRevealResult{}, err
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return SetPendingRevealResult{}, err
	}
	if _, err := unexploredDoor(room, side); err != nil {
		return SetPendingRevealResult{}, err
	}
	if err := freeCell(d, room, side); err != nil {
		return SetPendingRevealResult{}, err
	}
	target := targetCell(room, side)
	d.TurnState.PendingReveal = &PendingReveal{Direction: side, TargetPosition: target}
	return SetPendingRevealResult{
		PendingDirection: side,
		RequiredDoor:     Opposite(side),
		TargetPosition:   target,
		Message:          fmt.Sprintf("Ready to reveal room in %s direction", side),
	}, nil
}

// unexploredDoor checks that room has an unconnected plain door on side.
func unexploredDoor(room *PlacedRoom, side catalog.Side) (Door, error) {
	door, ok := room.Doors[side]
	if !ok {
		return Door{}, precondition("No door on the %s side of %s", side, room.RoomName).
			With("availableDoors", sortedSides(room.Doors))
	}
	if door.Kind != catalog.KindDoor {
		return Door{}, precondition("The %s door of %s is %s and cannot lead to a new room", side, room.RoomName, door.Kind).
			With("doorKind", string(door.Kind))
	}
	if door.ConnectedTo != nil {
		return Door{}, precondition("The %s door of %s is already explored", side, room.RoomName).
			With("connectedTo", *door.ConnectedTo)
	}
	return door, nil
}

// freeCell checks that nothing is placed behind the side of room yet.
func freeCell(d *Document, room *PlacedRoom, side catalog.Side) error {
	occupant, open := d.Map.behind(room, side)
	switch {
	case occupant == nil:
		return nil
	case open:
		return precondition("The %s door of %s leads to %s; use move_direction", side, room.RoomName, occupant.RoomName).
			With("connectedTo", occupant.InstanceID)
	default:
		return precondition("The %s door of %s opens onto the wall of %s", side, room.RoomName, occupant.RoomName).
			With("doorKind", DoorBlocked).
			With("occupiedBy", occupant.RoomName)
	}
}

// ── Reveal ───────────────────────────────────────────────────────────────────

// RevealResult is returned by [Engine.Reveal].
type RevealResult struct {
	Success           bool                `json:"success"`
	Room              RoomRef             `json:"room"`
	Rotation          int                 `json:"rotation"`
	Doors             []catalog.Side      `json:"doors"`
	NewPosition       Position            `json:"newPosition"`
	MovementRemaining int                 `json:"movementRemaining"`
	HasToken          bool                `json:"hasToken"`
	TokenTypes        []catalog.TokenType `json:"tokenTypes"`
	RoomText          string              `json:"roomText,omitempty"`
	SlideTo           string              `json:"slideTo,omitempty"`
	Message           string              `json:"message"`
}

// Reveal places a freshly drawn tile beyond an unexplored door of the AI's
// room, links the two doors, and walks the AI into it. The direction comes
// from the argument or else from the pending reveal recorded by
// [Engine.Move]; there is no guessing.
func (e *Engine) Reveal(d *Document, roomName string, rotation int, direction string) (RevealResult, error) {
	ai, err := requireMovement(d)
	if err != nil {
		return RevealResult{}, err
	}

	var side catalog.Side
	switch {
	case direction != "":
		if side, err = NormalizeDirection(direction); err != nil {
			return RevealResult{}, err
		}
	case d.TurnState.PendingReveal != nil:
		side = d.TurnState.PendingReveal.Direction
	default:
		return RevealResult{}, invalid("No reveal direction: pass direction or call move_direction first")
	}

	room, err := currentRoom(d, ai)
	if err != nil {
		return RevealResult{}, err
	}
	if _, err := unexploredDoor(room, side); err != nil {
		return RevealResult{}, err
	}

	tpl, err := e.lookupRoom(roomName)
	if err != nil {
		return RevealResult{}, err
	}
	if d.Map.hasPlaced(tpl.Name) {
		return RevealResult{}, precondition("Room already placed: %s", tpl.Name)
	}
	if !tpl.AllowsFloor(room.Floor) {
		return RevealResult{}, precondition("Room '%s' cannot be placed on %s floor", tpl.Name, room.Floor).
			With("allowedFloors", tpl.Floors)
	}

	doors, err := Rotate(tpl.Doors, rotation)
	if err != nil {
		return RevealResult{}, err
	}
	required := Opposite(side)
	if _, ok := doors[required]; !ok {
		valid := validRotations(tpl, side)
		return RevealResult{}, precondition("Rotation %d leaves %s without a %s door", rotation, tpl.Name, required).
			With("requiredDoor", required).
			With("validRotations", valid)
	}

	target := targetCell(room, side)
	if err := freeCell(d, room, side); err != nil {
		return RevealResult{}, err
	}

	d.Map.PlacedRooms = append(d.Map.PlacedRooms, PlacedRoom{
		InstanceID:     d.Map.nextInstanceID(),
		RoomName:       tpl.Name,
		Floor:          room.Floor,
		X:              target.X,
		Y:              target.Y,
		Rotation:       rotation,
		Doors:          doors,
		Tokens:         slices.Clone(tpl.Tokens),
		TokenCollected: len(tpl.Tokens) == 0,
		SlideTo:        tpl.SlideTo,
	})
	placed := &d.Map.PlacedRooms[len(d.Map.PlacedRooms)-1]
	// The append may have moved the backing array.
	room, _ = d.Map.Room(ai.Position.RoomID)
	link(room, side, placed)
	joined := d.Map.linkNeighbours(placed)

	ai.moveTo(placed)
	d.TurnState.MovementRemaining--
	d.TurnState.PendingReveal = nil

	e.logAction(d, ai.ID, "reveal_room", map[string]any{
		"roomName":  placed.RoomName,
		"roomId":    placed.InstanceID,
		"position":  ai.Position,
		"rotation":  rotation,
		"direction": string(side),
		"tokens":    tokenStrings(placed.Tokens),
		"joined":    sideStrings(joined),
	})
	noteAction(d, "reveal_room")

	return RevealResult{
		Success:           true,
		Room:              refOf(placed),
		Rotation:          rotation,
		Doors:             sortedSides(placed.Doors),
		NewPosition:       ai.Position,
		MovementRemaining: d.TurnState.MovementRemaining,
		HasToken:          placed.HasUncollectedToken(),
		TokenTypes:        slices.Clone(placed.Tokens),
		RoomText:          tpl.Text,
		SlideTo:           placed.SlideTo,
		Message:           "Revealed " + placed.RoomName,
	}, nil
}

func (m *HouseMap) hasPlaced(name string) bool {
	_, ok := m.RoomByName(name)
	return ok
}

func sideStrings(sides []catalog.Side) []string {
	out := make([]string, len(sides))
	for i, s := range sides {
		out[i] = string(s)
	}
	return out
}

func tokenStrings(tokens []catalog.TokenType) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t)
	}
	return out
}

// lookupRoom resolves a tile name, returning suggestions when it is unknown.
func (e *Engine) lookupRoom(name string) (catalog.RoomTemplate, error) {
	tpl, ok := e.catalog.LookupRoom(name)
	if !ok {
		return catalog.RoomTemplate{}, notFound("Room not found: %s", name).
			With("suggestions", e.catalog.SuggestRooms(name, 3))
	}
	return tpl, nil
}

// ── Rotation planning ────────────────────────────────────────────────────────

// RotationOption is one legal orientation for a tile.
type RotationOption struct {
	Rotation       int            `json:"rotation"`
	Description    string         `json:"description"`
	ResultingDoors []catalog.Side `json:"resultingDoors"`
	ConnectionDoor catalog.Side   `json:"connectionDoor"`
}

// RotationPlan is returned by [Engine.CalculateValidRotations].
type RotationPlan struct {
	RoomName       string           `json:"roomName"`
	EntryDirection catalog.Side     `json:"entryDirection"`
	RequiredDoor   catalog.Side     `json:"requiredDoor"`
	ValidRotations []RotationOption `json:"validRotations"`
	Count          int              `json:"count"`
	Recommended    int              `json:"recommended"`
	Message        string           `json:"message"`
}

// CalculateValidRotations lists every rotation that gives the tile a door
// facing back toward the room it is entered from.
func (e *Engine) CalculateValidRotations(roomName, entryDirection string) (RotationPlan, error) {
	tpl, err := e.lookupRoom(roomName)
	if err != nil {
		return RotationPlan{}, err
	}
	side, err := NormalizeDirection(entryDirection)
	if err != nil {
		return RotationPlan{}, err
	}
	required := Opposite(side)
	valid := validRotations(tpl, side)
	if len(valid) == 0 {
		return RotationPlan{}, precondition("Room '%s' cannot be placed from %s", tpl.Name, side).
			With("reason", fmt.Sprintf("No rotation allows a %s door", required)).
			With("baseDoors", tpl.DoorSides())
	}
	return RotationPlan{
		RoomName:       tpl.Name,
		EntryDirection: side,
		RequiredDoor:   required,
		ValidRotations: valid,
		Count:          len(valid),
		Recommended:    valid[0].Rotation,
		Message:        fmt.Sprintf("%d valid rotation(s) for placing %s", len(valid), tpl.Name),
	}, nil
}

func validRotations(tpl catalog.RoomTemplate, entry catalog.Side) []RotationOption {
	required := Opposite(entry)
	out := []RotationOption{}
	for _, deg := range Rotations {
		doors, err := Rotate(tpl.Doors, deg)
		if err != nil {
			continue
		}
		if _, ok := doors[required]; !ok {
			continue
		}
		out = append(out, RotationOption{
			Rotation:       deg,
			Description:    RotationDescription(deg),
			ResultingDoors: sortedSides(doors),
			ConnectionDoor: required,
		})
	}
	return out
}
