package game

import (
	"slices"
	"strings"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// resolveRoom returns the room with roomID, or the AI's room when roomID is
// empty.
func resolveRoom(d *Document, roomID string) (*PlacedRoom, error) {
	if roomID == "" {
		ai, err := requireAI(d)
		if err != nil {
			return nil, err
		}
		return currentRoom(d, ai)
	}
	r, ok := d.Map.Room(roomID)
	if !ok {
		ids := make([]string, len(d.Map.PlacedRooms))
		for i, pr := range d.Map.PlacedRooms {
			ids[i] = pr.InstanceID
		}
		return nil, notFound("Room not found: %s", roomID).With("placedRooms", ids)
	}
	return r, nil
}

// ── Effects ──────────────────────────────────────────────────────────────────

// RoomEffects is returned by [Engine.RoomEffects].
type RoomEffects struct {
	RoomID         string              `json:"roomId"`
	RoomName       string              `json:"roomName"`
	Floor          catalog.Floor       `json:"floor"`
	Text           string              `json:"text,omitempty"`
	Tokens         []catalog.TokenType `json:"tokens"`
	TokenCollected bool                `json:"tokenCollected"`
	RoomBonusUsed  bool                `json:"roomBonusUsed"`
	Doors          []catalog.Side      `json:"doors"`
	SlideTo        string              `json:"slideTo,omitempty"`
	Notes          []string            `json:"notes,omitempty"`
}

// RoomEffects reports the token and text state of a room.
func (e *Engine) RoomEffects(d *Document, roomID string) (RoomEffects, error) {
	r, err := resolveRoom(d, roomID)
	if err != nil {
		return RoomEffects{}, err
	}
	out := RoomEffects{
		RoomID:         r.InstanceID,
		RoomName:       r.RoomName,
		Floor:          r.Floor,
		Tokens:         slices.Clone(r.Tokens),
		TokenCollected: r.TokenCollected,
		RoomBonusUsed:  r.RoomBonusUsed,
		Doors:          sortedSides(r.Doors),
		SlideTo:        r.SlideTo,
	}
	if out.Tokens == nil {
		out.Tokens = []catalog.TokenType{}
	}
	if tpl, ok := e.catalog.Room(r.RoomName); ok {
		out.Text = tpl.Text
		if tpl.Stairwell || tpl.HasStairs() {
			out.Notes = append(out.Notes, "Stairs: use use_stairs to change floors")
		}
	}
	if r.HasUncollectedToken() {
		out.Notes = append(out.Notes, "Uncollected token: draw a card with collect_token")
	}
	if r.SlideTo != "" {
		out.Notes = append(out.Notes, "One-way slide to "+r.SlideTo+": use use_slide")
	}
	return out, nil
}

// ── Doors ────────────────────────────────────────────────────────────────────

// SideInfo describes one edge of a room.
type SideInfo struct {
	HasDoor           bool             `json:"hasDoor"`
	Kind              catalog.DoorKind `json:"kind,omitempty"`
	IsExplored        bool             `json:"isExplored,omitempty"`
	ConnectedTo       *string          `json:"connectedTo,omitempty"`
	ConnectedRoomName string           `json:"connectedRoomName,omitempty"`
}

// RoomDoors is returned by [Engine.RoomDoors].
type RoomDoors struct {
	RoomID    string                    `json:"roomId"`
	RoomName  string                    `json:"roomName"`
	Floor     catalog.Floor             `json:"floor"`
	Doors     map[catalog.Side]SideInfo `json:"doors"`
	DoorCount int                       `json:"doorCount"`
}

// RoomDoors reports all four sides of a room.
func (e *Engine) RoomDoors(d *Document, roomID string) (RoomDoors, error) {
	r, err := resolveRoom(d, roomID)
	if err != nil {
		return RoomDoors{}, err
	}
	out := RoomDoors{
		RoomID:   r.InstanceID,
		RoomName: r.RoomName,
		Floor:    r.Floor,
		Doors:    make(map[catalog.Side]SideInfo, len(catalog.Sides)),
	}
	for _, side := range catalog.Sides {
		door, ok := r.Doors[side]
		if !ok {
			out.Doors[side] = SideInfo{}
			continue
		}
		info := SideInfo{HasDoor: true, Kind: door.Kind}
		if door.ConnectedTo != nil {
			id := *door.ConnectedTo
			info.IsExplored = true
			info.ConnectedTo = &id
			info.ConnectedRoomName = d.Map.roomName(id)
		}
		out.Doors[side] = info
		out.DoorCount++
	}
	return out, nil
}

// Connection is one door's status in [DoorConnections].
type Connection struct {
	Status            string           `json:"status"`
	DoorKind          catalog.DoorKind `json:"doorKind"`
	ConnectedRoomID   string           `json:"connectedRoomId,omitempty"`
	ConnectedRoomName string           `json:"connectedRoomName,omitempty"`
	Floor             catalog.Floor    `json:"floor,omitempty"`
	Message           string           `json:"message,omitempty"`
}

// ConnectionSummary counts explored and unexplored doors.
type ConnectionSummary struct {
	Explored   int `json:"explored"`
	Unexplored int `json:"unexplored"`
}

// DoorConnections is returned by [Engine.DoorConnections].
type DoorConnections struct {
	RoomID          string                      `json:"roomId"`
	RoomName        string                      `json:"roomName"`
	Floor           catalog.Floor               `json:"floor"`
	Connections     map[catalog.Side]Connection `json:"connections"`
	ExploredDoors   []catalog.Side              `json:"exploredDoors"`
	UnexploredDoors []catalog.Side              `json:"unexploredDoors"`
	Summary         ConnectionSummary           `json:"summary"`
}

// DoorConnections classifies every door of a room as explored, stairs,
// blocked or unexplored.
func (e *Engine) DoorConnections(d *Document, roomID string) (DoorConnections, error) {
	r, err := resolveRoom(d, roomID)
	if err != nil {
		return DoorConnections{}, err
	}
	out := DoorConnections{
		RoomID:          r.InstanceID,
		RoomName:        r.RoomName,
		Floor:           r.Floor,
		Connections:     make(map[catalog.Side]Connection, len(r.Doors)),
		ExploredDoors:   []catalog.Side{},
		UnexploredDoors: []catalog.Side{},
	}
	for _, side := range sortedSides(r.Doors) {
		door := r.Doors[side]
		c := Connection{DoorKind: door.Kind}
		switch {
		case door.ConnectedTo != nil:
			c.Status = DoorExplored
			c.ConnectedRoomID = *door.ConnectedTo
			if other, ok := d.Map.Room(*door.ConnectedTo); ok {
				c.ConnectedRoomName = other.RoomName
				c.Floor = other.Floor
			}
			out.ExploredDoors = append(out.ExploredDoors, side)
		case door.Kind == catalog.KindStairs:
			c.Status = DoorStairs
			c.Message = "Use use_stairs tool to traverse"
		case door.Kind == catalog.KindFrontDoor:
			c.Status = DoorBlocked
			c.Message = "Front door - cannot exit"
		default:
			switch occupant, open := d.Map.behind(r, side); {
			case open:
				c.Status = DoorExplored
				c.ConnectedRoomID = occupant.InstanceID
				c.ConnectedRoomName = occupant.RoomName
				c.Floor = occupant.Floor
				out.ExploredDoors = append(out.ExploredDoors, side)
			case occupant != nil:
				c.Status = DoorBlocked
				c.Message = "Opens onto the wall of " + occupant.RoomName
			default:
				c.Status = DoorUnexplored
				c.Message = "Moving here will reveal a new room"
				out.UnexploredDoors = append(out.UnexploredDoors, side)
			}
		}
		out.Connections[side] = c
	}
	out.Summary = ConnectionSummary{Explored: len(out.ExploredDoors), Unexplored: len(out.UnexploredDoors)}
	return out, nil
}

// ── Tokens ───────────────────────────────────────────────────────────────────

// CollectTokenResult is returned by [Engine.CollectToken].
type CollectTokenResult struct {
	RoomID        string              `json:"roomId"`
	RoomName      string              `json:"roomName"`
	Tokens        []catalog.TokenType `json:"tokens"`
	CardName      string              `json:"cardName,omitempty"`
	OmensRevealed int                 `json:"omensRevealed"`
	Inventory     []string            `json:"inventory"`
	Message       string              `json:"message"`
}

// CollectToken draws the token of the AI's room. Omen tokens advance the
// haunt counter; a drawn card name is added to the AI's inventory.
func (e *Engine) CollectToken(d *Document, cardName string) (CollectTokenResult, error) {
	ai, err := requireAITurn(d)
	if err != nil {
		return CollectTokenResult{}, err
	}
	if d.TurnState.Phase != PhaseMovement {
		return CollectTokenResult{}, precondition("Turn has not started; call start_turn first").
			With("phase", string(d.TurnState.Phase))
	}
	room, err := currentRoom(d, ai)
	if err != nil {
		return CollectTokenResult{}, err
	}
	if !room.HasUncollectedToken() {
		return CollectTokenResult{}, precondition("No uncollected token in %s", room.RoomName).
			With("tokenCollected", room.TokenCollected)
	}

	room.TokenCollected = true
	for _, t := range room.Tokens {
		if t == catalog.TokenOmen {
			d.TokenDecks.OmensRevealed++
		}
	}
	cardName = strings.TrimSpace(cardName)
	if cardName != "" {
		ai.Inventory = append(ai.Inventory, cardName)
	}

	details := map[string]any{
		"roomId": room.InstanceID,
		"tokens": tokenStrings(room.Tokens),
	}
	if cardName != "" {
		details["cardName"] = cardName
	}
	e.logAction(d, ai.ID, "collect_token", details)
	noteAction(d, "collect_token")

	msg := "Collected " + strings.Join(tokenStrings(room.Tokens), ", ") + " token in " + room.RoomName
	if cardName != "" {
		msg += ": " + cardName
	}
	return CollectTokenResult{
		RoomID:        room.InstanceID,
		RoomName:      room.RoomName,
		Tokens:        slices.Clone(room.Tokens),
		CardName:      cardName,
		OmensRevealed: d.TokenDecks.OmensRevealed,
		Inventory:     slices.Clone(ai.Inventory),
		Message:       msg,
	}, nil
}
