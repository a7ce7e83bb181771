package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

func registerMovementTools(s *Server) {
	addTool(s, &mcpsdk.Tool{
		Name:        "get_movement_options",
		Description: "List the doors of the AI's room and where each leads: a known room, an unexplored door or a wall.",
	}, s.movementOptions)
	addTool(s, &mcpsdk.Tool{
		Name: "move_direction",
		Description: "Move the AI one room through a door (up, down, left, right). Moving through an " +
			"unexplored door records a pending reveal instead; follow it with reveal_room.",
	}, s.moveDirection)
	addTool(s, &mcpsdk.Tool{
		Name:        "set_pending_room_reveal",
		Description: "Record which unexplored door of the AI's room the next reveal_room call opens.",
	}, s.setPendingReveal)
	addTool(s, &mcpsdk.Tool{
		Name: "reveal_room",
		Description: "Place the tile the human drew beyond an unexplored door and move the AI into it. " +
			"The rotation must connect the new tile back through the entry door.",
	}, s.revealRoom)
	addTool(s, &mcpsdk.Tool{
		Name:        "calculate_valid_rotations",
		Description: "List the rotations of a room tile that keep a door facing back through the entry direction.",
	}, s.validRotations)
	addTool(s, &mcpsdk.Tool{
		Name:        "use_stairs",
		Description: "Take the stairs of the AI's room to a landing that is already on the map.",
	}, s.useStairs)
	addTool(s, &mcpsdk.Tool{
		Name:        "reveal_stairs_destination",
		Description: "Place the landing reached by the stairs of the AI's room on its floor and move the AI there.",
	}, s.revealStairsDestination)
	addTool(s, &mcpsdk.Tool{
		Name:        "use_slide",
		Description: "Drop the AI down the one-way chute of its current room.",
	}, s.useSlide)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_room_effects",
		Description: "Report a room's tokens, printed text and whether its token or bonus is spent. Defaults to the AI's room.",
	}, s.roomEffects)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_room_doors_detailed",
		Description: "Describe all four sides of a room: door kind, neighbour and exploration state. Defaults to the AI's room.",
	}, s.roomDoors)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_door_connections",
		Description: "List the rooms linked to each door of a room. Defaults to the AI's room.",
	}, s.doorConnections)
	addTool(s, &mcpsdk.Tool{
		Name:        "collect_token",
		Description: "Draw the token of the AI's room. Name the card the human drew for the AI's inventory.",
	}, s.collectToken)
	addTool(s, &mcpsdk.Tool{
		Name:        "adjust_stat",
		Description: "Move one of the AI's trait clips (might, speed, sanity, knowledge) up or down by steps.",
	}, s.adjustStat)
}

// ── Inputs ───────────────────────────────────────────────────────────────────

type directionInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	Direction string `json:"direction" jsonschema:"up, down, left or right (top and bottom also work)"`
}

type revealRoomInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	RoomName  string `json:"room_name" jsonschema:"name of the drawn room tile"`
	Rotation  int    `json:"rotation" jsonschema:"clockwise rotation in degrees: 0, 90, 180 or 270"`
	Direction string `json:"direction,omitempty" jsonschema:"door of the AI's room to reveal through; defaults to the pending reveal"`
}

type rotationsInput struct {
	RoomName       string `json:"room_name" jsonschema:"name of the room tile"`
	EntryDirection string `json:"entry_direction" jsonschema:"direction the AI moved to reach the new tile"`
}

type floorMoveInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	Floor     string `json:"floor" jsonschema:"target floor: basement, ground or upper"`
}

type roomInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	RoomID    string `json:"room_id,omitempty" jsonschema:"placed room instance id; defaults to the AI's room"`
}

type collectTokenInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	CardName  string `json:"card_name,omitempty" jsonschema:"name of the card drawn for the token"`
}

type adjustStatInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	Stat      string `json:"stat" jsonschema:"might, speed, sanity or knowledge"`
	Delta     int    `json:"delta" jsonschema:"steps to move the clip; negative loses"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) movementOptions(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_movement_options", in.SessionID, s.engine().MovementOptions)
}

func (s *Server) moveDirection(ctx context.Context, in directionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "move_direction", in.SessionID, func(d *game.Document) (game.MoveResult, error) {
		return s.engine().Move(d, in.Direction)
	})
}

func (s *Server) setPendingReveal(ctx context.Context, in directionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "set_pending_room_reveal", in.SessionID, func(d *game.Document) (game.SetPendingRevealResult, error) {
		return s.engine().SetPendingReveal(d, in.Direction)
	})
}

func (s *Server) revealRoom(ctx context.Context, in revealRoomInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "reveal_room", in.SessionID, func(d *game.Document) (game.RevealResult, error) {
		return s.engine().Reveal(d, in.RoomName, in.Rotation, in.Direction)
	})
}

func (s *Server) validRotations(_ context.Context, in rotationsInput) (any, error) {
	return s.engine().CalculateValidRotations(in.RoomName, in.EntryDirection)
}

func (s *Server) useStairs(ctx context.Context, in floorMoveInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "use_stairs", in.SessionID, func(d *game.Document) (game.TraversalResult, error) {
		return s.engine().UseStairs(d, in.Floor)
	})
}

func (s *Server) revealStairsDestination(ctx context.Context, in floorMoveInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "reveal_stairs_destination", in.SessionID, func(d *game.Document) (game.TraversalResult, error) {
		return s.engine().RevealStairsDestination(d, in.Floor)
	})
}

func (s *Server) useSlide(ctx context.Context, in sessionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "use_slide", in.SessionID, s.engine().UseSlide)
}

func (s *Server) roomEffects(ctx context.Context, in roomInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_room_effects", in.SessionID, func(d *game.Document) (game.RoomEffects, error) {
		return s.engine().RoomEffects(d, in.RoomID)
	})
}

func (s *Server) roomDoors(ctx context.Context, in roomInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_room_doors_detailed", in.SessionID, func(d *game.Document) (game.RoomDoors, error) {
		return s.engine().RoomDoors(d, in.RoomID)
	})
}

func (s *Server) doorConnections(ctx context.Context, in roomInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_door_connections", in.SessionID, func(d *game.Document) (game.DoorConnections, error) {
		return s.engine().DoorConnections(d, in.RoomID)
	})
}

func (s *Server) collectToken(ctx context.Context, in collectTokenInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "collect_token", in.SessionID, func(d *game.Document) (game.CollectTokenResult, error) {
		return s.engine().CollectToken(d, in.CardName)
	})
}

func (s *Server) adjustStat(ctx context.Context, in adjustStatInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "adjust_stat", in.SessionID, func(d *game.Document) (game.AdjustStatResult, error) {
		return s.engine().AdjustStat(d, in.Stat, in.Delta)
	})
}
