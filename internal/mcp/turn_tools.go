package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

func registerTurnTools(s *Server) {
	addTool(s, &mcpsdk.Tool{
		Name:        "start_turn",
		Description: "Begin the AI's turn: movement is reset to its Speed and the phase becomes movement.",
	}, s.startTurn)
	addTool(s, &mcpsdk.Tool{
		Name:        "end_turn",
		Description: "Finish the current player's turn and hand play to the next player in seating order. Call it for human players too once they are done.",
	}, s.endTurn)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_turn_state",
		Description: "Report whose turn it is, the phase, remaining movement and outstanding rolls.",
	}, s.turnState)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_available_actions",
		Description: "List what the AI can do right now: moves, reveals, stairs, tokens and ending the turn.",
	}, s.availableActions)
	addTool(s, &mcpsdk.Tool{
		Name:        "start_haunt",
		Description: "Record the haunt from the rulebook table and, optionally, the traitor. Only once per game.",
	}, s.startHaunt)

	addTool(s, &mcpsdk.Tool{
		Name:        "set_turn_order",
		Description: "Set the order players take turns in. Every player id must appear exactly once.",
	}, s.setTurnOrder)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_turn_order",
		Description: "Report the turn order with names and who is current.",
	}, s.turnOrder)
	addTool(s, &mcpsdk.Tool{
		Name:        "advance_turn",
		Description: "Move to the next player in the turn order, wrapping around to start a new round.",
	}, s.advanceTurn)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_players_before_ai",
		Description: "List the players who act before the AI this round, whose moves the AI should ask about.",
	}, s.playersBeforeAI)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_current_player_info",
		Description: "Describe the player whose turn it is, with position and stats.",
	}, s.currentPlayerInfo)
}

// ── Inputs ───────────────────────────────────────────────────────────────────

type startHauntInput struct {
	SessionID   string `json:"session_id" jsonschema:"identifier of the game session"`
	HauntNumber int    `json:"haunt_number" jsonschema:"haunt number from the rulebook table"`
	TraitorID   string `json:"traitor_id,omitempty" jsonschema:"player id of the traitor, if the haunt has one"`
}

type setTurnOrderInput struct {
	SessionID string   `json:"session_id" jsonschema:"identifier of the game session"`
	Order     []string `json:"order" jsonschema:"player ids in turn order"`
}

// ── Turn handlers ────────────────────────────────────────────────────────────

func (s *Server) startTurn(ctx context.Context, in sessionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "start_turn", in.SessionID, s.engine().StartTurn)
}

func (s *Server) endTurn(ctx context.Context, in sessionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "end_turn", in.SessionID, s.engine().EndTurn)
}

func (s *Server) turnState(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_turn_state", in.SessionID, func(d *game.Document) (game.TurnStateView, error) {
		return s.engine().TurnState(d), nil
	})
}

func (s *Server) availableActions(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_available_actions", in.SessionID, s.engine().AvailableActions)
}

func (s *Server) startHaunt(ctx context.Context, in startHauntInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "start_haunt", in.SessionID, func(d *game.Document) (game.StartHauntResult, error) {
		return s.engine().StartHaunt(d, in.HauntNumber, in.TraitorID)
	})
}

// ── Turn order handlers ──────────────────────────────────────────────────────

func (s *Server) setTurnOrder(ctx context.Context, in setTurnOrderInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "set_turn_order", in.SessionID, func(d *game.Document) (game.TurnOrderView, error) {
		return s.engine().SetTurnOrder(d, in.Order)
	})
}

func (s *Server) turnOrder(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_turn_order", in.SessionID, s.engine().TurnOrder)
}

func (s *Server) advanceTurn(ctx context.Context, in sessionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "advance_turn", in.SessionID, s.engine().AdvanceTurn)
}

func (s *Server) playersBeforeAI(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_players_before_ai", in.SessionID, s.engine().PlayersBeforeAI)
}

func (s *Server) currentPlayerInfo(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_current_player_info", in.SessionID, s.engine().CurrentPlayerInfo)
}
