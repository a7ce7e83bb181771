package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

func registerDiceTools(s *Server) {
	addTool(s, &mcpsdk.Tool{
		Name: "request_dice_roll",
		Description: "Ask the human to roll dice for the AI. The dice count is dice_count when given, " +
			"else the AI's value for stat, else one die. Returns a roll id to record the result against.",
	}, s.requestRoll)
	addTool(s, &mcpsdk.Tool{
		Name:        "record_dice_result",
		Description: "Record the total the human rolled for a pending roll. Each roll id resolves once.",
	}, s.recordResult)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_pending_rolls",
		Description: "List rolls that are still waiting for a result.",
	}, s.pendingRolls)
	addTool(s, &mcpsdk.Tool{
		Name:        "cancel_pending_roll",
		Description: "Withdraw a pending roll without recording a result.",
	}, s.cancelRoll)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_roll_requirements",
		Description: "Read the trait rolls a room's printed text asks for. Defaults to the AI's room.",
	}, s.rollRequirements)
	addTool(s, &mcpsdk.Tool{
		Name: "interpret_roll_result",
		Description: "Explain what a roll means for its purpose: pass or fail against a target, damage for an " +
			"attack, or the haunt threshold. Advisory; nothing is changed.",
	}, s.interpretResult)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_dice_roll_history",
		Description: "List the most recent recorded dice results, oldest first.",
	}, s.rollHistory)
}

// ── Inputs ───────────────────────────────────────────────────────────────────

type requestRollInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	Purpose   string `json:"purpose,omitempty" jsonschema:"why the dice are rolled: event, attack, stat_check, haunt_roll or free text"`
	Stat      string `json:"stat,omitempty" jsonschema:"trait the roll uses: might, speed, sanity or knowledge"`
	DiceCount int    `json:"dice_count,omitempty" jsonschema:"explicit number of dice, overriding the stat value"`
	Target    *int   `json:"target,omitempty" jsonschema:"total needed to succeed, if known"`
}

type recordResultInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	RollID    string `json:"roll_id" jsonschema:"id returned by request_dice_roll"`
	Result    int    `json:"result" jsonschema:"total shown on the dice"`
}

type rollIDInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	RollID    string `json:"roll_id" jsonschema:"id returned by request_dice_roll"`
}

type interpretInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	RollID    string `json:"roll_id,omitempty" jsonschema:"recorded or pending roll to interpret"`
	Result    *int   `json:"result,omitempty" jsonschema:"total to interpret; required when the roll has no recorded result"`
	Purpose   string `json:"purpose,omitempty" jsonschema:"purpose to interpret for when no roll id is given"`
	Context   string `json:"context,omitempty" jsonschema:"free text describing the situation"`
}

type historyInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of rolls to return; defaults to 10"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) requestRoll(ctx context.Context, in requestRollInput) (any, error) {
	req := game.RollRequest{
		Purpose:   in.Purpose,
		Stat:      in.Stat,
		DiceCount: in.DiceCount,
		Target:    in.Target,
	}
	return tracker.Mutate(ctx, s.svc, "request_dice_roll", in.SessionID, func(d *game.Document) (game.RollPrompt, error) {
		return s.engine().RequestRoll(d, req)
	})
}

func (s *Server) recordResult(ctx context.Context, in recordResultInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "record_dice_result", in.SessionID, func(d *game.Document) (game.RollOutcome, error) {
		return s.engine().RecordResult(d, in.RollID, in.Result)
	})
}

func (s *Server) pendingRolls(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_pending_rolls", in.SessionID, func(d *game.Document) (game.PendingRollsView, error) {
		return s.engine().PendingRolls(d), nil
	})
}

func (s *Server) cancelRoll(ctx context.Context, in rollIDInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "cancel_pending_roll", in.SessionID, func(d *game.Document) (game.CancelRollResult, error) {
		return s.engine().CancelRoll(d, in.RollID)
	})
}

func (s *Server) rollRequirements(ctx context.Context, in roomInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_roll_requirements", in.SessionID, func(d *game.Document) (game.RollRequirements, error) {
		return s.engine().RollRequirements(d, in.RoomID)
	})
}

func (s *Server) interpretResult(ctx context.Context, in interpretInput) (any, error) {
	req := game.InterpretRequest{
		RollID:  in.RollID,
		Result:  in.Result,
		Purpose: in.Purpose,
		Context: in.Context,
	}
	return tracker.View(ctx, s.svc, "interpret_roll_result", in.SessionID, func(d *game.Document) (game.Interpretation, error) {
		return s.engine().InterpretResult(d, req)
	})
}

func (s *Server) rollHistory(ctx context.Context, in historyInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_dice_roll_history", in.SessionID, func(d *game.Document) (game.RollHistory, error) {
		return s.engine().RollHistory(d, in.Limit), nil
	})
}
