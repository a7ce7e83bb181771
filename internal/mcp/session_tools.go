package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/session"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

func registerSessionTools(s *Server) {
	addTool(s, &mcpsdk.Tool{
		Name: "create_game_session",
		Description: "Start a new game. Every player stands in the Entrance Hall; exactly one player is the AI " +
			"(the first one when none is marked). Returns the new session id.",
	}, s.createSession)
	addTool(s, &mcpsdk.Tool{
		Name:        "load_game_session",
		Description: "Return the full stored document of a session.",
	}, s.loadSession)
	addTool(s, &mcpsdk.Tool{
		Name: "get_game_state",
		Description: "Summarise a session. Pass include to get sections instead: " +
			"players, map, turnState, turnOrder, inventory, actionLog.",
	}, s.gameState)
	addTool(s, &mcpsdk.Tool{
		Name:        "delete_game_session",
		Description: "Delete a session permanently.",
	}, s.deleteSession)
	addTool(s, &mcpsdk.Tool{
		Name:        "list_game_sessions",
		Description: "List stored sessions, most recently updated first.",
	}, s.listSessions)
}

// ── Inputs and results ───────────────────────────────────────────────────────

type playerInput struct {
	CharacterID string `json:"character_id" jsonschema:"catalog id of the character this player uses"`
	Name        string `json:"name,omitempty" jsonschema:"display name; defaults to the character name"`
	IsAI        bool   `json:"is_ai,omitempty" jsonschema:"true for the seat played by the AI companion"`
}

type createSessionInput struct {
	Players []playerInput `json:"players" jsonschema:"players in seating order"`
}

type gameStateInput struct {
	SessionID string   `json:"session_id" jsonschema:"identifier of the game session"`
	Include   []string `json:"include,omitempty" jsonschema:"sections to return instead of the summary"`
}

type sessionCreated struct {
	SessionID string            `json:"sessionId"`
	Summary   game.StateSummary `json:"summary"`
	Players   []game.Player     `json:"players"`
	Message   string            `json:"message"`
}

type sessionDeleted struct {
	SessionID string `json:"sessionId"`
	Deleted   bool   `json:"deleted"`
	Message   string `json:"message"`
}

type sessionList struct {
	Sessions []session.Summary `json:"sessions"`
	Count    int               `json:"count"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) createSession(ctx context.Context, in createSessionInput) (any, error) {
	specs := make([]game.PlayerSpec, len(in.Players))
	for i, p := range in.Players {
		specs[i] = game.PlayerSpec{CharacterID: p.CharacterID, Name: p.Name, IsAI: p.IsAI}
	}
	d, err := s.svc.Create(ctx, specs)
	if err != nil {
		return nil, err
	}
	return sessionCreated{
		SessionID: d.Meta.SessionID,
		Summary:   d.Summary(),
		Players:   d.Players,
		Message:   fmt.Sprintf("Game session %s created with %d players", d.Meta.SessionID, len(d.Players)),
	}, nil
}

func (s *Server) loadSession(ctx context.Context, in sessionInput) (any, error) {
	return s.svc.Load(ctx, in.SessionID)
}

func (s *Server) gameState(ctx context.Context, in gameStateInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_game_state", in.SessionID, func(d *game.Document) (game.StateView, error) {
		return s.engine().GameState(d, in.Include)
	})
}

func (s *Server) deleteSession(ctx context.Context, in sessionInput) (any, error) {
	if err := s.svc.Delete(ctx, in.SessionID); err != nil {
		return nil, err
	}
	return sessionDeleted{
		SessionID: in.SessionID,
		Deleted:   true,
		Message:   fmt.Sprintf("Game session %s deleted", in.SessionID),
	}, nil
}

func (s *Server) listSessions(ctx context.Context, _ noInput) (any, error) {
	out, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []session.Summary{}
	}
	return sessionList{Sessions: out, Count: len(out)}, nil
}
