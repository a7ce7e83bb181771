package game

import (
	"fmt"
	"slices"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// PlayerRef identifies a player in results.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsAI bool   `json:"isAI"`
}

func playerRef(d *Document, id string) PlayerRef {
	if p, ok := d.Player(id); ok {
		return PlayerRef{ID: p.ID, Name: p.Name, IsAI: p.IsAI}
	}
	return PlayerRef{ID: id}
}

// ── Start / end ──────────────────────────────────────────────────────────────

// StartTurnResult is returned by [Engine.StartTurn].
type StartTurnResult struct {
	TurnNumber        int      `json:"turnNumber"`
	Phase             Phase    `json:"phase"`
	MovementRemaining int      `json:"movementRemaining"`
	CurrentPosition   Position `json:"currentPosition"`
	CurrentRoom       string   `json:"currentRoom"`
	Message           string   `json:"message"`
}

// StartTurn begins the AI's movement phase with as many movement points as
// its current Speed.
func (e *Engine) StartTurn(d *Document) (StartTurnResult, error) {
	ai, err := requireAITurn(d)
	if err != nil {
		return StartTurnResult{}, err
	}
	movement := DefaultMovement
	if s, ok := ai.Stats[catalog.TraitSpeed]; ok {
		movement = s.CurrentValue
	}

	ts := &d.TurnState
	ts.Phase = PhaseMovement
	ts.MovementRemaining = movement
	ts.ActionsThisTurn = []string{}
	ts.PendingReveal = nil

	e.logAction(d, ai.ID, "start_turn", map[string]any{
		"movementPoints": movement,
		"position":       ai.Position,
	})

	return StartTurnResult{
		TurnNumber:        ts.CurrentTurnNumber,
		Phase:             ts.Phase,
		MovementRemaining: movement,
		CurrentPosition:   ai.Position,
		CurrentRoom:       d.Map.roomName(ai.Position.RoomID),
		Message:           fmt.Sprintf("Turn %d started. You have %d movement points.", ts.CurrentTurnNumber, movement),
	}, nil
}

// EndTurnResult is returned by [Engine.EndTurn].
type EndTurnResult struct {
	TurnEnded       int       `json:"turnEnded"`
	ActionsThisTurn int       `json:"actionsThisTurn"`
	NextPlayer      PlayerRef `json:"nextPlayer"`
	NextTurnNumber  int       `json:"nextTurnNumber"`
	Message         string    `json:"message"`
}

// EndTurn hands play to the next player in roster order. Wrapping back to
// the first seat starts a new turn number. It works on any player's turn, so
// the AI can close a human's turn once they report being done.
func (e *Engine) EndTurn(d *Document) (EndTurnResult, error) {
	if _, err := requireAI(d); err != nil {
		return EndTurnResult{}, err
	}
	ts := &d.TurnState
	current := ts.CurrentPlayerID
	ended := ts.CurrentTurnNumber
	actions := len(ts.ActionsThisTurn)

	cur := slices.IndexFunc(d.Players, func(p Player) bool { return p.ID == ts.CurrentPlayerID })
	if cur < 0 {
		cur = 0
	}
	next := (cur + 1) % len(d.Players)
	nextPlayer := d.Players[next]

	// The summary is logged under the turn that is ending.
	e.logAction(d, current, "end_turn", map[string]any{
		"actionsCount": actions,
		"nextPlayer":   nextPlayer.ID,
	})

	if next == 0 {
		ts.CurrentTurnNumber++
	}
	ts.CurrentPlayerID = nextPlayer.ID
	ts.Phase = PhaseWaiting
	ts.MovementRemaining = 0
	ts.ActionsThisTurn = []string{}
	ts.PendingReveal = nil
	if d.TurnOrder != nil {
		if i := slices.Index(d.TurnOrder.PlayerSequence, nextPlayer.ID); i >= 0 {
			d.TurnOrder.CurrentTurnIndex = i
		}
	}

	return EndTurnResult{
		TurnEnded:       ended,
		ActionsThisTurn: actions,
		NextPlayer:      PlayerRef{ID: nextPlayer.ID, Name: nextPlayer.Name, IsAI: nextPlayer.IsAI},
		NextTurnNumber:  ts.CurrentTurnNumber,
		Message:         fmt.Sprintf("Turn %d ended. Next: %s", ended, nextPlayer.Name),
	}, nil
}

// ── Views ────────────────────────────────────────────────────────────────────

// TurnStateView is returned by [Engine.TurnState].
type TurnStateView struct {
	TurnNumber        int            `json:"turnNumber"`
	CurrentPlayer     PlayerRef      `json:"currentPlayer"`
	Phase             Phase          `json:"phase"`
	MovementRemaining int            `json:"movementRemaining"`
	IsAITurn          bool           `json:"isAITurn"`
	PendingRolls      []PendingRoll  `json:"pendingRolls"`
	PendingReveal     *PendingReveal `json:"pendingReveal,omitempty"`
	ActionsThisTurn   []string       `json:"actionsThisTurn"`
}

// TurnState reports the live turn without changing it.
func (e *Engine) TurnState(d *Document) TurnStateView {
	ts := d.TurnState
	actions := slices.Clone(ts.ActionsThisTurn)
	if actions == nil {
		actions = []string{}
	}
	return TurnStateView{
		TurnNumber:        ts.CurrentTurnNumber,
		CurrentPlayer:     playerRef(d, ts.CurrentPlayerID),
		Phase:             ts.Phase,
		MovementRemaining: ts.MovementRemaining,
		IsAITurn:          d.IsAITurn(),
		PendingRolls:      pendingRolls(d),
		PendingReveal:     ts.PendingReveal,
		ActionsThisTurn:   actions,
	}
}

// Action is one thing the AI may do next.
type Action struct {
	Action            string              `json:"action"`
	Description       string              `json:"description"`
	MovementRemaining int                 `json:"movementRemaining,omitempty"`
	PendingRolls      []string            `json:"pendingRolls,omitempty"`
	AvailableTokens   []catalog.TokenType `json:"availableTokens,omitempty"`
}

// AvailableActions is returned by [Engine.AvailableActions].
type AvailableActions struct {
	IsAITurn          bool     `json:"isAITurn"`
	Phase             Phase    `json:"phase,omitempty"`
	MovementRemaining int      `json:"movementRemaining"`
	AvailableActions  []Action `json:"availableActions"`
	Message           string   `json:"message,omitempty"`
}

// AvailableActions lists what the AI can do right now. Outstanding dice
// rolls block everything else.
func (e *Engine) AvailableActions(d *Document) (AvailableActions, error) {
	ai, err := requireAI(d)
	if err != nil {
		return AvailableActions{}, err
	}
	ts := d.TurnState
	if ts.CurrentPlayerID != ai.ID {
		return AvailableActions{
			AvailableActions: []Action{{
				Action:      "end_turn",
				Description: fmt.Sprintf("End %s's turn once they are done", playerRef(d, ts.CurrentPlayerID).Name),
			}},
			Message: "Waiting for other players",
		}, nil
	}
	out := AvailableActions{
		IsAITurn:          true,
		Phase:             ts.Phase,
		MovementRemaining: ts.MovementRemaining,
		AvailableActions:  []Action{},
	}

	if pending := pendingRolls(d); len(pending) > 0 {
		ids := make([]string, len(pending))
		for i, r := range pending {
			ids[i] = r.RollID
		}
		out.AvailableActions = append(out.AvailableActions, Action{
			Action:       "resolve_pending_roll",
			Description:  "There are pending dice rolls that need to be resolved",
			PendingRolls: ids,
		})
		out.Message = "Resolve pending dice rolls first"
		return out, nil
	}

	switch ts.Phase {
	case PhaseWaiting:
		out.AvailableActions = append(out.AvailableActions, Action{
			Action:      "start_turn",
			Description: "Start your turn",
		})
	case PhaseMovement:
		if ts.MovementRemaining > 0 {
			out.AvailableActions = append(out.AvailableActions,
				Action{
					Action:            "move",
					Description:       fmt.Sprintf("Move to an adjacent room (%d movement remaining)", ts.MovementRemaining),
					MovementRemaining: ts.MovementRemaining,
				},
				Action{
					Action:      "use_stairs",
					Description: "Use stairs to change floors (if on stairs)",
				},
			)
		}
		out.AvailableActions = append(out.AvailableActions, Action{
			Action:      "end_turn",
			Description: "End your turn",
		})
		if room, ok := d.Map.Room(ai.Position.RoomID); ok && room.HasUncollectedToken() {
			out.AvailableActions = append(out.AvailableActions, Action{
				Action:          "collect_token",
				Description:     "Draw a token from this room",
				AvailableTokens: slices.Clone(room.Tokens),
			})
		}
	}
	return out, nil
}

// ── Haunt ────────────────────────────────────────────────────────────────────

// GamePhaseHaunt is the phase after the haunt has been revealed.
const GamePhaseHaunt = "haunt"

// StartHauntResult is returned by [Engine.StartHaunt].
type StartHauntResult struct {
	HauntNumber   int    `json:"hauntNumber"`
	GamePhase     string `json:"gamePhase"`
	TraitorID     string `json:"traitorId,omitempty"`
	AIIsTraitor   bool   `json:"aiIsTraitor"`
	OmensRevealed int    `json:"omensRevealed"`
	Message       string `json:"message"`
}

// StartHaunt records the haunt chosen from the rulebook tables and, when
// given, the traitor. It can only happen once per game.
func (e *Engine) StartHaunt(d *Document, hauntNumber int, traitorID string) (StartHauntResult, error) {
	ai, err := requireAI(d)
	if err != nil {
		return StartHauntResult{}, err
	}
	if hauntNumber <= 0 {
		return StartHauntResult{}, invalid("hauntNumber must be positive")
	}
	if d.Meta.HauntNumber > 0 {
		return StartHauntResult{}, precondition("Haunt %d has already started", d.Meta.HauntNumber).
			With("hauntNumber", d.Meta.HauntNumber)
	}
	if traitorID != "" {
		p, ok := d.Player(traitorID)
		if !ok {
			return StartHauntResult{}, notFound("Player not found: %s", traitorID).With("validPlayerIds", d.PlayerIDs())
		}
		p.IsTraitor = true
	}
	d.Meta.HauntNumber = hauntNumber
	d.Meta.GamePhase = GamePhaseHaunt

	e.logAction(d, ai.ID, "start_haunt", map[string]any{
		"hauntNumber": hauntNumber,
		"traitorId":   traitorID,
	})

	return StartHauntResult{
		HauntNumber:   hauntNumber,
		GamePhase:     GamePhaseHaunt,
		TraitorID:     traitorID,
		AIIsTraitor:   traitorID == ai.ID,
		OmensRevealed: d.TokenDecks.OmensRevealed,
		Message:       fmt.Sprintf("Haunt %d has begun", hauntNumber),
	}, nil
}
