package game

import (
	"fmt"
	"slices"
)

// TurnOrderView describes the configured play sequence.
type TurnOrderView struct {
	PlayerSequence    []string `json:"playerSequence"`
	PlayerNames       []string `json:"playerNames"`
	AIPlayerIndex     int      `json:"aiPlayerIndex"`
	AIPosition        int      `json:"aiPosition"`
	CurrentTurnIndex  int      `json:"currentTurnIndex"`
	CurrentPlayerID   string   `json:"currentPlayerId"`
	CurrentPlayerName string   `json:"currentPlayerName"`
	IsAITurn          bool     `json:"isAITurn"`
	TotalPlayers      int      `json:"totalPlayers"`
	TurnNumber        int      `json:"turnNumber"`
}

func (e *Engine) turnOrderView(d *Document) TurnOrderView {
	to := d.TurnOrder
	names := make([]string, len(to.PlayerSequence))
	for i, id := range to.PlayerSequence {
		names[i] = playerRef(d, id).Name
	}
	cur := to.PlayerSequence[to.CurrentTurnIndex]
	return TurnOrderView{
		PlayerSequence:    slices.Clone(to.PlayerSequence),
		PlayerNames:       names,
		AIPlayerIndex:     to.AIPlayerIndex,
		AIPosition:        to.AIPlayerIndex + 1,
		CurrentTurnIndex:  to.CurrentTurnIndex,
		CurrentPlayerID:   cur,
		CurrentPlayerName: playerRef(d, cur).Name,
		IsAITurn:          to.CurrentTurnIndex == to.AIPlayerIndex,
		TotalPlayers:      len(to.PlayerSequence),
		TurnNumber:        d.TurnState.CurrentTurnNumber,
	}
}

func requireTurnOrder(d *Document) error {
	if d.TurnOrder == nil || len(d.TurnOrder.PlayerSequence) == 0 {
		return precondition("Turn order not set. Use set_turn_order first.").With("hasTurnOrder", false)
	}
	return nil
}

// SetTurnOrder replaces the play sequence and makes its first entry the
// active player.
func (e *Engine) SetTurnOrder(d *Document, order []string) (TurnOrderView, error) {
	ai, err := requireAI(d)
	if err != nil {
		return TurnOrderView{}, err
	}
	if len(order) == 0 {
		return TurnOrderView{}, invalid("Turn order must list at least one player").
			With("validPlayerIds", d.PlayerIDs())
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, ok := d.Player(id); !ok {
			return TurnOrderView{}, notFound("Player not found: %s", id).With("validPlayerIds", d.PlayerIDs())
		}
		if seen[id] {
			return TurnOrderView{}, invalid("Player listed twice: %s", id)
		}
		seen[id] = true
	}
	aiIdx := slices.Index(order, ai.ID)
	if aiIdx < 0 {
		return TurnOrderView{}, invalid("Turn order must include the AI player %s", ai.ID).
			With("aiPlayerId", ai.ID)
	}

	d.TurnOrder = &TurnOrder{
		PlayerSequence:   slices.Clone(order),
		AIPlayerIndex:    aiIdx,
		CurrentTurnIndex: 0,
	}
	d.TurnState.CurrentPlayerID = order[0]
	d.TurnState.Phase = PhaseWaiting
	d.TurnState.MovementRemaining = 0

	e.logAction(d, ai.ID, "set_turn_order", map[string]any{
		"playerSequence": slices.Clone(order),
		"aiPosition":     aiIdx + 1,
	})
	return e.turnOrderView(d), nil
}

// TurnOrder reports the configured sequence.
func (e *Engine) TurnOrder(d *Document) (TurnOrderView, error) {
	if err := requireTurnOrder(d); err != nil {
		return TurnOrderView{}, err
	}
	return e.turnOrderView(d), nil
}

// AdvanceTurnResult is returned by [Engine.AdvanceTurn].
type AdvanceTurnResult struct {
	PreviousPlayerIndex int    `json:"previousPlayerIndex"`
	CurrentTurnIndex    int    `json:"currentTurnIndex"`
	CurrentPlayerID     string `json:"currentPlayerId"`
	CurrentPlayerName   string `json:"currentPlayerName"`
	IsAITurn            bool   `json:"isAITurn"`
	CompletedRound      bool   `json:"completedRound"`
	TurnNumber          int    `json:"turnNumber"`
	Message             string `json:"message"`
}

// AdvanceTurn moves to the next entry of the sequence. Wrapping to the start
// completes a round and increments the turn number.
func (e *Engine) AdvanceTurn(d *Document) (AdvanceTurnResult, error) {
	if err := requireTurnOrder(d); err != nil {
		return AdvanceTurnResult{}, err
	}
	to := d.TurnOrder
	prev := to.CurrentTurnIndex
	next := (prev + 1) % len(to.PlayerSequence)
	completed := next == 0

	ts := &d.TurnState
	if completed {
		ts.CurrentTurnNumber++
	}
	to.CurrentTurnIndex = next
	nextID := to.PlayerSequence[next]
	ts.CurrentPlayerID = nextID
	ts.Phase = PhaseWaiting
	ts.MovementRemaining = 0
	ts.ActionsThisTurn = []string{}
	ts.PendingReveal = nil

	isAI := next == to.AIPlayerIndex
	name := playerRef(d, nextID).Name
	msg := fmt.Sprintf("Now %s's turn", name)
	if isAI {
		msg += " (AI)"
	}

	e.logAction(d, nextID, "advance_turn", map[string]any{
		"previousIndex":  prev,
		"currentIndex":   next,
		"completedRound": completed,
	})

	return AdvanceTurnResult{
		PreviousPlayerIndex: prev,
		CurrentTurnIndex:    next,
		CurrentPlayerID:     nextID,
		CurrentPlayerName:   name,
		IsAITurn:            isAI,
		CompletedRound:      completed,
		TurnNumber:          ts.CurrentTurnNumber,
		Message:             msg,
	}, nil
}

// PlayerBrief is a player summary used by turn-order queries.
type PlayerBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CharacterID string `json:"characterId"`
	RoomID      string `json:"position"`
}

// PlayersBeforeAI is returned by [Engine.PlayersBeforeAI].
type PlayersBeforeAI struct {
	PlayersBeforeAI []PlayerBrief `json:"playersBeforeAI"`
	PlayerIDs       []string      `json:"playerIds"`
	Count           int           `json:"count"`
	AIGoesFirst     bool          `json:"aiGoesFirst"`
	AIPosition      int           `json:"aiPosition"`
	Message         string        `json:"message"`
}

// PlayersBeforeAI lists the players who act before the AI each round.
func (e *Engine) PlayersBeforeAI(d *Document) (PlayersBeforeAI, error) {
	if err := requireTurnOrder(d); err != nil {
		return PlayersBeforeAI{}, err
	}
	to := d.TurnOrder
	ids := slices.Clone(to.PlayerSequence[:to.AIPlayerIndex])
	out := PlayersBeforeAI{
		PlayersBeforeAI: make([]PlayerBrief, 0, len(ids)),
		PlayerIDs:       ids,
		Count:           len(ids),
		AIGoesFirst:     to.AIPlayerIndex == 0,
		AIPosition:      to.AIPlayerIndex + 1,
	}
	for _, id := range ids {
		b := PlayerBrief{ID: id, Name: id}
		if p, ok := d.Player(id); ok {
			b = PlayerBrief{ID: p.ID, Name: p.Name, CharacterID: p.CharacterID, RoomID: p.Position.RoomID}
		}
		out.PlayersBeforeAI = append(out.PlayersBeforeAI, b)
	}
	if out.AIGoesFirst {
		out.Message = "AI goes first, no players to wait for"
	} else {
		out.Message = fmt.Sprintf("%d player(s) go before AI", len(ids))
	}
	return out, nil
}

// CurrentPlayerInfo is returned by [Engine.CurrentPlayerInfo].
type CurrentPlayerInfo struct {
	CurrentPlayerID   string   `json:"currentPlayerId"`
	CurrentPlayerName string   `json:"currentPlayerName"`
	CharacterID       string   `json:"characterId"`
	IsAI              bool     `json:"isAI"`
	IsAITurn          bool     `json:"isAITurn"`
	Position          Position `json:"position"`
	TurnPhase         Phase    `json:"turnPhase"`
	MovementRemaining int      `json:"movementRemaining"`
	TurnNumber        int      `json:"turnNumber"`
}

// CurrentPlayerInfo reports the active player.
func (e *Engine) CurrentPlayerInfo(d *Document) (CurrentPlayerInfo, error) {
	ts := d.TurnState
	id := ts.CurrentPlayerID
	if id == "" && d.TurnOrder != nil && len(d.TurnOrder.PlayerSequence) > 0 {
		id = d.TurnOrder.PlayerSequence[0]
	}
	p, ok := d.Player(id)
	if !ok {
		return CurrentPlayerInfo{}, notFound("Current player not found: %s", id).With("validPlayerIds", d.PlayerIDs())
	}
	return CurrentPlayerInfo{
		CurrentPlayerID:   p.ID,
		CurrentPlayerName: p.Name,
		CharacterID:       p.CharacterID,
		IsAI:              p.IsAI,
		IsAITurn:          p.IsAI,
		Position:          p.Position,
		TurnPhase:         ts.Phase,
		MovementRemaining: ts.MovementRemaining,
		TurnNumber:        ts.CurrentTurnNumber,
	}, nil
}
