package game

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// PlayerSpec describes one seat when a session is created.
type PlayerSpec struct {
	CharacterID string `json:"characterId"`
	Name        string `json:"name,omitempty"`
	IsAI        bool   `json:"isAI,omitempty"`
}

// NewDocument builds the initial document for a new session: seeded players
// standing in the Entrance Hall, the bootstrap map, and turn 1 waiting on
// player-1. When no spec is marked as AI the first player becomes the AI.
func (e *Engine) NewDocument(sessionID string, specs []PlayerSpec) (*Document, error) {
	switch {
	case len(specs) == 0:
		return nil, invalid("At least one player is required")
	case len(specs) > MaxPlayers:
		return nil, invalid("Maximum %d players allowed", MaxPlayers).With("playerCount", len(specs))
	}

	aiSeats := 0
	for _, s := range specs {
		if s.IsAI {
			aiSeats++
		}
	}
	if aiSeats > 1 {
		return nil, invalid("Exactly one AI player is allowed, got %d", aiSeats)
	}

	m, err := e.Bootstrap()
	if err != nil {
		return nil, err
	}
	start := m.PlacedRooms[0]

	players := make([]Player, 0, len(specs))
	for i, s := range specs {
		ch, ok := e.catalog.Character(s.CharacterID)
		if !ok {
			return nil, notFound("Character not found: %s", s.CharacterID).
				With("suggestions", e.catalog.SuggestCharacters(s.CharacterID, 3))
		}
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = ch.Name
		}
		p := Player{
			ID:          playerID(i),
			CharacterID: ch.ID,
			Name:        name,
			IsAI:        s.IsAI || (aiSeats == 0 && i == 0),
			TurnOrder:   i,
			Stats:       seedStats(ch),
			Inventory:   []string{},
		}
		p.moveTo(&start)
		players = append(players, p)
	}

	now := e.timestamp()
	return &Document{
		Meta: Meta{
			SessionID:   sessionID,
			CreatedAt:   now,
			LastUpdated: now,
			GamePhase:   GamePhaseExploration,
		},
		Players: players,
		Map:     m,
		TurnState: TurnState{
			CurrentTurnNumber: 1,
			CurrentPlayerID:   players[0].ID,
			Phase:             PhaseWaiting,
			PendingRolls:      map[string]PendingRoll{},
			ActionsThisTurn:   []string{},
		},
		ActionLog:           []ActionLogEntry{},
		PendingQuestions:    map[string]Question{},
		ContextRequests:     map[string]ContextRequest{},
		OtherPlayersContext: []PlayerContext{},
	}, nil
}

func playerID(i int) string {
	return "player-" + strconv.Itoa(i+1)
}

func seedStats(ch catalog.Character) map[string]Stat {
	stats := make(map[string]Stat, len(ch.Traits))
	for name, t := range ch.Traits {
		stats[name] = Stat{
			CurrentIndex: t.StartIndex,
			CurrentValue: t.StartValue(),
			Track:        slices.Clone(t.Track),
		}
	}
	return stats
}

// ── Stat adjustment ──────────────────────────────────────────────────────────

// AdjustStatResult is returned by [Engine.AdjustStat].
type AdjustStatResult struct {
	PlayerID      string `json:"playerId"`
	Stat          string `json:"stat"`
	PreviousIndex int    `json:"previousIndex"`
	PreviousValue int    `json:"previousValue"`
	CurrentIndex  int    `json:"currentIndex"`
	CurrentValue  int    `json:"currentValue"`
	Clamped       bool   `json:"clamped"`
	IsDead        bool   `json:"isDead"`
	Message       string `json:"message"`
}

// AdjustStat moves one of the AI's trait clips by delta steps, clamped to the
// track. Falling off the bottom of a track after the haunt has begun kills
// the character.
func (e *Engine) AdjustStat(d *Document, stat string, delta int) (AdjustStatResult, error) {
	ai, err := requireAI(d)
	if err != nil {
		return AdjustStatResult{}, err
	}
	stat = strings.ToLower(strings.TrimSpace(stat))
	s, ok := ai.Stats[stat]
	if !ok {
		return AdjustStatResult{}, invalid("Unknown stat: %s", stat).With("validStats", catalog.Traits)
	}
	if delta == 0 {
		return AdjustStatResult{}, invalid("delta must be non-zero")
	}

	res := AdjustStatResult{
		PlayerID:      ai.ID,
		Stat:          stat,
		PreviousIndex: s.CurrentIndex,
		PreviousValue: s.CurrentValue,
	}
	idx := s.CurrentIndex + delta
	switch {
	case idx < 0:
		if d.Meta.HauntNumber > 0 {
			ai.IsDead = true
		}
		idx = 0
		res.Clamped = true
	case idx > len(s.Track)-1:
		idx = len(s.Track) - 1
		res.Clamped = true
	}
	s.CurrentIndex = idx
	s.CurrentValue = s.Track[idx]
	ai.Stats[stat] = s

	res.CurrentIndex = s.CurrentIndex
	res.CurrentValue = s.CurrentValue
	res.IsDead = ai.IsDead
	res.Message = fmt.Sprintf("Set %s to %d", stat, s.CurrentValue)
	if ai.IsDead {
		res.Message = ai.Name + " has died"
	}

	e.logAction(d, ai.ID, "adjust_stat", map[string]any{
		"stat":  stat,
		"delta": delta,
		"from":  res.PreviousValue,
		"to":    res.CurrentValue,
		"dead":  ai.IsDead,
	})
	noteAction(d, "adjust_stat")
	return res, nil
}
