package game

import (
	"slices"
	"strings"
)

// Sections accepted by [Engine.GameState].
const (
	SectionPlayers   = "players"
	SectionMap       = "map"
	SectionTurnState = "turnState"
	SectionTurnOrder = "turnOrder"
	SectionInventory = "inventory"
	SectionActionLog = "actionLog"
)

// StateSections lists every section [Engine.GameState] can return.
var StateSections = []string{SectionPlayers, SectionMap, SectionTurnState, SectionTurnOrder, SectionInventory, SectionActionLog}

// recentActions is how many log entries the actionLog section returns.
const recentActions = 10

// StateSummary is the default projection of [Engine.GameState].
type StateSummary struct {
	SessionID     string `json:"sessionId"`
	GamePhase     string `json:"gamePhase"`
	HauntNumber   int    `json:"hauntNumber,omitempty"`
	CurrentTurn   int    `json:"currentTurn"`
	CurrentPlayer string `json:"currentPlayer"`
	Phase         Phase  `json:"phase"`
	AIPlayerID    string `json:"aiPlayerId"`
	IsAITurn      bool   `json:"isAITurn"`
	PlayerCount   int    `json:"playerCount"`
	RoomsPlaced   int    `json:"roomsPlaced"`
	OmensRevealed int    `json:"omensRevealed"`
}

// Summary returns the headline figures of a document.
func (d *Document) Summary() StateSummary {
	s := StateSummary{
		SessionID:     d.Meta.SessionID,
		GamePhase:     d.Meta.GamePhase,
		HauntNumber:   d.Meta.HauntNumber,
		CurrentTurn:   d.TurnState.CurrentTurnNumber,
		CurrentPlayer: d.TurnState.CurrentPlayerID,
		Phase:         d.TurnState.Phase,
		IsAITurn:      d.IsAITurn(),
		PlayerCount:   len(d.Players),
		RoomsPlaced:   len(d.Map.PlacedRooms),
		OmensRevealed: d.TokenDecks.OmensRevealed,
	}
	if ai, ok := d.AIPlayer(); ok {
		s.AIPlayerID = ai.ID
	}
	return s
}

// StateView is the sectioned projection of [Engine.GameState]. Only the
// requested sections are set.
type StateView struct {
	SessionID string           `json:"sessionId"`
	Summary   *StateSummary    `json:"summary,omitempty"`
	Players   []Player         `json:"players,omitempty"`
	Map       *HouseMap        `json:"map,omitempty"`
	TurnState *TurnState       `json:"turnState,omitempty"`
	TurnOrder *TurnOrder       `json:"turnOrder,omitempty"`
	Inventory []string         `json:"inventory,omitempty"`
	ActionLog []ActionLogEntry `json:"actionLog,omitempty"`
}

// GameState projects the document. With no sections it returns only the
// summary; otherwise it returns the named sections.
func (e *Engine) GameState(d *Document, include []string) (StateView, error) {
	out := StateView{SessionID: d.Meta.SessionID}
	if len(include) == 0 {
		s := d.Summary()
		out.Summary = &s
		return out, nil
	}
	for _, raw := range include {
		section := canonicalSection(raw)
		switch section {
		case SectionPlayers:
			out.Players = d.Players
		case SectionMap:
			out.Map = &d.Map
		case SectionTurnState:
			out.TurnState = &d.TurnState
		case SectionTurnOrder:
			out.TurnOrder = d.TurnOrder
		case SectionInventory:
			out.Inventory = []string{}
			if ai, ok := d.AIPlayer(); ok {
				out.Inventory = slices.Clone(ai.Inventory)
			}
		case SectionActionLog:
			log := d.ActionLog
			if len(log) > recentActions {
				log = log[len(log)-recentActions:]
			}
			out.ActionLog = log
		default:
			return StateView{}, invalid("Unknown section: %s", raw).With("validSections", StateSections)
		}
	}
	return out, nil
}

func canonicalSection(s string) string {
	s = strings.TrimSpace(s)
	for _, v := range StateSections {
		if strings.EqualFold(v, s) {
			return v
		}
	}
	return s
}
