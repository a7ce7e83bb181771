package game

import (
	"time"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// Phase is the step of the active player's turn.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseMovement Phase = "movement"
)

// Document is the complete persisted state of one game session. It is the
// only unit the session stores read and write.
type Document struct {
	Meta                Meta                      `json:"meta"`
	Players             []Player                  `json:"players"`
	Map                 HouseMap                  `json:"map"`
	TurnState           TurnState                 `json:"turnState"`
	TurnOrder           *TurnOrder                `json:"turnOrder,omitempty"`
	ActionLog           []ActionLogEntry          `json:"actionLog"`
	PendingQuestions    map[string]Question       `json:"pendingQuestions"`
	ContextRequests     map[string]ContextRequest `json:"contextRequests"`
	OtherPlayersContext []PlayerContext           `json:"otherPlayersContext"`
	TokenDecks          TokenDecks                `json:"tokenDecks"`
}

// Meta carries the session identity and bookkeeping timestamps.
type Meta struct {
	SessionID   string    `json:"sessionId"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
	GamePhase   string    `json:"gamePhase"`
	HauntNumber int       `json:"hauntNumber"`
}

// GamePhaseExploration is the phase every session starts in.
const GamePhaseExploration = "exploration"

// Position is where a player stands.
type Position struct {
	Floor  catalog.Floor `json:"floor"`
	RoomID string        `json:"roomId"`
	X      int           `json:"x"`
	Y      int           `json:"y"`
}

// Stat is a trait's clip position on its track.
type Stat struct {
	CurrentIndex int   `json:"currentIndex"`
	CurrentValue int   `json:"currentValue"`
	Track        []int `json:"track"`
}

// Player is one participant. Players are never removed; a dead player stays
// in the roster with IsDead set.
type Player struct {
	ID          string          `json:"id"`
	CharacterID string          `json:"characterId"`
	Name        string          `json:"name"`
	IsAI        bool            `json:"isAI"`
	IsTraitor   bool            `json:"isTraitor"`
	IsDead      bool            `json:"isDead"`
	TurnOrder   int             `json:"turnOrder"`
	Position    Position        `json:"currentPosition"`
	Stats       map[string]Stat `json:"stats"`
	Inventory   []string        `json:"inventory"`
}

// Door is one door of a placed room. ConnectedTo is nil until the
// neighbouring tile has been placed and linked.
type Door struct {
	Kind        catalog.DoorKind `json:"kind"`
	ConnectedTo *string          `json:"connectedTo"`
}

// PlacedRoom is a room tile on the table.
type PlacedRoom struct {
	InstanceID     string                `json:"instanceId"`
	RoomName       string                `json:"roomName"`
	Floor          catalog.Floor         `json:"floor"`
	X              int                   `json:"x"`
	Y              int                   `json:"y"`
	Rotation       int                   `json:"rotation"`
	Doors          map[catalog.Side]Door `json:"doors"`
	Tokens         []catalog.TokenType   `json:"tokens"`
	TokenCollected bool                  `json:"tokenCollected"`
	RoomBonusUsed  bool                  `json:"roomBonusUsed"`

	// SlideTo names the room a one-way chute leads to. It is never mirrored
	// on the destination and is not part of Doors.
	SlideTo string `json:"slideTo,omitempty"`
}

// HasUncollectedToken reports whether a token can still be drawn here.
func (r *PlacedRoom) HasUncollectedToken() bool {
	return !r.TokenCollected && len(r.Tokens) > 0
}

// HouseMap is the explored part of the house.
type HouseMap struct {
	PlacedRooms []PlacedRoom `json:"placedRooms"`
	NextRoomID  int          `json:"nextRoomId"`
}

// PendingReveal records the unexplored door the AI tried to walk through.
type PendingReveal struct {
	Direction      catalog.Side `json:"direction"`
	TargetPosition Position     `json:"targetPosition"`
}

// TurnState is the live state of the current turn.
type TurnState struct {
	CurrentTurnNumber int                    `json:"currentTurnNumber"`
	CurrentPlayerID   string                 `json:"currentPlayerId"`
	Phase             Phase                  `json:"phase"`
	MovementRemaining int                    `json:"movementRemaining"`
	PendingRolls      map[string]PendingRoll `json:"pendingRolls"`
	ActionsThisTurn   []string               `json:"actionsThisTurn"`
	PendingReveal     *PendingReveal         `json:"pendingReveal,omitempty"`
	RollSeq           int                    `json:"rollSeq"`
}

// TurnOrder is an explicit play sequence that may differ from roster order.
type TurnOrder struct {
	PlayerSequence   []string `json:"playerSequence"`
	AIPlayerIndex    int      `json:"aiPlayerIndex"`
	CurrentTurnIndex int      `json:"currentTurnIndex"`
}

// Roll status values.
const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
	StatusAnswered = "answered"
)

// PendingRoll is a dice roll the human has been asked to make.
type PendingRoll struct {
	RollID      string    `json:"rollId"`
	Purpose     string    `json:"purpose"`
	Stat        string    `json:"stat,omitempty"`
	StatValue   *int      `json:"statValue,omitempty"`
	DiceCount   int       `json:"diceCount"`
	Target      *int      `json:"target,omitempty"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requestedAt"`
	Seq         int       `json:"seq"`
}

// ActionLogEntry is an immutable audit record.
type ActionLogEntry struct {
	Turn      int            `json:"turn"`
	PlayerID  string         `json:"playerId"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}

// Question is a free-form question from the AI to the human.
type Question struct {
	QuestionID string     `json:"questionId"`
	Question   string     `json:"question"`
	Options    []string   `json:"options,omitempty"`
	Status     string     `json:"status"`
	Answer     string     `json:"answer,omitempty"`
	Turn       int        `json:"turn"`
	CreatedAt  time.Time  `json:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// ContextRequest is a batch of questions about another player's turn.
type ContextRequest struct {
	RequestID  string     `json:"requestId"`
	PlayerID   string     `json:"playerId"`
	PlayerName string     `json:"playerName"`
	Questions  []string   `json:"questions"`
	Status     string     `json:"status"`
	Answers    []string   `json:"answers,omitempty"`
	Turn       int        `json:"turn"`
	CreatedAt  time.Time  `json:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// QA is one answered context question.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PlayerContext is what the AI has learned about one player's turn.
type PlayerContext struct {
	Turn       int             `json:"turn"`
	PlayerID   string          `json:"playerId"`
	PlayerName string          `json:"playerName"`
	Context    []QA            `json:"context"`
	Actions    []ContextAction `json:"actions,omitempty"`
	Summary    string          `json:"summary,omitempty"`
}

// ContextAction is something another player was reported to have done.
type ContextAction struct {
	Action  string         `json:"action"`
	Details map[string]any `json:"details,omitempty"`
}

// TokenDecks tracks card draws that affect the whole game.
type TokenDecks struct {
	OmensRevealed int `json:"omensRevealed"`
}
