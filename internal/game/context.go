package game

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// NoAnswer stands in for questions the human skipped.
const NoAnswer = "No answer"

// ── Context requests ─────────────────────────────────────────────────────────

// ContextPrompt is returned by [Engine.RequestContext].
type ContextPrompt struct {
	RequestID    string   `json:"requestId"`
	PlayerID     string   `json:"playerId"`
	PlayerName   string   `json:"playerName"`
	Questions    []string `json:"questions"`
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	QuestionList []string `json:"questionList"`
}

// RequestContext asks the human a batch of questions about another player's
// turn.
func (e *Engine) RequestContext(d *Document, playerID string, questions []string) (ContextPrompt, error) {
	p, ok := d.Player(playerID)
	if !ok {
		return ContextPrompt{}, notFound("Player not found: %s", playerID).With("validPlayerIds", d.PlayerIDs())
	}
	if p.IsAI {
		return ContextPrompt{}, invalid("Cannot request context about the AI player %s", playerID)
	}
	qs := nonEmpty(questions)
	if len(qs) == 0 {
		return ContextPrompt{}, invalid("At least one question is required")
	}

	if d.ContextRequests == nil {
		d.ContextRequests = make(map[string]ContextRequest)
	}
	id := e.uniqueID("ctx-", func(id string) bool { _, taken := d.ContextRequests[id]; return taken })
	d.ContextRequests[id] = ContextRequest{
		RequestID:  id,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Questions:  qs,
		Status:     StatusPending,
		Turn:       d.TurnState.CurrentTurnNumber,
		CreatedAt:  e.timestamp(),
	}

	list := make([]string, len(qs))
	for i, q := range qs {
		list[i] = fmt.Sprintf("%d. %s", i+1, q)
	}
	return ContextPrompt{
		RequestID:    id,
		PlayerID:     p.ID,
		PlayerName:   p.Name,
		Questions:    slices.Clone(qs),
		Status:       StatusPending,
		Message:      fmt.Sprintf("Please answer the following questions about %s's turn:", p.Name),
		QuestionList: list,
	}, nil
}

// ContextRecorded is returned by [Engine.RecordContext].
type ContextRecorded struct {
	RequestID       string `json:"requestId"`
	PlayerID        string `json:"playerId"`
	PlayerName      string `json:"playerName"`
	ContextRecorded []QA   `json:"contextRecorded"`
	Message         string `json:"message"`
}

// RecordContext stores the human's answers and folds them into the
// per-player context history. Missing answers become [NoAnswer].
func (e *Engine) RecordContext(d *Document, requestID string, answers []string) (ContextRecorded, error) {
	req, ok := d.ContextRequests[requestID]
	if !ok || req.Status != StatusPending {
		return ContextRecorded{}, notFound("Context request not found: %s", requestID).
			With("pendingRequests", pendingContextIDs(d))
	}

	now := e.timestamp()
	req.Status = StatusAnswered
	req.Answers = slices.Clone(answers)
	req.AnsweredAt = &now
	d.ContextRequests[requestID] = req

	qa := make([]QA, len(req.Questions))
	parts := make([]string, len(req.Questions))
	for i, q := range req.Questions {
		a := NoAnswer
		if i < len(answers) && strings.TrimSpace(answers[i]) != "" {
			a = answers[i]
		}
		qa[i] = QA{Question: q, Answer: a}
		parts[i] = q + ": " + a
	}
	summary := strings.Join(parts, "; ")

	bucket := contextBucket(d, req.PlayerID, req.PlayerName, req.Turn)
	bucket.Context = append(bucket.Context, qa...)
	if bucket.Summary == "" {
		bucket.Summary = summary
	} else {
		bucket.Summary += "; " + summary
	}

	return ContextRecorded{
		RequestID:       requestID,
		PlayerID:        req.PlayerID,
		PlayerName:      req.PlayerName,
		ContextRecorded: qa,
		Message:         fmt.Sprintf("Context recorded for %s's turn", req.PlayerName),
	}, nil
}

// contextBucket returns the history entry for player and turn, creating it
// when absent.
func contextBucket(d *Document, playerID, playerName string, turn int) *PlayerContext {
	for i := range d.OtherPlayersContext {
		c := &d.OtherPlayersContext[i]
		if c.PlayerID == playerID && c.Turn == turn {
			return c
		}
	}
	d.OtherPlayersContext = append(d.OtherPlayersContext, PlayerContext{
		Turn:       turn,
		PlayerID:   playerID,
		PlayerName: playerName,
		Context:    []QA{},
	})
	return &d.OtherPlayersContext[len(d.OtherPlayersContext)-1]
}

func pendingContextRequests(d *Document) []ContextRequest {
	var out []ContextRequest
	for _, r := range d.ContextRequests {
		if r.Status == StatusPending {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b ContextRequest) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.RequestID, b.RequestID))
	})
	if out == nil {
		out = []ContextRequest{}
	}
	return out
}

func pendingContextIDs(d *Document) []string {
	reqs := pendingContextRequests(d)
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.RequestID
	}
	return ids
}

// PendingContextRequests is returned by [Engine.PendingContextRequests].
type PendingContextRequests struct {
	HasPendingRequests bool             `json:"hasPendingRequests"`
	Count              int              `json:"count"`
	Requests           []ContextRequest `json:"requests"`
}

// PendingContextRequests lists unanswered context requests, oldest first.
func (e *Engine) PendingContextRequests(d *Document) PendingContextRequests {
	reqs := pendingContextRequests(d)
	return PendingContextRequests{HasPendingRequests: len(reqs) > 0, Count: len(reqs), Requests: reqs}
}

// PlayerContextGroup is one player's history in [PlayerContextView].
type PlayerContextGroup struct {
	PlayerName string          `json:"playerName"`
	Entries    []PlayerContext `json:"entries"`
}

// PlayerContextView is returned by [Engine.PlayerContext]. When a player id
// was given only PlayerID, PlayerName, Entries and Count are set; otherwise
// AllContext groups every entry by player.
type PlayerContextView struct {
	PlayerID     string                        `json:"playerId,omitempty"`
	PlayerName   string                        `json:"playerName,omitempty"`
	Entries      []PlayerContext               `json:"contextEntries,omitempty"`
	Count        int                           `json:"count"`
	AllContext   map[string]PlayerContextGroup `json:"allContext,omitempty"`
	TotalEntries int                           `json:"totalEntries"`
}

// PlayerContext returns the context history of one player, or of everyone
// when playerID is empty.
func (e *Engine) PlayerContext(d *Document, playerID string) (PlayerContextView, error) {
	if playerID != "" {
		p, ok := d.Player(playerID)
		if !ok {
			return PlayerContextView{}, notFound("Player not found: %s", playerID).With("validPlayerIds", d.PlayerIDs())
		}
		entries := []PlayerContext{}
		for _, c := range d.OtherPlayersContext {
			if c.PlayerID == playerID {
				entries = append(entries, c)
			}
		}
		return PlayerContextView{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			Entries:      entries,
			Count:        len(entries),
			TotalEntries: len(d.OtherPlayersContext),
		}, nil
	}
	groups := make(map[string]PlayerContextGroup)
	for _, c := range d.OtherPlayersContext {
		g := groups[c.PlayerID]
		g.PlayerName = c.PlayerName
		g.Entries = append(g.Entries, c)
		groups[c.PlayerID] = g
	}
	return PlayerContextView{
		Count:        len(groups),
		AllContext:   groups,
		TotalEntries: len(d.OtherPlayersContext),
	}, nil
}

// ── Other players' actions ───────────────────────────────────────────────────

// OtherActionRecorded is returned by [Engine.RecordOtherPlayerAction].
type OtherActionRecorded struct {
	PlayerID   string         `json:"playerId"`
	PlayerName string         `json:"playerName"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	Turn       int            `json:"turn"`
	Message    string         `json:"message"`
}

// RecordOtherPlayerAction logs something another player did and adds it to
// that player's context for the current turn.
func (e *Engine) RecordOtherPlayerAction(d *Document, playerID, action string, details map[string]any) (OtherActionRecorded, error) {
	p, ok := d.Player(playerID)
	if !ok {
		return OtherActionRecorded{}, notFound("Player not found: %s", playerID).With("validPlayerIds", d.PlayerIDs())
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return OtherActionRecorded{}, invalid("action is required")
	}

	logged := maps.Clone(details)
	if logged == nil {
		logged = make(map[string]any)
	}
	logged["isOtherPlayer"] = true
	logged["playerName"] = p.Name
	e.logAction(d, p.ID, action, logged)

	turn := d.TurnState.CurrentTurnNumber
	bucket := contextBucket(d, p.ID, p.Name, turn)
	bucket.Actions = append(bucket.Actions, ContextAction{Action: action, Details: maps.Clone(details)})

	return OtherActionRecorded{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Action:     action,
		Details:    details,
		Turn:       turn,
		Message:    fmt.Sprintf("Recorded: %s - %s", p.Name, action),
	}, nil
}

// ── Positions ────────────────────────────────────────────────────────────────

// PlayerPosition is one row of [PlayerPositions].
type PlayerPosition struct {
	PlayerID    string   `json:"playerId"`
	PlayerName  string   `json:"playerName"`
	CharacterID string   `json:"characterId"`
	IsAI        bool     `json:"isAI"`
	IsDead      bool     `json:"isDead,omitempty"`
	Position    Position `json:"position"`
	RoomName    string   `json:"roomName"`
}

// RoomOccupants groups players by room in [PlayerPositions].
type RoomOccupants struct {
	RoomName string      `json:"roomName"`
	Floor    string      `json:"floor"`
	Players  []PlayerRef `json:"players"`
}

// PlayerPositions is returned by [Engine.PlayerPositions].
type PlayerPositions struct {
	Positions    []PlayerPosition         `json:"positions"`
	ByRoom       map[string]RoomOccupants `json:"byRoom"`
	TotalPlayers int                      `json:"totalPlayers"`
}

// PlayerPositions snapshots where every player stands.
func (e *Engine) PlayerPositions(d *Document) PlayerPositions {
	out := PlayerPositions{
		Positions:    make([]PlayerPosition, 0, len(d.Players)),
		ByRoom:       make(map[string]RoomOccupants),
		TotalPlayers: len(d.Players),
	}
	for _, p := range d.Players {
		name := d.Map.roomName(p.Position.RoomID)
		if name == "" {
			name = "Unknown"
		}
		out.Positions = append(out.Positions, PlayerPosition{
			PlayerID:    p.ID,
			PlayerName:  p.Name,
			CharacterID: p.CharacterID,
			IsAI:        p.IsAI,
			IsDead:      p.IsDead,
			Position:    p.Position,
			RoomName:    name,
		})
		g := out.ByRoom[p.Position.RoomID]
		g.RoomName = name
		g.Floor = string(p.Position.Floor)
		g.Players = append(g.Players, PlayerRef{ID: p.ID, Name: p.Name, IsAI: p.IsAI})
		out.ByRoom[p.Position.RoomID] = g
	}
	return out
}

// ── Free-form questions ──────────────────────────────────────────────────────

// QuestionPrompt is returned by [Engine.AskQuestion].
type QuestionPrompt struct {
	QuestionID string   `json:"questionId"`
	Question   string   `json:"question"`
	Options    []string `json:"options,omitempty"`
	Status     string   `json:"status"`
	Message    string   `json:"message"`
}

// AskQuestion records an open question for the human.
func (e *Engine) AskQuestion(d *Document, question string, options []string) (QuestionPrompt, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return QuestionPrompt{}, invalid("question is required")
	}
	opts := nonEmpty(options)
	if d.PendingQuestions == nil {
		d.PendingQuestions = make(map[string]Question)
	}
	id := e.uniqueID("q-", func(id string) bool { _, taken := d.PendingQuestions[id]; return taken })
	d.PendingQuestions[id] = Question{
		QuestionID: id,
		Question:   question,
		Options:    opts,
		Status:     StatusPending,
		Turn:       d.TurnState.CurrentTurnNumber,
		CreatedAt:  e.timestamp(),
	}
	msg := "AI asks: " + question
	if len(opts) > 0 {
		msg += " Options: " + strings.Join(opts, ", ")
	}
	return QuestionPrompt{
		QuestionID: id,
		Question:   question,
		Options:    slices.Clone(opts),
		Status:     StatusPending,
		Message:    msg,
	}, nil
}

// QuestionAnswered is returned by [Engine.AnswerQuestion].
type QuestionAnswered struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Message    string `json:"message"`
}

// AnswerQuestion resolves a pending question. Unknown or already answered
// ids leave every question untouched.
func (e *Engine) AnswerQuestion(d *Document, questionID, answer string) (QuestionAnswered, error) {
	q, ok := d.PendingQuestions[questionID]
	if !ok || q.Status != StatusPending {
		return QuestionAnswered{}, notFound("Question not found: %s", questionID).
			With("pendingQuestionIds", pendingQuestionIDs(d))
	}
	now := e.timestamp()
	q.Status = StatusAnswered
	q.Answer = answer
	q.AnsweredAt = &now
	d.PendingQuestions[questionID] = q

	return QuestionAnswered{
		QuestionID: questionID,
		Question:   q.Question,
		Answer:     answer,
		Message:    fmt.Sprintf("Q: %s → A: %s", q.Question, answer),
	}, nil
}

func pendingQuestions(d *Document) []Question {
	var out []Question
	for _, q := range d.PendingQuestions {
		if q.Status == StatusPending {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b Question) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.QuestionID, b.QuestionID))
	})
	if out == nil {
		out = []Question{}
	}
	return out
}

func pendingQuestionIDs(d *Document) []string {
	qs := pendingQuestions(d)
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.QuestionID
	}
	return ids
}

// PendingQuestionsView is returned by [Engine.PendingQuestions].
type PendingQuestionsView struct {
	HasPendingQuestions bool       `json:"hasPendingQuestions"`
	Count               int        `json:"count"`
	Questions           []Question `json:"questions"`
}

// PendingQuestions lists unanswered questions, oldest first.
func (e *Engine) PendingQuestions(d *Document) PendingQuestionsView {
	qs := pendingQuestions(d)
	return PendingQuestionsView{HasPendingQuestions: len(qs) > 0, Count: len(qs), Questions: qs}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// uniqueID returns prefix plus a short id that taken reports as free.
func (e *Engine) uniqueID(prefix string, taken func(string) bool) string {
	for {
		id := prefix + e.shortID()
		if !taken(id) {
			return id
		}
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
