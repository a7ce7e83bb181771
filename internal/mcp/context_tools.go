package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

func registerContextTools(s *Server) {
	addTool(s, &mcpsdk.Tool{
		Name:        "request_other_player_context",
		Description: "Ask the human a batch of questions about what another player did on their turn.",
	}, s.requestContext)
	addTool(s, &mcpsdk.Tool{
		Name:        "record_player_context",
		Description: "Record the human's answers to a context request, in question order.",
	}, s.recordContext)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_player_context",
		Description: "Return what is known about other players' turns. Omit player_id for everyone.",
	}, s.playerContext)
	addTool(s, &mcpsdk.Tool{
		Name:        "record_other_player_action",
		Description: "Log something another player did, such as moving, finding an item or being attacked.",
	}, s.recordOtherPlayerAction)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_all_player_positions",
		Description: "List every player's room and floor as last recorded.",
	}, s.playerPositions)
	addTool(s, &mcpsdk.Tool{
		Name:        "ask_question",
		Description: "Ask the human a free-form question, optionally with answer options.",
	}, s.askQuestion)
	addTool(s, &mcpsdk.Tool{
		Name:        "answer_question",
		Description: "Record the human's answer to a pending question. Each question is answered once.",
	}, s.answerQuestion)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_pending_questions",
		Description: "List questions still waiting for an answer.",
	}, s.pendingQuestions)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_pending_context_requests",
		Description: "List context requests still waiting for answers.",
	}, s.pendingContextRequests)
}

// ── Inputs ───────────────────────────────────────────────────────────────────

type requestContextInput struct {
	SessionID string   `json:"session_id" jsonschema:"identifier of the game session"`
	PlayerID  string   `json:"player_id" jsonschema:"player the questions are about, e.g. player-2"`
	Questions []string `json:"questions" jsonschema:"questions to ask the human"`
}

type recordContextInput struct {
	SessionID string   `json:"session_id" jsonschema:"identifier of the game session"`
	RequestID string   `json:"request_id" jsonschema:"id returned by request_other_player_context"`
	Answers   []string `json:"answers" jsonschema:"answers in question order; missing answers are recorded as no answer"`
}

type playerContextInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
	PlayerID  string `json:"player_id,omitempty" jsonschema:"player to report on; omit for all players"`
}

type otherActionInput struct {
	SessionID string         `json:"session_id" jsonschema:"identifier of the game session"`
	PlayerID  string         `json:"player_id" jsonschema:"player who acted"`
	Action    string         `json:"action" jsonschema:"what they did"`
	Details   map[string]any `json:"details,omitempty" jsonschema:"extra facts, e.g. the room they moved to"`
}

type askQuestionInput struct {
	SessionID string   `json:"session_id" jsonschema:"identifier of the game session"`
	Question  string   `json:"question" jsonschema:"question for the human"`
	Options   []string `json:"options,omitempty" jsonschema:"suggested answers"`
}

type answerQuestionInput struct {
	SessionID  string `json:"session_id" jsonschema:"identifier of the game session"`
	QuestionID string `json:"question_id" jsonschema:"id returned by ask_question"`
	Answer     string `json:"answer" jsonschema:"the human's answer"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) requestContext(ctx context.Context, in requestContextInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "request_other_player_context", in.SessionID, func(d *game.Document) (game.ContextPrompt, error) {
		return s.engine().RequestContext(d, in.PlayerID, in.Questions)
	})
}

func (s *Server) recordContext(ctx context.Context, in recordContextInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "record_player_context", in.SessionID, func(d *game.Document) (game.ContextRecorded, error) {
		return s.engine().RecordContext(d, in.RequestID, in.Answers)
	})
}

func (s *Server) playerContext(ctx context.Context, in playerContextInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_player_context", in.SessionID, func(d *game.Document) (game.PlayerContextView, error) {
		return s.engine().PlayerContext(d, in.PlayerID)
	})
}

func (s *Server) recordOtherPlayerAction(ctx context.Context, in otherActionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "record_other_player_action", in.SessionID, func(d *game.Document) (game.OtherActionRecorded, error) {
		return s.engine().RecordOtherPlayerAction(d, in.PlayerID, in.Action, in.Details)
	})
}

func (s *Server) playerPositions(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_all_player_positions", in.SessionID, func(d *game.Document) (game.PlayerPositions, error) {
		return s.engine().PlayerPositions(d), nil
	})
}

func (s *Server) askQuestion(ctx context.Context, in askQuestionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "ask_question", in.SessionID, func(d *game.Document) (game.QuestionPrompt, error) {
		return s.engine().AskQuestion(d, in.Question, in.Options)
	})
}

func (s *Server) answerQuestion(ctx context.Context, in answerQuestionInput) (any, error) {
	return tracker.Mutate(ctx, s.svc, "answer_question", in.SessionID, func(d *game.Document) (game.QuestionAnswered, error) {
		return s.engine().AnswerQuestion(d, in.QuestionID, in.Answer)
	})
}

func (s *Server) pendingQuestions(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_pending_questions", in.SessionID, func(d *game.Document) (game.PendingQuestionsView, error) {
		return s.engine().PendingQuestions(d), nil
	})
}

func (s *Server) pendingContextRequests(ctx context.Context, in sessionInput) (any, error) {
	return tracker.View(ctx, s.svc, "get_pending_context_requests", in.SessionID, func(d *game.Document) (game.PendingContextRequests, error) {
		return s.engine().PendingContextRequests(d), nil
	})
}
