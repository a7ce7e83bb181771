package mcp

import (
	"context"
	"encoding/json"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/observe"
)

// addTool registers fn under tool, wrapping it with metrics and error
// mapping. fn returns the value reported to the client or an error.
func addTool[In any](s *Server, tool *mcpsdk.Tool, fn func(context.Context, In) (any, error)) {
	mcpsdk.AddTool(s.mcp, tool, handle(s, tool.Name, fn))
}

// handle adapts fn to the SDK handler signature. Game errors become IsError
// results carrying [game.Error.Payload]; other errors become IsError results
// with only an "error" field and are logged.
func handle[In any](s *Server, name string, fn func(context.Context, In) (any, error)) mcpsdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, any, error) {
		start := time.Now()
		out, err := fn(ctx, in)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			s.metrics.RecordToolCall(ctx, name, observe.StatusError, elapsed)
			if ge, ok := game.AsError(err); ok {
				return errorResult(ge.Payload()), nil, nil
			}
			observe.Logger(ctx).Error("tool failed", "tool", name, "err", err)
			return errorResult(map[string]any{"error": err.Error()}), nil, nil
		}
		s.metrics.RecordToolCall(ctx, name, observe.StatusOK, elapsed)
		return nil, out, nil
	}
}

// errorResult renders payload as the JSON text of an IsError result.
func errorResult(payload map[string]any) *mcpsdk.CallToolResult {
	text, err := json.Marshal(payload)
	if err != nil {
		text = []byte(`{"error":"unencodable error payload"}`)
	}
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(text)}},
	}
}

// sessionInput is the input of every tool that only needs a session.
type sessionInput struct {
	SessionID string `json:"session_id" jsonschema:"identifier of the game session"`
}

// noInput is the input of tools without arguments.
type noInput struct{}

func (s *Server) engine() *game.Engine { return s.svc.Engine() }
