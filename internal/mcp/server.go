// Package mcp exposes the game tracker as a Model Context Protocol server.
//
// Every tracker operation is one tool. Tool inputs are typed structs whose
// JSON schema is inferred from their json and jsonschema tags. Successful
// calls return the operation result as structured content; rejected calls
// return a tool result with IsError set and a JSON payload of the form
//
//	{"error": "<message>", "kind": "not_found|precondition|validation", ...details}
//
// so that the caller can read the valid alternatives and try again. Game
// errors never surface as protocol faults.
//
// Usage:
//
//	srv := mcp.NewServer(svc, mcp.WithVersion("1.2.0"))
//	err := srv.RunStdio(ctx)
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/observe"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

// serverName is the implementation name announced during initialisation.
const serverName = "hillhouse"

// Server is the hillhouse MCP server. It is safe for concurrent use; the
// streamable HTTP handler may serve many clients at once.
type Server struct {
	svc     *tracker.Service
	metrics *observe.Metrics
	version string
	mcp     *mcpsdk.Server
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics sets the metric instruments used for tool calls. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the version announced to clients. Defaults to "dev".
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer builds a server with every tracker tool registered.
func NewServer(svc *tracker.Service, opts ...Option) *Server {
	s := &Server{svc: svc, version: "dev"}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	s.mcp = mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: s.version}, &mcpsdk.ServerOptions{
		Instructions: "Tracks a Betrayal at House on the Hill game for one AI companion. " +
			"Create a session, then drive the AI's turn with the movement, dice and context tools. " +
			"Rejected calls return an error payload listing what would be valid instead.",
	})

	registerCatalogTools(s)
	registerSessionTools(s)
	registerTurnTools(s)
	registerMovementTools(s)
	registerDiceTools(s)
	registerContextTools(s)
	return s
}

// MCPServer returns the underlying SDK server, e.g. for custom transports.
func (s *Server) MCPServer() *mcpsdk.Server { return s.mcp }

// Run serves one session over transport until the client disconnects or ctx
// is cancelled. Cancellation is not reported as an error.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.mcp.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mcp: run: %w", err)
	}
	return nil
}

// RunStdio serves a single client over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcpsdk.StdioTransport{})
}

// Handler returns the Streamable HTTP handler for this server. Mount it at
// /mcp.
func (s *Server) Handler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.mcp
	}, nil)
}
