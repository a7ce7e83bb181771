package mcp

// Transport selects how the MCP server talks to its client.
type Transport string

const (
	// TransportStdio serves a single client over stdin/stdout.
	TransportStdio Transport = "stdio"

	// TransportStreamableHTTP serves clients via the MCP Streamable HTTP
	// protocol mounted on the application's HTTP server.
	TransportStreamableHTTP Transport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportStreamableHTTP
}
