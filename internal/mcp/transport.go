package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the HTTP transport behavior.
type HTTPHandlerOptions struct {
	// Stateless disables session management. The advisor tools never
	// call back into the client, so stateless serving is safe.
	Stateless bool
}

// NewHTTPHandler creates a Streamable HTTP handler for the MCP server,
// to be mounted at /mcp next to /health and the JSON API.
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{Stateless: opts.Stateless})
}

// NewMux mounts every HTTP route: the landing page, /health, the JSON
// API, and MCP at /mcp.
func NewMux(server *Server, api *API, health HealthChecker, opts *HTTPHandlerOptions) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", NewLandingHandler())
	mux.HandleFunc("/health", NewHealthHandler(health))
	api.Register(mux)
	mux.Handle("/mcp", NewHTTPHandler(server, opts))
	return mux
}
