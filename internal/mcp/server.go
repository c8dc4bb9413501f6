package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/wattsaver/internal/indexer"
)

// QuestionAnswerer answers a question with user-safe text.
// rag.Service implements this.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) string
}

// IndexReporter reports on the advisor index. app.App implements this.
type IndexReporter interface {
	LastIndex() *indexer.IndexResult
	IndexedChunks(ctx context.Context) (int, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Advisor  QuestionAnswerer
	Products QuestionAnswerer
	Index    IndexReporter
	Version  string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "wattsaver",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_energy_advisor",
		Description: "Answer a household energy-saving question from the energy advisor's knowledge base of tips on efficient appliances, interior design and everyday habits.",
	}, makeAskHandler(cfg.Advisor))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_eligible_product",
		Description: "Check whether a product category can be bought with Climate Vouchers and which energy label ticks it needs.",
	}, makeProductHandler(cfg.Products))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_voucher_eligibility",
		Description: "Decide which Climate Vouchers (300 SGD and 100 SGD) a household can still claim from its residential status, property type and claim history.",
	}, makeVoucherHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the status of the energy advisor index: indexed documents, chunk counts, skipped documents and last build time.",
	}, makeStatusHandler(cfg.Index))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
