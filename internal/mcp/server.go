package mcp

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/agentbridge-go/internal/client"
	"github.com/wagiedev/agentbridge-go/internal/config"
	"github.com/wagiedev/agentbridge-go/internal/protocol"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "agentbridge"

// Tool names.
const (
	ToolSendQuery      = "send_query"
	ToolGetStatus      = "get_status"
	ToolStartAgent     = "start_agent"
	ToolStopAgent      = "stop_agent"
	ToolClearMemory    = "clear_memory"
	ToolWalletBalances = "get_wallet_balances"
	ToolTransactions   = "get_transactions"
	ToolClearCache     = "clear_cache"
	ToolCacheStats     = "get_cache_stats"
	ToolAPIStatus      = "check_api_status"
)

// notifyTimeout bounds delivery of one notification to one session.
const notifyTimeout = 5 * time.Second

// API is the bridge surface served over MCP.
type API interface {
	SendQuery(ctx context.Context, text string, useCache bool) *client.QueryResponse
	Status() client.AgentStatus
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ClearMemory(ctx context.Context) error
	WalletBalances(ctx context.Context) *client.QueryResponse
	Transactions(ctx context.Context) *client.QueryResponse
	ClearCache()
	CacheStats() client.CacheStats
	APIStatus() client.APIStatus
}

// Server serves an API over MCP.
type Server struct {
	log    *slog.Logger
	server *mcp.Server
}

// NewServer creates a Server with no tools registered.
func NewServer(log *slog.Logger, version string) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		log: log.With("component", "mcp"),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, nil),
	}
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves MCP over transport until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving MCP")

	return s.server.Run(ctx, transport)
}

// Notifier returns a config.Notifier that forwards notifications to every
// connected session as log messages. Sessions that have not set a log
// level receive nothing.
func (s *Server) Notifier() config.Notifier {
	return config.NotifierFunc(s.notify)
}

func (s *Server) notify(name string, payload any) {
	level := mcp.LoggingLevel("info")
	if name == protocol.EventDelegationError {
		level = "error"
	}

	for ss := range s.server.Sessions() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)

		err := ss.Log(ctx, &mcp.LoggingMessageParams{
			Level:  level,
			Logger: name,
			Data:   payload,
		})

		cancel()

		if err != nil {
			s.log.Debug("Failed to forward notification", "event", name, "error", err)
		}
	}
}

// Register adds a tool for every API operation.
func (s *Server) Register(api API) {
	s.server.AddTool(
		NewTool(ToolSendQuery,
			"Send a query to the agent. Answers are cached unless use_cache is false; "+
				"queries starting with \"/\" are agent commands and never cached.",
			SimpleSchema(map[string]string{"query": "string", "use_cache": "bool"}, "use_cache")),
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := ParseArguments(req)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			query, ok := args["query"].(string)
			if !ok {
				return ErrorResult("query must be a string"), nil
			}

			useCache := true
			if v, ok := args["use_cache"].(bool); ok {
				useCache = v
			}

			return queryResult(api.SendQuery(ctx, query, useCache))
		},
	)

	s.server.AddTool(
		NewTool(ToolGetStatus, "Report whether the agent process is running.", NoArguments()),
		func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return JSONResult(api.Status())
		},
	)

	s.server.AddTool(
		NewTool(ToolStartAgent, "Start the agent process if it is not running.", NoArguments()),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := api.Start(ctx); err != nil {
				return ErrorResult("Failed to start agent: " + err.Error()), nil
			}

			return TextResult("Agent started"), nil
		},
	)

	s.server.AddTool(
		NewTool(ToolStopAgent, "Stop the agent process.", NoArguments()),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := api.Stop(ctx); err != nil {
				return ErrorResult("Failed to stop agent: " + err.Error()), nil
			}

			return TextResult("Agent stopped"), nil
		},
	)

	s.server.AddTool(
		NewTool(ToolClearMemory, "Clear the agent's conversation memory.", NoArguments()),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := api.ClearMemory(ctx); err != nil {
				return ErrorResult(err.Error()), nil
			}

			return TextResult("Memory cleared"), nil
		},
	)

	s.server.AddTool(
		NewTool(ToolWalletBalances, "Fetch wallet balances through the agent.", NoArguments()),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return queryResult(api.WalletBalances(ctx))
		},
	)

	s.server.AddTool(
		NewTool(ToolTransactions, "Fetch the transaction history through the agent.", NoArguments()),
		func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return queryResult(api.Transactions(ctx))
		},
	)

	s.server.AddTool(
		NewTool(ToolClearCache, "Drop every cached answer.", NoArguments()),
		func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			api.ClearCache()

			return TextResult("Cache cleared"), nil
		},
	)

	s.server.AddTool(
		NewTool(ToolCacheStats, "Sweep expired answers and report cache statistics.", NoArguments()),
		func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return JSONResult(api.CacheStats())
		},
	)

	s.server.AddTool(
		NewTool(ToolAPIStatus, "Report which external services are configured.", NoArguments()),
		func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return JSONResult(api.APIStatus())
		},
	)
}

// queryResult renders a QueryResponse, flagging failures as tool errors.
func queryResult(resp *client.QueryResponse) (*mcp.CallToolResult, error) {
	result, err := JSONResult(resp)
	if err != nil {
		return nil, err
	}

	result.IsError = !resp.Success

	return result, nil
}
