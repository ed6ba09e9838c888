package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/agentbridge-go/internal/client"
	"github.com/wagiedev/agentbridge-go/internal/protocol"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []string
	startErr error
	running  bool
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
}

func (f *fakeAPI) SendQuery(_ context.Context, text string, useCache bool) *client.QueryResponse {
	if useCache {
		f.record("query:" + text)
	} else {
		f.record("query-nocache:" + text)
	}

	if text == "fail" {
		return &client.QueryResponse{Error: "boom"}
	}

	return &client.QueryResponse{Success: true, Response: "answer to " + text}
}

func (f *fakeAPI) Status() client.AgentStatus {
	return client.AgentStatus{Running: f.running, Connected: f.running}
}

func (f *fakeAPI) Start(context.Context) error {
	f.record("start")

	return f.startErr
}

func (f *fakeAPI) Stop(context.Context) error {
	f.record("stop")

	return nil
}

func (f *fakeAPI) ClearMemory(context.Context) error {
	f.record("clear_memory")

	return nil
}

func (f *fakeAPI) WalletBalances(ctx context.Context) *client.QueryResponse {
	return f.SendQuery(ctx, "/balances", false)
}

func (f *fakeAPI) Transactions(ctx context.Context) *client.QueryResponse {
	return f.SendQuery(ctx, "/transactions", false)
}

func (f *fakeAPI) ClearCache() { f.record("clear_cache") }

func (f *fakeAPI) CacheStats() client.CacheStats {
	return client.CacheStats{Message: "Cache is operational", Entries: 3, Expired: 1}
}

func (f *fakeAPI) APIStatus() client.APIStatus {
	return client.APIStatus{Intelligence: true, Memory: true}
}

// connect starts server on an in-memory transport and returns a client session.
func connect(t *testing.T, server *Server, opts *mcpgo.ClientOptions) *mcpgo.ClientSession {
	t.Helper()

	ctx := context.Background()
	serverTransport, clientTransport := mcpgo.NewInMemoryTransports()

	ss, err := server.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	c := mcpgo.NewClient(&mcpgo.Implementation{Name: "test-client", Version: "v0.0.1"}, opts)

	cs, err := c.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

func newTestServer(t *testing.T, api API) (*Server, *mcpgo.ClientSession) {
	t.Helper()

	server := NewServer(slog.Default(), "v0.0.0-test")
	server.Register(api)

	return server, connect(t, server, nil)
}

func callText(t *testing.T, cs *mcpgo.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	if args == nil {
		args = map[string]any{}
	}

	result, err := cs.CallTool(context.Background(), &mcpgo.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcpgo.TextContent)
	require.True(t, ok)

	return text.Text, result.IsError
}

func TestServer_ListTools(t *testing.T) {
	_, cs := newTestServer(t, &fakeAPI{})

	result, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}

	require.ElementsMatch(t, []string{
		ToolSendQuery, ToolGetStatus, ToolStartAgent, ToolStopAgent, ToolClearMemory,
		ToolWalletBalances, ToolTransactions, ToolClearCache, ToolCacheStats, ToolAPIStatus,
	}, names)
}

func TestServer_SendQuery(t *testing.T) {
	api := &fakeAPI{}
	_, cs := newTestServer(t, api)

	text, isErr := callText(t, cs, ToolSendQuery, map[string]any{"query": "hi"})
	require.False(t, isErr)
	require.JSONEq(t, `{"success":true,"response":"answer to hi"}`, text)

	_, isErr = callText(t, cs, ToolSendQuery, map[string]any{"query": "hi", "use_cache": false})
	require.False(t, isErr)

	text, isErr = callText(t, cs, ToolSendQuery, map[string]any{"query": "fail"})
	require.True(t, isErr)
	require.JSONEq(t, `{"success":false,"response":"","error":"boom"}`, text)

	require.Equal(t, []string{"query:hi", "query-nocache:hi", "query:fail"}, api.calls)
}

func TestServer_LifecycleTools(t *testing.T) {
	api := &fakeAPI{running: true}
	_, cs := newTestServer(t, api)

	text, isErr := callText(t, cs, ToolStartAgent, nil)
	require.False(t, isErr)
	require.Equal(t, "Agent started", text)

	text, _ = callText(t, cs, ToolGetStatus, nil)
	require.JSONEq(t, `{"running":true,"connected":true}`, text)

	text, _ = callText(t, cs, ToolClearMemory, nil)
	require.Equal(t, "Memory cleared", text)

	text, _ = callText(t, cs, ToolStopAgent, nil)
	require.Equal(t, "Agent stopped", text)

	api.startErr = errors.New("no python")

	text, isErr = callText(t, cs, ToolStartAgent, nil)
	require.True(t, isErr)
	require.Equal(t, "Failed to start agent: no python", text)
}

func TestServer_CacheAndCommandTools(t *testing.T) {
	api := &fakeAPI{}
	_, cs := newTestServer(t, api)

	text, _ := callText(t, cs, ToolWalletBalances, nil)
	require.JSONEq(t, `{"success":true,"response":"answer to /balances"}`, text)

	text, _ = callText(t, cs, ToolTransactions, nil)
	require.JSONEq(t, `{"success":true,"response":"answer to /transactions"}`, text)

	text, _ = callText(t, cs, ToolClearCache, nil)
	require.Equal(t, "Cache cleared", text)

	text, _ = callText(t, cs, ToolCacheStats, nil)
	require.JSONEq(t, `{"message":"Cache is operational","entries":3,"expired":1}`, text)

	text, _ = callText(t, cs, ToolAPIStatus, nil)
	require.JSONEq(t,
		`{"intelligence":true,"memory":true,"market_data":false,"websocket":false,"token_swapping":false}`,
		text)

	require.Equal(t, []string{
		"query-nocache:/balances", "query-nocache:/transactions", "clear_cache",
	}, api.calls)
}

func TestServer_ForwardsNotifications(t *testing.T) {
	server := NewServer(slog.Default(), "v0.0.0-test")
	server.Register(&fakeAPI{})

	received := make(chan *mcpgo.LoggingMessageParams, 4)

	cs := connect(t, server, &mcpgo.ClientOptions{
		LoggingMessageHandler: func(_ context.Context, req *mcpgo.LoggingMessageRequest) {
			received <- req.Params
		},
	})

	require.NoError(t, cs.SetLoggingLevel(context.Background(), &mcpgo.SetLoggingLevelParams{Level: "info"}))

	details := "fetching prices"
	server.Notifier().Notify(protocol.EventStatusUpdate, protocol.StatusUpdate{
		Phase: "tools", Message: "Calling market API", Details: &details,
	})
	server.Notifier().Notify(protocol.EventDelegationError, map[string]any{"error": "quota"})

	select {
	case params := <-received:
		require.Equal(t, protocol.EventStatusUpdate, params.Logger)
		require.Equal(t, mcpgo.LoggingLevel("info"), params.Level)

		data, err := json.Marshal(params.Data)
		require.NoError(t, err)
		require.JSONEq(t, `{"phase":"tools","message":"Calling market API","details":"fetching prices"}`, string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("status notification not received")
	}

	select {
	case params := <-received:
		require.Equal(t, protocol.EventDelegationError, params.Logger)
		require.Equal(t, mcpgo.LoggingLevel("error"), params.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("delegation notification not received")
	}
}

func TestServer_NotifyWithoutSessions(t *testing.T) {
	server := NewServer(nil, "v0")

	require.NotPanics(t, func() {
		server.Notifier().Notify(protocol.EventStatusUpdate, protocol.StatusUpdate{})
	})
}
