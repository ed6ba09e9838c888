package agentbridge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentbridge "github.com/wagiedev/agentbridge-go"
)

// fakeWorkerScript behaves like the agent worker: it reports readiness,
// streams a status update per query and answers. "/clear" is answered as a
// command, "fail" as an error and "big" after an oversized output line.
const fakeWorkerScript = `#!/bin/sh
echo '{"type":"ready"}'
while IFS= read -r line; do
  case "$line" in
    /clear) echo '{"type":"command_result","result":"Memory cleared"}' ;;
    /balances) echo '{"type":"command","message":"SOL: 1.5"}' ;;
    fail) echo '{"type":"error","error":"cannot do that"}' ;;
    big)
      head -c 2000000 /dev/zero | tr '\0' x
      echo
      echo '{"type":"answer","answer":"survived"}' ;;
    delegate)
      echo '{"type":"delegation_activated","agent":"trader"}'
      echo '{"type":"answer","answer":"delegated"}' ;;
    *)
      echo '{"type":"status","phase":"thinking","message":"Working on it","details":"step 1"}'
      printf '{"type":"answer","answer":"You asked: %s"}\n' "$line" ;;
  esac
done
`

func writeWorker(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-agent")
	require.NoError(t, os.WriteFile(path, []byte(fakeWorkerScript), 0o755))

	return path
}

type notifications struct {
	mu     sync.Mutex
	names  []string
	status []agentbridge.StatusUpdate
}

func (n *notifications) Notify(name string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.names = append(n.names, name)

	if update, ok := payload.(agentbridge.StatusUpdate); ok {
		n.status = append(n.status, update)
	}
}

func newBridge(t *testing.T, opts ...agentbridge.Option) agentbridge.Bridge {
	t.Helper()

	opts = append([]agentbridge.Option{
		agentbridge.WithCommand(writeWorker(t)),
		agentbridge.WithArgs(),
		agentbridge.WithStopTimeout(2 * time.Second),
	}, opts...)

	b := agentbridge.New(opts...)
	t.Cleanup(func() { b.Shutdown(context.Background()) })

	return b
}

// TestBridge_QueryLifecycle tests a query against a real worker process.
func TestBridge_QueryLifecycle(t *testing.T) {
	n := &notifications{}
	b := newBridge(t, agentbridge.WithNotifier(n))
	ctx := context.Background()

	require.False(t, b.Status().Running)

	resp := b.SendQuery(ctx, "hello", true)

	require.True(t, resp.Success, resp.Error)
	require.Equal(t, "You asked: hello", resp.Response)
	require.True(t, b.Status().Running)
	require.True(t, b.Status().Connected)

	details := "step 1"

	n.mu.Lock()
	assert.Equal(t, []string{agentbridge.EventStatusUpdate}, n.names)
	assert.Equal(t, []agentbridge.StatusUpdate{{Phase: "thinking", Message: "Working on it", Details: &details}}, n.status)
	n.mu.Unlock()

	require.Equal(t, 1, b.CacheStats().Entries)

	require.NoError(t, b.Stop(ctx))
	require.False(t, b.Status().Running)

	// Served from cache with the worker stopped.
	cached := b.SendQuery(ctx, "hello", true)
	require.Equal(t, resp, cached)
	require.False(t, b.Status().Running)
}

// TestBridge_Commands tests worker commands and their cache bypass.
func TestBridge_Commands(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	require.NoError(t, b.ClearMemory(ctx), "clear on a stopped worker is a no-op")
	require.False(t, b.Status().Running)

	balances := b.WalletBalances(ctx)
	require.True(t, balances.Success)
	require.Equal(t, "SOL: 1.5", balances.Response)

	require.NoError(t, b.ClearMemory(ctx))

	cleared := b.SendQuery(ctx, "/clear", true)
	require.Equal(t, "Memory cleared", cleared.Response)
	require.Zero(t, b.CacheStats().Entries)
}

// TestBridge_AgentError tests that a worker error becomes a failed response.
func TestBridge_AgentError(t *testing.T) {
	b := newBridge(t)

	resp := b.SendQuery(context.Background(), "fail", true)

	require.False(t, resp.Success)
	require.Equal(t, "cannot do that", resp.Error)
	require.Empty(t, resp.Response)
}

// TestBridge_Delegation tests delegation notifications.
func TestBridge_Delegation(t *testing.T) {
	n := &notifications{}
	b := newBridge(t, agentbridge.WithNotifier(n))

	resp := b.SendQuery(context.Background(), "delegate", false)
	require.Equal(t, "delegated", resp.Response)

	n.mu.Lock()
	defer n.mu.Unlock()

	require.Equal(t, []string{agentbridge.EventDelegationActivated}, n.names)
}

// TestBridge_StartFailure tests that a missing worker surfaces from Start
// and as a failed response from SendQuery.
func TestBridge_StartFailure(t *testing.T) {
	b := agentbridge.New(agentbridge.WithCommand(filepath.Join(t.TempDir(), "missing")))
	defer b.Shutdown(context.Background())

	err := b.Start(context.Background())

	_, ok := errors.AsType[*agentbridge.SpawnError](err)
	require.True(t, ok)

	resp := b.SendQuery(context.Background(), "hello", true)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "Failed to start agent")
}

// TestBridge_Shutdown tests that a shut down bridge refuses work.
func TestBridge_Shutdown(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx))
	b.Shutdown(ctx)
	b.Shutdown(ctx)

	require.False(t, b.Status().Running)
	require.ErrorIs(t, b.Start(ctx), agentbridge.ErrShutdown)
}

// TestBridge_CustomSpawner tests worker injection through WithSpawner.
func TestBridge_CustomSpawner(t *testing.T) {
	spawnErr := errors.New("no workers today")

	b := agentbridge.New(agentbridge.WithSpawner(agentbridge.SpawnerFunc(
		func(context.Context, *agentbridge.Options) (agentbridge.Worker, error) {
			return nil, spawnErr
		},
	)))
	defer b.Shutdown(context.Background())

	err := b.Start(context.Background())
	require.ErrorIs(t, err, spawnErr)
}

// TestBridge_ClearCache tests that cleared answers are fetched again.
func TestBridge_ClearCache(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := newBridge(t,
		agentbridge.WithClock(func() time.Time { return now }),
		agentbridge.WithQueryCacheTTL(time.Minute),
	)
	ctx := context.Background()

	b.SendQuery(ctx, "a", true)
	b.SendQuery(ctx, "b", true)
	require.Equal(t, 2, b.CacheStats().Entries)

	b.ClearCache()
	require.Equal(t, agentbridge.CacheStats{Message: "Cache is operational"}, b.CacheStats())
}

// TestBridge_APIStatus tests the environment-derived service flags.
func TestBridge_APIStatus(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REALTIME_PRICE_ENABLED", "false")

	b := agentbridge.New()
	defer b.Shutdown(context.Background())

	status := b.APIStatus()

	require.True(t, status.Intelligence)
	require.True(t, status.Memory)
	require.False(t, status.Websocket)
}

// TestBridge_OverlongLineSkipped tests that an output line beyond the maximum
// line size is dropped while the worker keeps serving queries.
func TestBridge_OverlongLineSkipped(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	resp := b.SendQuery(ctx, "big", false)
	require.True(t, resp.Success, resp.Error)
	require.Equal(t, "survived", resp.Response)

	pid := b.Status().Pid

	for range 3 {
		resp = b.SendQuery(ctx, "small", false)
		require.True(t, resp.Success, resp.Error)
		require.Equal(t, "You asked: small", resp.Response)
	}

	status := b.Status()
	require.True(t, status.Running)
	require.Equal(t, pid, status.Pid)
}
