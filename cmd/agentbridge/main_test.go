package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/agentbridge-go/internal/config"
)

const testWorkerScript = `#!/bin/sh
echo '{"type":"ready"}'
while IFS= read -r line; do
  case "$line" in
    fail) echo '{"type":"error","error":"cannot do that"}' ;;
    *)
      echo '{"type":"status","phase":"thinking","message":"hm"}'
      printf '{"type":"answer","answer":"You asked: %s"}\n' "$line" ;;
  esac
done
`

// setupConfig writes a fake worker and a config file pointing at it.
func setupConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	worker := filepath.Join(dir, "worker")
	require.NoError(t, os.WriteFile(worker, []byte(testWorkerScript), 0o755))

	configPath := filepath.Join(dir, "agentbridge.yaml")
	content := "command: " + worker + "\nargs: []\nstop_timeout: 2s\n" + extra
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return configPath
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}

	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestQueryCommand(t *testing.T) {
	configPath := setupConfig(t, "")

	out, _, err := runCLI(t, []string{"query", "what", "is", "SOL"}, configPath)

	require.NoError(t, err)
	require.Equal(t, "You asked: what is SOL\n", out)
}

func TestQueryCommand_JSON(t *testing.T) {
	configPath := setupConfig(t, "")

	out, _, err := runCLI(t, []string{"query", "--json", "hello"}, configPath)
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"response":"You asked: hello"}`, out)
}

func TestQueryCommand_AgentError(t *testing.T) {
	configPath := setupConfig(t, "")

	out, _, err := runCLI(t, []string{"query", "fail"}, configPath)

	require.EqualError(t, err, "cannot do that")
	require.Empty(t, out)
}

func TestQueryCommand_RequiresText(t *testing.T) {
	_, _, err := runCLI(t, []string{"query"}, setupConfig(t, ""))
	require.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	configPath := setupConfig(t, "")

	out, _, err := runCLI(t, []string{"status"}, configPath)
	require.NoError(t, err)

	var status struct {
		Running   bool `json:"running"`
		Connected bool `json:"connected"`
		Pid       int  `json:"pid"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.True(t, status.Running)
	require.True(t, status.Connected)
	require.Positive(t, status.Pid)
}

func TestStatusCommand_MissingWorker(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "agentbridge.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("command: "+filepath.Join(dir, "missing")+"\n"), 0o600))

	_, _, err := runCLI(t, []string{"status"}, configPath)

	require.ErrorContains(t, err, "worker executable not found")
}

func TestAPIStatusCommand(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COINGECKO_API_KEY", "cg-test")
	t.Setenv("REALTIME_PRICE_ENABLED", "False")
	t.Setenv("TITAN_API_TOKEN", "tt")

	out, _, err := runCLI(t, []string{"api-status"}, setupConfig(t, ""))

	require.NoError(t, err)
	require.JSONEq(t,
		`{"intelligence":true,"memory":true,"market_data":true,"websocket":false,"token_swapping":true}`,
		out)
}

func TestInvalidConfig(t *testing.T) {
	configPath := setupConfig(t, "mode: staging\n")

	_, _, err := runCLI(t, []string{"api-status"}, configPath)

	require.ErrorContains(t, err, "mode")
}

func TestLogLevelFlag(t *testing.T) {
	configPath := setupConfig(t, "")

	_, _, err := runCLI(t, []string{"--log-level", "loud", "api-status"}, configPath)
	require.ErrorContains(t, err, "log_level")

	_, stderr, err := runCLI(t, []string{"--log-level", "debug", "query", "hi"}, configPath)
	require.NoError(t, err)
	require.True(t, strings.Contains(stderr, "level=DEBUG"), "debug logs expected on stderr")
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := runCLI(t, nil, setupConfig(t, ""))

	require.NoError(t, err)

	for _, sub := range []string{"serve", "query", "status", "api-status"} {
		require.Contains(t, out, sub)
	}
}

func TestShutdownTimeout(t *testing.T) {
	configPath := setupConfig(t, "")
	logLevel := ""

	c := newCommandContext(&configPath, &logLevel)
	require.Equal(t, 2*time.Second, c.shutdownTimeout())

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	c = newCommandContext(&missing, &logLevel)
	require.Equal(t, config.DefaultStopTimeout, c.shutdownTimeout())
}
