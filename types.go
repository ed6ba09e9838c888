package agentbridge

import (
	"github.com/wagiedev/agentbridge-go/internal/client"
	"github.com/wagiedev/agentbridge-go/internal/config"
	"github.com/wagiedev/agentbridge-go/internal/protocol"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures a Bridge. Prefer the With* functional options.
type Options = config.Options

// Mode selects how the worker is invoked.
type Mode = config.Mode

const (
	// ModeDevelopment runs the worker from a source checkout through uv.
	ModeDevelopment = config.ModeDevelopment
	// ModeProduction runs the worker with the system Python interpreter.
	ModeProduction = config.ModeProduction
)

// ConfigFile is the YAML and environment configuration.
type ConfigFile = config.File

// LoadConfig reads configuration with the hierarchy defaults < YAML < env.
// An empty path means agentbridge.yaml; a missing file is not an error.
func LoadConfig(path string) (*ConfigFile, error) {
	return config.Load(path)
}

// ===== Worker Abstraction =====

// Worker is one running worker process.
type Worker = config.Worker

// Spawner starts worker processes.
type Spawner = config.Spawner

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc = config.SpawnerFunc

// ===== Notifications =====

// Notifier receives status and delegation notifications.
type Notifier = config.Notifier

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc = config.NotifierFunc

// StatusUpdate is the payload of a status-update notification.
type StatusUpdate = protocol.StatusUpdate

// Notification names.
const (
	EventStatusUpdate        = protocol.EventStatusUpdate
	EventDelegationActivated = protocol.EventDelegationActivated
	EventDelegationError     = protocol.EventDelegationError
)

// ===== Responses =====

// QueryResponse is the outcome of one query.
type QueryResponse = client.QueryResponse

// AgentStatus reports the worker's state.
type AgentStatus = client.AgentStatus

// CacheStats is the result of a cache sweep.
type CacheStats = client.CacheStats

// APIStatus reports which external services are configured.
type APIStatus = client.APIStatus

// CommandPrefix marks queries that are worker commands and never cached.
const CommandPrefix = client.CommandPrefix
