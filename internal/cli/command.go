package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/wagiedev/agentbridge-go/internal/config"
)

// Default invocations per build mode.
const (
	developmentCommand = "uv"
	productionCommand  = "python3"
)

// Invocation returns the executable and arguments used to start the worker.
//
// Options.Command and Options.Args override the defaults for the mode.
// Development mode runs the worker package through uv from the source tree;
// production mode runs it as a module of the bundled interpreter. Both ask
// the worker for line-delimited JSON output.
func Invocation(options *config.Options) (string, []string) {
	var (
		command string
		args    []string
	)

	switch options.Mode {
	case config.ModeDevelopment:
		command = developmentCommand
		args = []string{"run", "maximus", "--json"}
	default:
		command = productionCommand
		args = []string{"-m", "maximus", "--json"}
	}

	if options.Command != "" {
		command = options.Command
	}

	if options.Args != nil {
		args = slices.Clone(options.Args)
	}

	return command, args
}

// BuildEnvironment constructs the environment variables for the worker process.
//
// The worker inherits the parent environment. Each key in Options.ForwardEnv
// (DELEGATION_ENCRYPTION_KEY by default) is forwarded explicitly when set;
// a missing key is logged as a warning and the worker starts without it.
// Options.Env is applied last.
func BuildEnvironment(log *slog.Logger, options *config.Options) []string {
	env := os.Environ()

	forward := options.ForwardEnv
	if forward == nil {
		forward = []string{config.DelegationKeyEnv}
	}

	for _, key := range forward {
		value, ok := os.LookupEnv(key)
		if !ok {
			log.Warn("Environment variable not set, worker starts without it", "key", key)

			continue
		}

		log.Debug("Forwarding environment variable to worker", "key", key)

		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	for key, value := range options.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}
