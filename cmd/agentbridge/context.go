package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	agentbridge "github.com/wagiedev/agentbridge-go"
	"github.com/wagiedev/agentbridge-go/internal/config"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *agentbridge.ConfigFile
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*agentbridge.ConfigFile, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}

		cfg, err := agentbridge.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}

		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			if _, err := config.ParseLevel(*c.logLevelFlag); err != nil {
				c.configErr = err
				return
			}

			cfg.LogLevel = *c.logLevelFlag
		}

		c.config = cfg
	})

	return c.config, c.configErr
}

// logger writes to the command's stderr; stdout carries results and, for
// serve, the MCP stream.
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo

	if cfg, err := c.ensureConfig(); err == nil {
		if parsed, err := config.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}

	return agentbridge.NewLogger(cmd.ErrOrStderr(), level)
}

// newBridge builds a bridge from the loaded configuration. extra options
// are applied last.
func (c *commandContext) newBridge(cmd *cobra.Command, extra ...agentbridge.Option) (agentbridge.Bridge, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	log := c.logger(cmd)

	opts := append([]agentbridge.Option{
		agentbridge.WithFile(cfg),
		agentbridge.WithLogger(log),
		agentbridge.WithStderr(func(line string) {
			log.Debug("worker stderr", "line", line)
		}),
	}, extra...)

	return agentbridge.New(opts...), nil
}

// shutdownBridge shuts bridge down, waiting at most the stop timeout for an
// in-flight query before the worker is terminated underneath it.
func (c *commandContext) shutdownBridge(cmd *cobra.Command, bridge agentbridge.Bridge) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), c.shutdownTimeout())
	defer cancel()

	bridge.Shutdown(ctx)
}

func (c *commandContext) shutdownTimeout() time.Duration {
	if cfg, err := c.ensureConfig(); err == nil && cfg.StopTimeout > 0 {
		return cfg.StopTimeout
	}

	return config.DefaultStopTimeout
}
