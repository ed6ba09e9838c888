package main

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	agentbridge "github.com/wagiedev/agentbridge-go"
	"github.com/wagiedev/agentbridge-go/internal/mcp"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var noStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge as an MCP server on stdio",
		Long: "Serve the bridge as an MCP server on stdin/stdout.\n\n" +
			"The worker is started immediately unless --no-start is given; if it fails to start,\n" +
			"it is started again on the first query. Worker notifications are sent to the MCP\n" +
			"client as log messages once it sets a log level.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			log := ctx.logger(cmd)
			server := mcp.NewServer(log, version)

			bridge, err := ctx.newBridge(cmd, agentbridge.WithNotifier(server.Notifier()))
			if err != nil {
				return err
			}
			defer ctx.shutdownBridge(cmd, bridge)

			server.Register(bridge)

			if !noStart {
				if err := bridge.Start(cmd.Context()); err != nil {
					log.Warn("Worker did not start; it will be started on the first query", "error", err)
				}
			}

			g, gctx := errgroup.WithContext(cmd.Context())

			// Serving ends when the client disconnects; the sweeper follows.
			serveCtx, stopServing := context.WithCancel(gctx)
			defer stopServing()

			g.Go(func() error {
				defer stopServing()

				return server.Run(serveCtx, &mcpsdk.StdioTransport{})
			})

			g.Go(func() error {
				err := bridge.RunCacheCleanup(serveCtx, cfg.CleanupInterval)
				if errors.Is(err, context.Canceled) {
					return nil
				}

				return err
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			log.Info("MCP client disconnected, shutting down")

			return nil
		},
	}

	cmd.Flags().BoolVar(&noStart, "no-start", false, "Do not start the worker until the first query")

	return cmd
}
