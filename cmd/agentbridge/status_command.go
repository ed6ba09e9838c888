package main

import "github.com/spf13/cobra"

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Start the worker and report whether it is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := ctx.newBridge(cmd)
			if err != nil {
				return err
			}
			defer ctx.shutdownBridge(cmd, bridge)

			if err := bridge.Start(cmd.Context()); err != nil {
				return err
			}

			return writeJSON(cmd, bridge.Status())
		},
	}
}

func newAPIStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "api-status",
		Short: "Report which external services are configured in the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := ctx.newBridge(cmd)
			if err != nil {
				return err
			}
			defer ctx.shutdownBridge(cmd, bridge)

			return writeJSON(cmd, bridge.APIStatus())
		},
	}
}
