package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query <text>...",
		Short: "Send one query to the worker and print the answer",
		Long: "Send one query to a freshly started worker and print its answer.\n\n" +
			"Queries starting with \"/\" are worker commands, e.g. \"agentbridge query /balances\".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := ctx.newBridge(cmd)
			if err != nil {
				return err
			}
			defer ctx.shutdownBridge(cmd, bridge)

			resp := bridge.SendQuery(cmd.Context(), strings.Join(args, " "), false)

			if jsonOutput {
				if err := writeJSON(cmd, resp); err != nil {
					return err
				}
			} else if resp.Success {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
			}

			if !resp.Success {
				return errors.New(resp.Error)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full response as JSON")

	return cmd
}
