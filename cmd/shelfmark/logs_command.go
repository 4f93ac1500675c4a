package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				req := ipc.LogTailRequest{
					Offset: -1,
					Limit:  lines,
					Follow: follow,
				}
				if follow {
					req.WaitMillis = 1000
				}
				for {
					resp, err := client.LogTail(req)
					if err != nil {
						return fmt.Errorf("tail logs: %w", err)
					}
					for _, line := range resp.Lines {
						fmt.Fprintln(cmd.OutOrStdout(), line)
					}
					if !follow {
						if len(resp.Lines) == 0 {
							fmt.Fprintln(cmd.OutOrStdout(), "No log lines yet")
						}
						return nil
					}
					req.Offset = resp.Offset
					req.Limit = 0

					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	return cmd
}
