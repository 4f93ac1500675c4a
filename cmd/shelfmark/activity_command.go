package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the unified download and request feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Activity()
				if err != nil {
					return err
				}

				if asJSON {
					entries := resp.Entries
					if entries == nil {
						entries = []ipc.ActivityEntry{}
					}
					return writeJSON(cmd, entries)
				}

				if len(resp.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No activity")
					return nil
				}

				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{
						formatStatusLabel(entry.Kind),
						entry.Title,
						entry.Author,
						entry.Source,
						formatStatusLabel(entry.State),
						truncateDetail(entry.Detail, 40),
						formatDisplayTime(entry.Timestamp),
					})
				}
				table := renderTable(
					[]string{"Kind", "Title", "Author", "Source", "State", "Detail", "When"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
