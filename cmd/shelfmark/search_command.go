package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var username string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search configured sources for a book",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Search(ipc.SearchRequest{
					Query:       query,
					ContentType: contentType,
					Username:    username,
				})
				if err != nil {
					return err
				}

				if asJSON {
					results := resp.Results
					if results == nil {
						results = []ipc.SearchResult{}
					}
					return writeJSON(cmd, results)
				}

				if len(resp.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results")
					return nil
				}

				rows := make([][]string, 0, len(resp.Results))
				for _, result := range resp.Results {
					rows = append(rows, []string{
						result.Title,
						result.Author,
						result.Source,
						result.ContentType,
						formatResultYear(result.Year),
						formatResultSize(result.Size),
						formatStatusLabel(result.Mode),
					})
				}
				table := renderTable(
					[]string{"Title", "Author", "Source", "Type", "Year", "Size", "Mode"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&contentType, "type", "t", "ebook", "Content type to search for (ebook or audiobook)")
	cmd.Flags().StringVarP(&username, "user", "u", "", "Resolve access modes for this account")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func formatResultYear(year int) string {
	if year <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}

func formatResultSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
