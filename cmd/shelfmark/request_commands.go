package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newRequestCommand(ctx *commandContext) *cobra.Command {
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Submit and moderate book requests",
	}

	requestCmd.AddCommand(newRequestSubmitCommand(ctx))
	requestCmd.AddCommand(newRequestListCommand(ctx))
	requestCmd.AddCommand(newRequestApproveCommand(ctx))
	requestCmd.AddCommand(newRequestDenyCommand(ctx))

	return requestCmd
}

func newRequestSubmitCommand(ctx *commandContext) *cobra.Command {
	var username string
	var author string
	var source string
	var contentType string
	var note string

	cmd := &cobra.Command{
		Use:   "submit <title>",
		Short: "Submit a new book request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RequestSubmit(ipc.RequestSubmitRequest{
					Username:    username,
					Title:       title,
					Author:      author,
					Source:      source,
					ContentType: contentType,
					Note:        note,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Request %s submitted (%s)\n", resp.Request.UUID, formatStatusLabel(resp.Request.Status))
				if resp.Request.Mode != "" {
					fmt.Fprintf(out, "Resolved mode: %s\n", formatStatusLabel(resp.Request.Mode))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Account submitting the request")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Book author")
	cmd.Flags().StringVar(&source, "source", "", "Preferred source")
	cmd.Flags().StringVarP(&contentType, "type", "t", "ebook", "Content type (ebook or audiobook)")
	cmd.Flags().StringVar(&note, "note", "", "Optional note for moderators")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRequestListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var username string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List book requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RequestList(ipc.RequestListRequest{
					Statuses: listStatuses,
					Username: username,
				})
				if err != nil {
					return err
				}

				if asJSON {
					requests := resp.Requests
					if requests == nil {
						requests = []ipc.Request{}
					}
					return writeJSON(cmd, requests)
				}

				if len(resp.Requests) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests")
					return nil
				}

				rows := make([][]string, 0, len(resp.Requests))
				for _, req := range resp.Requests {
					rows = append(rows, []string{
						req.UUID,
						req.Title,
						req.Author,
						req.Username,
						formatStatusLabel(req.Mode),
						formatStatusLabel(req.Status),
						formatDisplayTime(req.CreatedAt),
					})
				}
				table := renderTable(
					[]string{"UUID", "Title", "Author", "User", "Mode", "Status", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by request status (repeatable)")
	cmd.Flags().StringVarP(&username, "user", "u", "", "Show only this account's requests")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newRequestApproveCommand(ctx *commandContext) *cobra.Command {
	var decidedBy string

	cmd := &cobra.Command{
		Use:   "approve <uuid>",
		Short: "Approve a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RequestApprove(strings.TrimSpace(args[0]), decidedBy)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Request %s approved\n", resp.Request.UUID)
				if resp.Request.DownloadID > 0 {
					fmt.Fprintf(out, "Queued as download %d\n", resp.Request.DownloadID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&decidedBy, "by", "", "Admin account making the decision")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newRequestDenyCommand(ctx *commandContext) *cobra.Command {
	var decidedBy string

	cmd := &cobra.Command{
		Use:   "deny <uuid>",
		Short: "Deny a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RequestDeny(strings.TrimSpace(args[0]), decidedBy)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Request %s denied\n", resp.Request.UUID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&decidedBy, "by", "", "Admin account making the decision")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}
