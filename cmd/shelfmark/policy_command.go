package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newPolicyCommand(ctx *commandContext) *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the request policy",
	}

	policyCmd.AddCommand(newPolicyShowCommand(ctx))
	return policyCmd
}

func newPolicyShowCommand(ctx *commandContext) *cobra.Command {
	var username string
	var force bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the request policy as seen by an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PolicyShow(username, force)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, resp.Policy)
				}

				out := cmd.OutOrStdout()
				pol := resp.Policy
				fmt.Fprintf(out, "Requests enabled: %s\n", yesNo(pol.RequestsEnabled))
				fmt.Fprintf(out, "Admin view:       %s\n", yesNo(pol.IsAdmin))
				fmt.Fprintf(out, "Notes allowed:    %s\n", yesNo(pol.AllowNotes))

				if len(pol.Defaults) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Default modes:")
					contentTypes := make([]string, 0, len(pol.Defaults))
					for contentType := range pol.Defaults {
						contentTypes = append(contentTypes, contentType)
					}
					sort.Strings(contentTypes)
					for _, contentType := range contentTypes {
						fmt.Fprintf(out, "  %-12s %s\n", contentType+":", formatStatusLabel(pol.Defaults[contentType]))
					}
				}

				if len(pol.SourceModes) == 0 {
					return nil
				}

				fmt.Fprintln(out)
				rows := make([][]string, 0, len(pol.SourceModes))
				for _, sourceMode := range pol.SourceModes {
					modes := make([]string, 0, len(sourceMode.Modes))
					for contentType, mode := range sourceMode.Modes {
						modes = append(modes, fmt.Sprintf("%s=%s", contentType, mode))
					}
					sort.Strings(modes)
					rows = append(rows, []string{
						sourceMode.Source,
						strings.Join(sourceMode.SupportedContentTypes, ", "),
						strings.Join(modes, ", "),
					})
				}
				table := renderTable(
					[]string{"Source", "Content Types", "Modes"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(out, table)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Resolve the policy for this account")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Bypass the cache and fetch a fresh policy")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
